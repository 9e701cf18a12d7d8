package service

import "errors"

var (
	ErrAccountNotFound             = errors.New("account not found")
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrTransactionAlreadyCancelled = errors.New("transaction is already cancelled")
	ErrTransactionTypeNotManual    = errors.New("this transaction type is recorded through its own endpoint")
	ErrInvalidDirection            = errors.New("direction must be 'in' or 'out'")
	ErrInsufficientFunds           = errors.New("insufficient funds in account")
	ErrTransactionOwnedBySource    = errors.New("this transaction belongs to a sale, write-off or withdrawal and is cancelled through it")

	ErrShipmentNotFound             = errors.New("shipment not found")
	ErrShipmentNumberExists         = errors.New("shipment number already exists")
	ErrShipmentAlreadyReceived      = errors.New("shipment is already received")
	ErrNotPartner                   = errors.New("user is not a partner")
	ErrInvalidPercentage            = errors.New("percentage must be greater than 0 and at most 100")
	ErrInvestmentPercentageExceeded = errors.New("investments would exceed 100% of the shipment")
	ErrInvestmentAmountExceeded     = errors.New("investments would exceed the shipment total cost")

	ErrBatchNotFound           = errors.New("batch not found")
	ErrInsufficientStock       = errors.New("insufficient stock remaining")
	ErrRecalculationInProgress = errors.New("a recalculation is already running")

	ErrSaleNotFound      = errors.New("sale not found")
	ErrInvalidSaleStatus = errors.New("sale is not in a state that allows this action")

	ErrWithdrawalAccountRequired  = errors.New("cash withdrawals require an account")
	ErrWithdrawalShipmentRequired = errors.New("goods withdrawals require a shipment")
)
