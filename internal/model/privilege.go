package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "sale:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivAccountView        = "account:view"
	PrivAccountCreate      = "account:create"
	PrivAccountRecalculate = "account:recalculate"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionCancel = "transaction:cancel"

	PrivShipmentView   = "shipment:view"
	PrivShipmentCreate = "shipment:create"
	PrivInvestmentAdd  = "investment:create"

	PrivInventoryView        = "inventory:view"
	PrivInventoryCreate      = "inventory:create"
	PrivInventoryRecalculate = "inventory:recalculate"

	PrivSaleView   = "sale:view"
	PrivSaleCreate = "sale:create"
	PrivSaleUpdate = "sale:update"

	PrivWriteOffCreate = "write_off:create"

	PrivWithdrawalView   = "withdrawal:view"
	PrivWithdrawalCreate = "withdrawal:create"

	PrivFinanceView = "finance:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	{Code: PrivAccountView, Name: "View Account"},
	{Code: PrivAccountCreate, Name: "Create Account"},
	{Code: PrivAccountRecalculate, Name: "Recalculate Account Balances"},
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
	{Code: PrivTransactionCancel, Name: "Cancel Transaction"},
	{Code: PrivShipmentView, Name: "View Shipment"},
	{Code: PrivShipmentCreate, Name: "Create Shipment"},
	{Code: PrivInvestmentAdd, Name: "Add Shipment Investment"},
	{Code: PrivInventoryView, Name: "View Inventory"},
	{Code: PrivInventoryCreate, Name: "Create Batch"},
	{Code: PrivInventoryRecalculate, Name: "Recalculate Inventory"},
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleCreate, Name: "Create Sale"},
	{Code: PrivSaleUpdate, Name: "Complete or Cancel Sale"},
	{Code: PrivWriteOffCreate, Name: "Create Write-off"},
	{Code: PrivWithdrawalView, Name: "View Partner Withdrawal"},
	{Code: PrivWithdrawalCreate, Name: "Create Partner Withdrawal"},
	{Code: PrivFinanceView, Name: "View Equity Summary"},
}

// adminExcluded lists privileges only partners hold
var adminExcluded = map[string]bool{
	PrivUserCreate:          true,
	PrivUserUpdate:          true,
	PrivUserDelete:          true,
	PrivUserUpdatePrivilege: true,
	PrivInvestmentAdd:       true,
	PrivWithdrawalCreate:    true,
	PrivFinanceView:         true,
}

// managerAllowed lists what a MANAGER can do
var managerAllowed = map[string]bool{
	PrivInventoryView:  true,
	PrivSaleView:       true,
	PrivSaleCreate:     true,
	PrivSaleUpdate:     true,
	PrivWriteOffCreate: true,
}

// PrivilegesForRole filters all down to the default grant set of a role
func PrivilegesForRole(code string, all []Privilege) []Privilege {
	out := []Privilege{}
	for _, p := range all {
		switch code {
		case RoleSuperAdmin:
			out = append(out, p)
		case RoleAdmin:
			if !adminExcluded[p.Code] {
				out = append(out, p)
			}
		case RoleManager:
			if managerAllowed[p.Code] {
				out = append(out, p)
			}
		}
	}
	return out
}
