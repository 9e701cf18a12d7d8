package service

import (
	"context"
	"errors"
	"fmt"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/logger"
	"greencycle/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ShipmentService interface {
	CreateShipment(ctx context.Context, req *CreateShipmentRequest, actor model.Actor) (*model.Shipment, error)
	ListShipments(ctx context.Context) ([]model.Shipment, error)
	GetShipment(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	AddInvestment(ctx context.Context, shipmentID uuid.UUID, req *AddInvestmentRequest, actor model.Actor) (*model.ShipmentInvestment, error)
	ReceiveShipment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Shipment, error)
}

type CreateShipmentRequest struct {
	Number       string          `json:"number" validate:"required,max=50"`
	SupplierName string          `json:"supplier_name"`
	TotalCost    decimal.Decimal `json:"total_cost" validate:"decimal_positive"`
	Note         string          `json:"note"`
}

// AddInvestmentRequest funds part of a shipment. When Percentage is zero it
// is derived from Amount / TotalCost.
type AddInvestmentRequest struct {
	UserID     uuid.UUID       `json:"user_id" validate:"uuid_required"`
	Amount     decimal.Decimal `json:"amount" validate:"decimal_positive"`
	Percentage decimal.Decimal `json:"percentage"`
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	userRepo     repository.UserRepository
	db           *gorm.DB
	publisher    ws.Publisher
}

func NewShipmentService(shipmentRepo repository.ShipmentRepository, userRepo repository.UserRepository, db *gorm.DB, publisher ws.Publisher) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		userRepo:     userRepo,
		db:           db,
		publisher:    publisher,
	}
}

func (s *shipmentService) CreateShipment(ctx context.Context, req *CreateShipmentRequest, actor model.Actor) (*model.Shipment, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	if existing, err := s.shipmentRepo.FindByNumber(ctx, req.Number); err == nil && existing != nil {
		return nil, ErrShipmentNumberExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	shipment := &model.Shipment{
		Number:       req.Number,
		SupplierName: req.SupplierName,
		TotalCost:    req.TotalCost.Round(2),
		Status:       model.ShipmentOrdered,
		Note:         req.Note,
	}
	shipment.Stamp(actor.UserID)

	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		logger.LogError("service.shipment", "CreateShipment", req.Number, nil, err)
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("shipment_update", "shipment_created", actor, shipment,
		fmt.Sprintf("%s created shipment %s", actor.Name, shipment.Number)))
	return shipment, nil
}

func (s *shipmentService) ListShipments(ctx context.Context) ([]model.Shipment, error) {
	return s.shipmentRepo.FindAll(ctx)
}

func (s *shipmentService) GetShipment(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShipmentNotFound
	}
	return shipment, err
}

// investmentPercentage returns the requested percentage, or the amount's
// share of the total cost when none was given
func investmentPercentage(totalCost, amount, requested decimal.Decimal) decimal.Decimal {
	if !requested.IsZero() || totalCost.IsZero() {
		return requested
	}
	return amount.Div(totalCost).Mul(hundred).Round(2)
}

// CheckInvestmentCaps verifies that adding amount/percentage on top of what a
// shipment already carries stays within 100% and within the total cost.
func CheckInvestmentCaps(totalCost decimal.Decimal, existing repository.InvestmentTotals, amount, percentage decimal.Decimal) error {
	if !percentage.IsPositive() || percentage.GreaterThan(hundred) {
		return ErrInvalidPercentage
	}
	if existing.Percentage.Add(percentage).GreaterThan(hundred) {
		return ErrInvestmentPercentageExceeded
	}
	if existing.Amount.Add(amount).GreaterThan(totalCost) {
		return ErrInvestmentAmountExceeded
	}
	return nil
}

func (s *shipmentService) AddInvestment(ctx context.Context, shipmentID uuid.UUID, req *AddInvestmentRequest, actor model.Actor) (*model.ShipmentInvestment, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	partner, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !partner.IsPartner() {
		return nil, ErrNotPartner
	}

	var investment *model.ShipmentInvestment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the shipment so concurrent investments see each other's totals
		shipment, err := s.shipmentRepo.LockByID(tx, shipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShipmentNotFound
			}
			return err
		}

		totals, err := s.shipmentRepo.InvestmentTotals(tx, shipmentID)
		if err != nil {
			return err
		}

		amount := req.Amount.Round(2)
		percentage := investmentPercentage(shipment.TotalCost, amount, req.Percentage.Round(2))
		if err := CheckInvestmentCaps(shipment.TotalCost, *totals, amount, percentage); err != nil {
			return err
		}

		investment = &model.ShipmentInvestment{
			ShipmentID: shipmentID,
			UserID:     req.UserID,
			Amount:     amount,
			Percentage: percentage,
		}
		investment.Stamp(actor.UserID)
		return s.shipmentRepo.CreateInvestment(tx, investment)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("shipment_update", "investment_added", actor, investment,
		fmt.Sprintf("%s invested %s (%s%%)", partner.FullName, investment.Amount.StringFixed(2), investment.Percentage.StringFixed(2))))
	return investment, nil
}

// ReceiveShipment marks the goods as arrived. Receiving twice is rejected.
func (s *shipmentService) ReceiveShipment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Shipment, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shipment, err := s.shipmentRepo.LockByID(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShipmentNotFound
			}
			return err
		}
		if shipment.Status == model.ShipmentReceived {
			return ErrShipmentAlreadyReceived
		}
		return s.shipmentRepo.MarkReceived(tx, id, actor.UserID)
	})
	if err != nil {
		return nil, err
	}

	shipment, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ws.NewEvent("shipment_update", "shipment_received", actor, shipment,
		fmt.Sprintf("%s received shipment %s", actor.Name, shipment.Number)))
	return shipment, nil
}
