package repository

import (
	"context"
	"time"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	FindAll(ctx context.Context) ([]model.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	FindByNumber(ctx context.Context, number string) (*model.Shipment, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Shipment, error)
	InvestmentTotals(tx *gorm.DB, shipmentID uuid.UUID) (*InvestmentTotals, error)
	CreateInvestment(tx *gorm.DB, inv *model.ShipmentInvestment) error
	MarkReceived(tx *gorm.DB, id uuid.UUID, receivedBy string) error
}

// InvestmentTotals is what has already been committed to one shipment
type InvestmentTotals struct {
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

type shipmentRepo struct {
	db *gorm.DB
}

func NewShipmentRepo(db *gorm.DB) ShipmentRepository {
	return &shipmentRepo{db}
}

func (r *shipmentRepo) Create(ctx context.Context, shipment *model.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *shipmentRepo) FindAll(ctx context.Context) ([]model.Shipment, error) {
	var shipments []model.Shipment
	err := r.db.WithContext(ctx).Preload("Investments").Order("created_at DESC").Find(&shipments).Error
	return shipments, err
}

func (r *shipmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.db.WithContext(ctx).
		Preload("Investments").
		Preload("Investments.User").
		Preload("Batches").
		First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepo) FindByNumber(ctx context.Context, number string) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := r.db.WithContext(ctx).First(&shipment, "number = ?", number).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepo) InvestmentTotals(tx *gorm.DB, shipmentID uuid.UUID) (*InvestmentTotals, error) {
	var totals InvestmentTotals
	err := tx.Model(&model.ShipmentInvestment{}).
		Select("COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(percentage), 0) AS percentage").
		Where("shipment_id = ?", shipmentID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *shipmentRepo) CreateInvestment(tx *gorm.DB, inv *model.ShipmentInvestment) error {
	return tx.Create(inv).Error
}

func (r *shipmentRepo) MarkReceived(tx *gorm.DB, id uuid.UUID, receivedBy string) error {
	return tx.Model(&model.Shipment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      model.ShipmentReceived,
		"received_at": time.Now(),
		"updated_by":  receivedBy,
	}).Error
}
