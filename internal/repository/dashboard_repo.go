package repository

import (
	"context"
	"time"

	"greencycle/internal/model"

	"gorm.io/gorm"
)

// lowStockPercent flags a batch once it falls to this share of what was bought
const lowStockPercent = 10

type DashboardRepository interface {
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// StockMovementData is one day of outgoing stock for charts
type StockMovementData struct {
	Date       string `json:"date"`
	Sold       int    `json:"sold"`
	WrittenOff int    `json:"written_off"`
}

type DashboardStats struct {
	BatchesInStock int64 `json:"batches_in_stock"`
	LowStockCount  int64 `json:"low_stock_count"`
	PendingSales   int64 `json:"pending_sales"`
	OpenShipments  int64 `json:"open_shipments"`
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	results := []StockMovementData{}

	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT TO_CHAR(day, 'YYYY-MM-DD') AS date,
		       COALESCE(SUM(sold), 0) AS sold,
		       COALESCE(SUM(written_off), 0) AS written_off
		FROM (
			SELECT DATE(s.completed_at) AS day, si.quantity AS sold, 0 AS written_off
			FROM sale_items si
			JOIN sales s ON s.id = si.sale_id
			WHERE s.status = ? AND s.deleted_at IS NULL AND si.deleted_at IS NULL
			  AND s.completed_at BETWEEN ? AND ?
			UNION ALL
			SELECT DATE(w.created_at), 0, w.quantity
			FROM write_offs w
			WHERE w.deleted_at IS NULL AND w.created_at BETWEEN ? AND ?
		) movement
		GROUP BY day
		ORDER BY day ASC`,
		model.SaleCompleted, startDate, endDate, startDate, endDate,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Sold, &data.WrittenOff); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *dashboardRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Batch{}).Where("quantity_current > 0").Count(&stats.BatchesInStock).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Batch{}).
		Where("quantity_current > 0 AND quantity_current * 100 <= quantity_initial * ?", lowStockPercent).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Sale{}).Where("status = ?", model.SalePending).Count(&stats.PendingSales).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Shipment{}).Where("status <> ?", model.ShipmentReceived).Count(&stats.OpenShipments).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
