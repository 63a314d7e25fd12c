package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/treasury"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCashEntryRepository implements treasury.CashEntryRepository using GORM
type GormCashEntryRepository struct {
	db *gorm.DB
}

// NewGormCashEntryRepository creates a new GORM cash entry repository
func NewGormCashEntryRepository(db *gorm.DB) *GormCashEntryRepository {
	return &GormCashEntryRepository{db: db}
}

// FindByID finds a cash entry by ID
func (r *GormCashEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.CashEntry, error) {
	var model models.CashEntryModel
	err := dbFrom(ctx, r.db).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindWarehouseEntryByOrder finds the warehouse entry for an order
func (r *GormCashEntryRepository) FindWarehouseEntryByOrder(ctx context.Context, orderID uuid.UUID) (*treasury.CashEntry, error) {
	var model models.CashEntryModel
	err := dbFrom(ctx, r.db).
		First(&model, "order_id = ? AND source = ?", orderID, treasury.SourceWarehouse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CreateIfAbsent inserts the entry unless the order already has a
// warehouse entry. Returns false when the existing entry won.
func (r *GormCashEntryRepository) CreateIfAbsent(ctx context.Context, entry *treasury.CashEntry) (bool, error) {
	created := false
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.CashEntryModel{}).
			Where("order_id = ? AND source = ?", entry.OrderID, entry.Source).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		var model models.CashEntryModel
		model.FromDomain(entry)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Save creates or updates a cash entry
func (r *GormCashEntryRepository) Save(ctx context.Context, entry *treasury.CashEntry) error {
	var model models.CashEntryModel
	model.FromDomain(entry)
	return dbFrom(ctx, r.db).Save(&model).Error
}

// FindPendingWarehouse returns not yet accepted warehouse entries,
// newest first
func (r *GormCashEntryRepository) FindPendingWarehouse(ctx context.Context, limit int) ([]treasury.CashEntry, error) {
	var rows []models.CashEntryModel
	query := dbFrom(ctx, r.db).
		Where("source = ? AND status = ?", treasury.SourceWarehouse, treasury.EntryStatusPending).
		Order("registered_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(rows), nil
}

// FindAcceptedWarehouseByDate returns the accepted warehouse entries of
// one calendar day
func (r *GormCashEntryRepository) FindAcceptedWarehouseByDate(ctx context.Context, date time.Time) ([]treasury.CashEntry, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var rows []models.CashEntryModel
	err := dbFrom(ctx, r.db).
		Where("source = ? AND status = ? AND accepted_at >= ? AND accepted_at < ?",
			treasury.SourceWarehouse, treasury.EntryStatusCollected, dayStart, dayEnd).
		Order("accepted_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainEntries(rows), nil
}

// AcceptedWarehouseDays groups accepted warehouse entries per day,
// newest day first
func (r *GormCashEntryRepository) AcceptedWarehouseDays(ctx context.Context) ([]treasury.DailyConsolidation, error) {
	type dayRow struct {
		Day            time.Time
		ExpectedAmount decimal.Decimal
		DeclaredAmount decimal.Decimal
		TotalCount     int
	}

	var rows []dayRow
	err := dbFrom(ctx, r.db).
		Model(&models.CashEntryModel{}).
		Select("DATE(accepted_at) AS day, SUM(amount) AS expected_amount, SUM(accepted_amount) AS declared_amount, COUNT(*) AS total_count").
		Where("source = ? AND status = ?", treasury.SourceWarehouse, treasury.EntryStatusCollected).
		Group("DATE(accepted_at)").
		Order("day DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	days := make([]treasury.DailyConsolidation, len(rows))
	for i, row := range rows {
		days[i] = treasury.DailyConsolidation{
			Date:           row.Day,
			ExpectedAmount: row.ExpectedAmount,
			DeclaredAmount: row.DeclaredAmount,
			TotalCount:     row.TotalCount,
			// Grouped rows only cover accepted entries
			CollectedCount: row.TotalCount,
		}
	}
	return days, nil
}

func toDomainEntries(rows []models.CashEntryModel) []treasury.CashEntry {
	entries := make([]treasury.CashEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries
}
