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

// GormHandoverRepository implements treasury.HandoverRepository using GORM
type GormHandoverRepository struct {
	db *gorm.DB
}

// NewGormHandoverRepository creates a new GORM handover repository
func NewGormHandoverRepository(db *gorm.DB) *GormHandoverRepository {
	return &GormHandoverRepository{db: db}
}

// FindActByID finds a handover act by ID
func (r *GormHandoverRepository) FindActByID(ctx context.Context, id uuid.UUID) (*treasury.HandoverAct, error) {
	var model models.HandoverActModel
	err := dbFrom(ctx, r.db).
		Preload("Details").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActs returns all handover acts, newest closing date first
func (r *GormHandoverRepository) FindActs(ctx context.Context) ([]treasury.HandoverAct, error) {
	var rows []models.HandoverActModel
	err := dbFrom(ctx, r.db).
		Preload("Details").
		Order("closing_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	acts := make([]treasury.HandoverAct, len(rows))
	for i := range rows {
		acts[i] = *rows[i].ToDomain()
	}
	return acts, nil
}

// FindOpenActForMessenger finds the open act of a messenger for one
// closing date
func (r *GormHandoverRepository) FindOpenActForMessenger(ctx context.Context, messengerID uuid.UUID, closingDate time.Time) (*treasury.HandoverAct, error) {
	dayStart := time.Date(closingDate.Year(), closingDate.Month(), closingDate.Day(), 0, 0, 0, 0, closingDate.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var model models.HandoverActModel
	err := dbFrom(ctx, r.db).
		Preload("Details").
		Where("messenger_id = ? AND status = ? AND closing_date >= ? AND closing_date < ?",
			messengerID, treasury.ActStatusOpen, dayStart, dayEnd).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenActByOrder finds the open act holding a detail row for the
// order
func (r *GormHandoverRepository) FindOpenActByOrder(ctx context.Context, orderID uuid.UUID) (*treasury.HandoverAct, error) {
	var model models.HandoverActModel
	err := dbFrom(ctx, r.db).
		Preload("Details").
		Where("status = ?", treasury.ActStatusOpen).
		Where("id IN (?)",
			dbFrom(ctx, r.db).
				Model(&models.HandoverDetailModel{}).
				Select("act_id").
				Where("order_id = ?", orderID)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a handover act together with its details
func (r *GormHandoverRepository) Save(ctx context.Context, act *treasury.HandoverAct) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model models.HandoverActModel
		model.FromDomain(act)
		details := model.Details
		model.Details = nil

		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		return r.saveDetails(tx, act.ID, details)
	})
}

// SaveWithLock updates an act using optimistic locking and saves its
// details in the same transaction
func (r *GormHandoverRepository) SaveWithLock(ctx context.Context, act *treasury.HandoverAct) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		err := tx.Model(&models.HandoverActModel{}).
			Where("id = ?", act.ID).
			Select("version").
			Scan(&currentVersion).Error
		if err != nil {
			return err
		}

		// A fresh act has no persisted row yet. The partial unique
		// index on open acts per messenger and closing date turns a
		// racing first insert into a duplicate key error.
		if currentVersion == 0 {
			var model models.HandoverActModel
			model.FromDomain(act)
			details := model.Details
			model.Details = nil
			if err := tx.Save(&model).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.NewDomainError("CONCURRENT_MODIFICATION", "The courier already has an open handover act for this closing date")
				}
				return err
			}
			return r.saveDetails(tx, act.ID, details)
		}

		if currentVersion != act.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The handover act has been modified by another user")
		}

		act.Version++
		act.UpdatedAt = time.Now()

		result := tx.Model(&models.HandoverActModel{}).
			Where("id = ? AND version = ?", act.ID, currentVersion).
			Updates(map[string]interface{}{
				"expected_amount": act.ExpectedAmount,
				"declared_amount": act.DeclaredAmount,
				"difference":      act.Difference,
				"status":          act.Status,
				"approved_by":     act.ApprovedBy,
				"closed_at":       act.ClosedAt,
				"version":         act.Version,
				"updated_at":      act.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The handover act has been modified by another user")
		}

		var model models.HandoverActModel
		model.FromDomain(act)
		return r.saveDetails(tx, act.ID, model.Details)
	})
}

func (r *GormHandoverRepository) saveDetails(tx *gorm.DB, actID uuid.UUID, details []models.HandoverDetailModel) error {
	for i := range details {
		details[i].ActID = actID
		if err := tx.Save(&details[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// PendingCourierCollections returns delivered orders with money in the
// courier's hands that no collected handover detail covers yet
func (r *GormHandoverRepository) PendingCourierCollections(ctx context.Context, limit int) ([]treasury.PendingCashItem, error) {
	type pendingRow struct {
		ID                   uuid.UUID
		OrderNumber          string
		AssignedMessengerID  *uuid.UUID
		CollectedAmount      decimal.Decimal
		DeliveryFeeCollected decimal.Decimal
		DeliveredAt          time.Time
	}

	var rows []pendingRow
	query := dbFrom(ctx, r.db).
		Model(&models.OrderModel{}).
		Select("orders.id, orders.order_number, orders.assigned_messenger_id, orders.collected_amount, orders.delivery_fee_collected, orders.delivered_at").
		Where("orders.delivered_at IS NOT NULL").
		Where("orders.assigned_messenger_id IS NOT NULL").
		Where("orders.collected_amount > 0 OR orders.delivery_fee_collected > 0").
		Where("orders.id NOT IN (?)",
			dbFrom(ctx, r.db).
				Model(&models.HandoverDetailModel{}).
				Select("order_id").
				Where("status = ?", treasury.EntryStatusCollected)).
		Order("orders.delivered_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]treasury.PendingCashItem, len(rows))
	for i, row := range rows {
		items[i] = treasury.PendingCashItem{
			Kind:        treasury.ActKindMessenger,
			OrderID:     row.ID,
			OrderNumber: row.OrderNumber,
			MessengerID: row.AssignedMessengerID,
			Amount:      row.CollectedAmount,
			DeliveryFee: row.DeliveryFeeCollected,
			CollectedAt: row.DeliveredAt,
		}
	}
	return items, nil
}
