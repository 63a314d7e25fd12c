package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fulfillment/backend/internal/domain/packaging"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVerificationRepository implements packaging.VerificationRepository
// using GORM
type GormVerificationRepository struct {
	db *gorm.DB
}

// NewGormVerificationRepository creates a new GORM verification repository
func NewGormVerificationRepository(db *gorm.DB) *GormVerificationRepository {
	return &GormVerificationRepository{db: db}
}

// FindByOrderItem finds the verification row for an order line
func (r *GormVerificationRepository) FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*packaging.Verification, error) {
	var model models.VerificationModel
	err := dbFrom(ctx, r.db).First(&model, "order_item_id = ?", orderItemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds all verification rows for an order
func (r *GormVerificationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]packaging.Verification, error) {
	var rows []models.VerificationModel
	err := dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	verifications := make([]packaging.Verification, len(rows))
	for i := range rows {
		verifications[i] = *rows[i].ToDomain()
	}
	return verifications, nil
}

// Save creates or updates a verification row
func (r *GormVerificationRepository) Save(ctx context.Context, v *packaging.Verification) error {
	var model models.VerificationModel
	model.FromDomain(v)
	return dbFrom(ctx, r.db).Save(&model).Error
}

// IncrementScan atomically increments the scan counter while it is below
// required_scans and appends the scan event, all in one transaction. A
// completed line yields Applied=false and no scan event.
func (r *GormVerificationRepository) IncrementScan(ctx context.Context, v *packaging.Verification, barcode string) (*packaging.ScanResult, error) {
	result := &packaging.ScanResult{}

	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		// Ensure the row exists; a concurrent first scan wins silently
		var model models.VerificationModel
		model.FromDomain(v)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_item_id"}},
			DoNothing: true,
		}).Create(&model).Error; err != nil {
			return err
		}

		// Guarded increment: never moves past required_scans
		now := time.Now()
		update := tx.Model(&models.VerificationModel{}).
			Where("order_item_id = ? AND scanned_count < required_scans", v.OrderItemID).
			Updates(map[string]interface{}{
				"scanned_count": gorm.Expr("scanned_count + 1"),
				"is_verified":   gorm.Expr("scanned_count + 1 >= required_scans"),
				"updated_at":    now,
			})
		if update.Error != nil {
			return update.Error
		}

		var current models.VerificationModel
		if err := tx.First(&current, "order_item_id = ?", v.OrderItemID).Error; err != nil {
			return err
		}

		result.Applied = update.RowsAffected > 0
		result.ScannedCount = current.ScannedCount
		result.RequiredScans = current.RequiredScans

		if !result.Applied {
			return nil
		}

		if current.IsVerified && current.VerifiedAt == nil {
			result.NowVerified = true
			if err := tx.Model(&models.VerificationModel{}).
				Where("order_item_id = ?", v.OrderItemID).
				Update("verified_at", now).Error; err != nil {
				return err
			}
			verifiedAt := now
			current.VerifiedAt = &verifiedAt
		}

		var lastSequence int
		err := tx.Model(&models.ScanEventModel{}).
			Where("order_item_id = ?", v.OrderItemID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&lastSequence).Error
		if err != nil {
			return err
		}
		result.Sequence = lastSequence + 1

		event := packaging.NewScanEvent(v.OrderID, v.OrderItemID, barcode, result.Sequence)
		var eventModel models.ScanEventModel
		eventModel.FromDomain(event)
		if err := tx.Create(&eventModel).Error; err != nil {
			return err
		}

		*v = *current.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkAllVerified upserts a verified row for every given order item in
// one transaction, returning how many lines were newly verified
func (r *GormVerificationRepository) MarkAllVerified(ctx context.Context, orderID uuid.UUID, orderItemIDs []uuid.UUID, requiredScans map[uuid.UUID]int) (int, error) {
	touched := 0
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, itemID := range orderItemIDs {
			var existing models.VerificationModel
			err := tx.First(&existing, "order_item_id = ?", itemID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				required := requiredScans[itemID]
				verification, verr := packaging.NewVerification(orderID, itemID, required)
				if verr != nil {
					return verr
				}
				verification.MarkVerified()

				var model models.VerificationModel
				model.FromDomain(verification)
				if err := tx.Create(&model).Error; err != nil {
					return err
				}
				touched++
			case err != nil:
				return err
			case !existing.IsVerified:
				update := tx.Model(&models.VerificationModel{}).
					Where("order_item_id = ? AND is_verified = ?", itemID, false).
					Updates(map[string]interface{}{
						"scanned_count": gorm.Expr("required_scans"),
						"is_verified":   true,
						"verified_at":   now,
						"updated_at":    now,
					})
				if update.Error != nil {
					return update.Error
				}
				touched += int(update.RowsAffected)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return touched, nil
}

// CountVerified returns verified and total counts over the given item
// set; items without a row count as unverified
func (r *GormVerificationRepository) CountVerified(ctx context.Context, orderID uuid.UUID, orderItemIDs []uuid.UUID) (int, int, error) {
	if len(orderItemIDs) == 0 {
		return 0, 0, nil
	}

	var count int64
	err := dbFrom(ctx, r.db).
		Model(&models.VerificationModel{}).
		Where("order_id = ? AND order_item_id IN ? AND is_verified = ?", orderID, orderItemIDs, true).
		Count(&count).Error
	if err != nil {
		return 0, 0, err
	}
	return int(count), len(orderItemIDs), nil
}

// ScanEventsByItem returns the scan log for an order line in scan order
func (r *GormVerificationRepository) ScanEventsByItem(ctx context.Context, orderItemID uuid.UUID) ([]packaging.ScanEvent, error) {
	var rows []models.ScanEventModel
	err := dbFrom(ctx, r.db).
		Where("order_item_id = ?", orderItemID).
		Order("sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	events := make([]packaging.ScanEvent, len(rows))
	for i := range rows {
		events[i] = *rows[i].ToDomain()
	}
	return events, nil
}

// ResetForOrder deletes the verification rows for an order. The scan
// event log is kept as audit history.
func (r *GormVerificationRepository) ResetForOrder(ctx context.Context, orderID uuid.UUID) error {
	return dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		Delete(&models.VerificationModel{}).Error
}
