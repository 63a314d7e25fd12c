package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulfillment/backend/internal/domain/fulfillment"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements fulfillment.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	var model models.OrderModel
	err := dbFrom(ctx, r.db).
		Preload("Items").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	var model models.OrderModel
	err := dbFrom(ctx, r.db).
		Preload("Items").
		First(&model, "order_number = ?", orderNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByItemID resolves the order that owns the given line
func (r *GormOrderRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*fulfillment.Order, error) {
	var item models.OrderItemModel
	err := dbFrom(ctx, r.db).First(&item, "id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, item.OrderID)
}

// FindAll finds orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	var rows []models.OrderModel
	query := r.applyFilter(
		dbFrom(ctx, r.db).Model(&models.OrderModel{}).Preload("Items"),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]fulfillment.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		dbFrom(ctx, r.db).Model(&models.OrderModel{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model models.OrderModel
		model.FromDomain(order)
		items := model.Items
		model.Items = nil

		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		return r.saveItems(tx, order.ID, items)
	})
}

// SaveWithLock updates an order using optimistic locking and replaces
// the item set in the same transaction
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *fulfillment.Order) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		err := tx.Model(&models.OrderModel{}).
			Where("id = ?", order.ID).
			Select("version").
			Scan(&currentVersion).Error
		if err != nil {
			return err
		}

		if currentVersion != order.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}

		order.Version++
		order.UpdatedAt = time.Now()

		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"customer_name":          order.CustomerName,
				"customer_phone":         order.CustomerPhone,
				"customer_address":       order.CustomerAddress,
				"customer_city":          order.CustomerCity,
				"status":                 order.Status,
				"payment_method":         order.PaymentMethod,
				"delivery_method":        order.DeliveryMethod,
				"carrier_code":           order.CarrierCode,
				"total_amount":           order.TotalAmount,
				"assigned_messenger_id":  order.AssignedMessengerID,
				"shipping_date":          order.ShippingDate,
				"shipping_date_locked":   order.ShippingDateLocked,
				"cartera_rejected":       order.CarteraRejected,
				"cartera_notes":          order.CarteraNotes,
				"collected_amount":       order.CollectedAmount,
				"delivery_fee_collected": order.DeliveryFeeCollected,
				"invoice_ref":            order.InvoiceRef,
				"delivered_at":           order.DeliveredAt,
				"cancelled_at":           order.CancelledAt,
				"version":                order.Version,
				"updated_at":             order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}

		var model models.OrderModel
		model.FromDomain(order)
		return r.saveItems(tx, order.ID, model.Items)
	})
}

// saveItems replaces the persisted item set with the current one,
// deleting any lines that no longer exist on the aggregate
func (r *GormOrderRepository) saveItems(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItemModel) error {
	currentItemIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", orderID, currentItemIDs).
			Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", orderID).
			Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
	}

	for i := range items {
		items[i].OrderID = orderID
		if err := tx.Save(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete hides the order from every query and writes the audit
// entry in the same transaction
func (r *GormOrderRepository) SoftDelete(ctx context.Context, id uuid.UUID, audit *fulfillment.OrderAuditEntry) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		var auditModel models.OrderAuditModel
		auditModel.FromDomain(audit)
		return tx.Create(&auditModel).Error
	})
}

// GenerateOrderNumber generates the next sequential order number.
// Format: PED-YYYY-NNNNN (e.g., PED-2026-00001)
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("PED-%d-", year)

	var lastOrder models.OrderModel
	err := dbFrom(ctx, r.db).
		Unscoped().
		Model(&models.OrderModel{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR customer_name ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "status_in":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "assigned_messenger_id":
			query = query.Where("assigned_messenger_id = ?", value)
		case "delivery_method":
			query = query.Where("delivery_method = ?", value)
		case "shipping_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("shipping_date = ?", t)
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}
