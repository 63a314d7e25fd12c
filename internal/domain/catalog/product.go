package catalog

import (
	"context"
	"strings"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the minimal catalog entry barcode scans resolve against
type Product struct {
	shared.BaseEntity
	Name    string
	Barcode string `gorm:"uniqueIndex"`
	Price   decimal.Decimal
}

// NewProduct creates a product with a scannable barcode
func NewProduct(name, barcode string, price decimal.Decimal) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if strings.TrimSpace(barcode) == "" {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Product barcode cannot be empty")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Barcode:    strings.TrimSpace(barcode),
		Price:      price,
	}, nil
}

// ProductRepository resolves products for barcode scanning
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	Save(ctx context.Context, product *Product) error
}
