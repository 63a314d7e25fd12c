package models

import (
	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog products
type ProductModel struct {
	BaseModel
	Name    string          `gorm:"type:varchar(200);not null;index"`
	Barcode string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Price   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Barcode:    m.Barcode,
		Price:      m.Price,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Name = p.Name
	m.Barcode = p.Barcode
	m.Price = p.Price
}
