package persistence

import (
	"context"
	"testing"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.ProductModel{})
	require.NoError(t, err)

	return db
}

func TestGormProductRepository_SaveAndFind(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("saves and reloads a product", func(t *testing.T) {
		product, err := catalog.NewProduct("Crema facial", "7701234567890", decimal.NewFromInt(16500))
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, product))

		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
		assert.Equal(t, "Crema facial", found.Name)
		assert.Equal(t, "7701234567890", found.Barcode)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(16500)))
	})

	t.Run("updates an existing product on save", func(t *testing.T) {
		product, err := catalog.NewProduct("Shampoo", "7709999000011", decimal.NewFromInt(22000))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, product))

		product.Price = decimal.NewFromInt(24500)
		require.NoError(t, repo.Save(ctx, product))

		found, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(24500)))
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		assert.Nil(t, found)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindByBarcode(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product, err := catalog.NewProduct("Jabon artesanal", "7705555000022", decimal.NewFromInt(8000))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, product))

	t.Run("resolves a scanned barcode", func(t *testing.T) {
		found, err := repo.FindByBarcode(ctx, "7705555000022")
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
	})

	t.Run("trims scanner whitespace", func(t *testing.T) {
		found, err := repo.FindByBarcode(ctx, "  7705555000022\n")
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
	})

	t.Run("returns not found for unknown barcode", func(t *testing.T) {
		found, err := repo.FindByBarcode(ctx, "0000000000000")
		assert.Nil(t, found)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
