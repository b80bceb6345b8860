package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/internal/catalog"
	"github.com/movakid/shop-backend/internal/customers"
	"github.com/movakid/shop-backend/internal/orders"
	"github.com/movakid/shop-backend/pkg/db/models"
)

// CatalogInventory adapts the catalog repository to the checkout
// inventory surface, rebinding onto the checkout transaction.
type CatalogInventory struct {
	Repo *catalog.Repository
}

func (a CatalogInventory) bound(tx *gorm.DB) *catalog.Repository {
	if tx == nil {
		return a.Repo
	}
	return a.Repo.WithTx(tx)
}

func (a CatalogInventory) LoadProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	return a.bound(tx).FindByID(ctx, id)
}

func (a CatalogInventory) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error {
	return a.bound(tx).DecrementStock(ctx, id, qty)
}

// CustomerUpserter adapts the customer repository to the checkout
// transaction boundary.
type CustomerUpserter struct {
	Repo *customers.Repository
}

func (a CustomerUpserter) UpsertByEmail(ctx context.Context, tx *gorm.DB, customer *models.Customer) (*models.Customer, error) {
	repo := a.Repo
	if tx != nil {
		repo = a.Repo.WithTx(tx)
	}
	return repo.UpsertByEmail(ctx, customer)
}

// OrderCreator wraps order inserts in a savepoint so an order-number
// collision can be retried without aborting the enclosing transaction.
type OrderCreator struct {
	Repo orders.Repository
}

const createOrderSavepoint = "create_order"

func (a OrderCreator) Create(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error) {
	if tx == nil {
		return a.Repo.Create(ctx, order)
	}
	if err := tx.SavePoint(createOrderSavepoint).Error; err != nil {
		return nil, err
	}
	created, err := a.Repo.WithTx(tx).Create(ctx, order)
	if err != nil {
		if rbErr := tx.RollbackTo(createOrderSavepoint).Error; rbErr != nil {
			return nil, rbErr
		}
		return nil, err
	}
	return created, nil
}
