package customers

import (
	"context"

	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for customers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Customer, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// List pages through customers in insertion order. The extra buffered row
// tells us whether a next page exists; the cursor points at the last row
// of the returned page.
func (r *repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Customer, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var customers []models.Customer
	if err := query.Order("created_at ASC, id ASC").Limit(pagination.LimitWithBuffer(limit)).Find(&customers).Error; err != nil {
		return nil, nil, err
	}

	if len(customers) > normalized {
		customers = customers[:normalized]
		last := customers[normalized-1]
		return customers, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return customers, nil, nil
}
