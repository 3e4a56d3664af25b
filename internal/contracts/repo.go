package contracts

import (
	"context"
	"time"

	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	"github.com/armanehsani/zarledger-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for installment contracts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, contract *models.Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	List(ctx context.Context, filter ListFilter) ([]models.Contract, *pagination.Cursor, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, remaining decimal.Decimal, lastPaymentAt *time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ContractStatus) error
	ListOverdue(ctx context.Context, cutoff time.Time) ([]models.Contract, error)
}

// ListFilter narrows contract listings.
type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *enums.ContractStatus
	Limit      int
	Cursor     *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a contract repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, contract *models.Contract) error {
	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindForUpdate locks the contract row for the duration of the surrounding
// transaction. SQLite has no FOR UPDATE, so the clause is Postgres-only.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var contract models.Contract
	if err := query.First(&contract, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// List pages through contracts in creation order. The cursor points at the
// last row of the returned page.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Contract, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(filter.Limit)
	query := r.db.WithContext(ctx).Model(&models.Contract{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	var contracts []models.Contract
	if err := query.Order("created_at ASC, id ASC").Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&contracts).Error; err != nil {
		return nil, nil, err
	}
	if len(contracts) > normalized {
		contracts = contracts[:normalized]
		last := contracts[normalized-1]
		return contracts, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return contracts, nil, nil
}

func (r *repository) UpdateBalance(ctx context.Context, id uuid.UUID, remaining decimal.Decimal, lastPaymentAt *time.Time) error {
	updates := map[string]any{
		"remaining_weight": remaining,
		"updated_at":       time.Now().UTC(),
	}
	if lastPaymentAt != nil {
		updates["last_payment_at"] = *lastPaymentAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ContractStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOverdue returns active contracts whose last activity predates the
// cutoff minus each contract's own grace period.
func (r *repository) ListOverdue(ctx context.Context, cutoff time.Time) ([]models.Contract, error) {
	var contracts []models.Contract
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.ContractStatusActive).
		Where("remaining_weight > 0").
		Where("COALESCE(last_payment_at, created_at) < ?", cutoff).
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}
