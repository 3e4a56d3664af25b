package goldprice

import (
	"context"
	"time"

	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists the sampled price history.
type Repository interface {
	Create(ctx context.Context, price *models.GoldPrice) error
	Latest(ctx context.Context, karat int) (*models.GoldPrice, error)
	ListSince(ctx context.Context, karat int, since time.Time) ([]models.GoldPrice, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a price history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, price *models.GoldPrice) error {
	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *repository) Latest(ctx context.Context, karat int) (*models.GoldPrice, error) {
	var price models.GoldPrice
	if err := r.db.WithContext(ctx).
		Where("karat = ?", karat).
		Order("sampled_at DESC").
		First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *repository) ListSince(ctx context.Context, karat int, since time.Time) ([]models.GoldPrice, error) {
	var prices []models.GoldPrice
	if err := r.db.WithContext(ctx).
		Where("karat = ? AND sampled_at >= ?", karat, since).
		Order("sampled_at ASC").
		Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}
