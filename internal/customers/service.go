package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/armanehsani/zarledger-backend/pkg/db"
	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	apperrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the customer directory used by contracts.
type Service interface {
	Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
}

// ListResult wraps a page of customers and the cursor for the next page.
type ListResult struct {
	Items  []models.Customer `json:"items"`
	Cursor string            `json:"cursor"`
}

// CreateCustomerInput carries the fields a new customer record requires.
type CreateCustomerInput struct {
	FullName   string  `json:"full_name" validate:"required,min=2,max=160"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	NationalID *string `json:"national_id,omitempty" validate:"omitempty,len=10"`
}

type service struct {
	repo Repository
}

// NewService wires a customer service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "customer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "full name is required")
	}

	customer := &models.Customer{
		FullName:   name,
		Phone:      input.Phone,
		NationalID: input.NationalID,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "customer with this phone or national id already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create customer")
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "customer not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	customers, next, err := s.repo.List(ctx, params.Limit, cursor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list customers")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: customers, Cursor: encoded}, nil
}
