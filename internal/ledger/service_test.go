package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.LedgerEntry) error
	entries  []models.LedgerEntry
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByContractID(ctx context.Context, contractID uuid.UUID) ([]models.LedgerEntry, error) {
	return f.entries, nil
}

func (f *fakeRepository) SumDeltas(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range f.entries {
		total = total.Add(e.WeightDelta)
	}
	return total, nil
}

func TestService_AppendPayment(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	amount := decimal.NewFromInt(4000000)
	price := decimal.NewFromInt(2000000)
	input := AppendEntryInput{
		ContractID:     uuid.New(),
		ActorUserID:    uuid.New(),
		Type:           enums.LedgerEntryTypePayment,
		AmountToman:    &amount,
		EffectivePrice: &price,
		WeightDelta:    decimal.RequireFromString("2.000"),
		BalanceAfter:   decimal.RequireFromString("8.000"),
	}

	var created *models.LedgerEntry
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	got, err := svc.Append(context.Background(), input)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if created == nil {
		t.Fatal("expected ledger entry to be created")
	}
	if created.ContractID != input.ContractID || created.Type != input.Type {
		t.Fatalf("unexpected ledger entry data: %+v", created)
	}
	if !created.WeightDelta.Equal(input.WeightDelta) || !created.BalanceAfter.Equal(input.BalanceAfter) {
		t.Fatalf("weight fields mismatch: %+v", created)
	}
	if created.AmountToman == nil || !created.AmountToman.Equal(amount) {
		t.Fatalf("amount mismatch: %+v", created.AmountToman)
	}
	if got != created {
		t.Fatal("service should return created entry")
	}
}

func TestService_AppendValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	amount := decimal.NewFromInt(1000000)
	price := decimal.NewFromInt(2000000)
	reason := enums.AdjustmentReasonDispute
	badReason := enums.AdjustmentReason("vibes")

	valid := AppendEntryInput{
		ContractID:     uuid.New(),
		ActorUserID:    uuid.New(),
		Type:           enums.LedgerEntryTypePayment,
		AmountToman:    &amount,
		EffectivePrice: &price,
	}

	cases := []struct {
		name   string
		mutate func(in AppendEntryInput) AppendEntryInput
	}{
		{"missing contract", func(in AppendEntryInput) AppendEntryInput { in.ContractID = uuid.Nil; return in }},
		{"missing actor", func(in AppendEntryInput) AppendEntryInput { in.ActorUserID = uuid.Nil; return in }},
		{"invalid type", func(in AppendEntryInput) AppendEntryInput { in.Type = "transfer"; return in }},
		{"payment without amount", func(in AppendEntryInput) AppendEntryInput { in.AmountToman = nil; return in }},
		{"payment without price", func(in AppendEntryInput) AppendEntryInput { in.EffectivePrice = nil; return in }},
		{"adjustment without reason", func(in AppendEntryInput) AppendEntryInput {
			in.Type = enums.LedgerEntryTypeAdjustment
			in.AdjustmentReason = nil
			return in
		}},
		{"adjustment with bad reason", func(in AppendEntryInput) AppendEntryInput {
			in.Type = enums.LedgerEntryTypeAdjustment
			in.AdjustmentReason = &badReason
			return in
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Append(context.Background(), tc.mutate(valid)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	good := valid
	good.Type = enums.LedgerEntryTypeAdjustment
	good.AdjustmentReason = &reason
	if _, err := svc.Append(context.Background(), good); err != nil {
		t.Fatalf("adjustment with reason should pass: %v", err)
	}
}

func TestService_AppendRepositoryError(t *testing.T) {
	repo := &fakeRepository{createFn: func(ctx context.Context, entry *models.LedgerEntry) error {
		return errors.New("insert failed")
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	amount := decimal.NewFromInt(1000000)
	price := decimal.NewFromInt(2000000)
	_, err = svc.Append(context.Background(), AppendEntryInput{
		ContractID:     uuid.New(),
		ActorUserID:    uuid.New(),
		Type:           enums.LedgerEntryTypePayment,
		AmountToman:    &amount,
		EffectivePrice: &price,
	})
	if err == nil {
		t.Fatal("expected repository error to surface")
	}
}

func TestService_NetDelta(t *testing.T) {
	repo := &fakeRepository{entries: []models.LedgerEntry{
		{WeightDelta: decimal.RequireFromString("2.000")},
		{WeightDelta: decimal.RequireFromString("-0.500")},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	total, err := svc.NetDelta(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("NetDelta error: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("1.500")) {
		t.Fatalf("unexpected net delta %s", total)
	}
}
