package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/armanehsani/zarledger-backend/internal/contracts"
	ledgerpkg "github.com/armanehsani/zarledger-backend/internal/ledger"
	"github.com/armanehsani/zarledger-backend/pkg/db"
	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	apperrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type staticPrices struct {
	price decimal.Decimal
	err   error
}

func (s staticPrices) CurrentPrice(ctx context.Context, karat enums.Karat) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.price, nil
}

func setupPostingDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE contracts (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			karat INTEGER NOT NULL DEFAULT 18,
			initial_weight NUMERIC NOT NULL,
			remaining_weight NUMERIC NOT NULL,
			schedule_type TEXT NOT NULL DEFAULT 'monthly',
			schedule_days INTEGER NOT NULL DEFAULT 0,
			price_ceiling NUMERIC,
			price_floor NUMERIC,
			early_discount NUMERIC NOT NULL DEFAULT 0,
			grace_period_days INTEGER NOT NULL DEFAULT 14,
			status TEXT NOT NULL DEFAULT 'active',
			last_payment_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error)

	require.NoError(t, conn.Exec(`
		CREATE TABLE ledger_entries (
			id TEXT PRIMARY KEY,
			contract_id TEXT NOT NULL,
			actor_user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			amount_toman NUMERIC,
			effective_price NUMERIC,
			weight_delta NUMERIC NOT NULL,
			balance_after NUMERIC NOT NULL,
			adjustment_reason TEXT,
			note TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error)

	t.Cleanup(func() {
		_ = conn.Exec("DROP TABLE IF EXISTS ledger_entries").Error
		_ = conn.Exec("DROP TABLE IF EXISTS contracts").Error
		sqlDB, dbErr := conn.DB()
		if dbErr == nil {
			_ = sqlDB.Close()
		}
	})

	return conn
}

func newPostingService(t *testing.T, conn *gorm.DB, prices PriceProvider) Service {
	t.Helper()

	client := db.NewWithConn(conn)
	contractRepo := contracts.NewRepository(conn)
	ledgerSvc, err := ledgerpkg.NewService(ledgerpkg.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(client, contractRepo, ledgerSvc, prices, nil, nil)
	require.NoError(t, err)
	return svc
}

func seedActiveContract(t *testing.T, conn *gorm.DB, balance string, mutate func(*models.Contract)) *models.Contract {
	t.Helper()

	weight := decimal.RequireFromString(balance)
	contract := &models.Contract{
		ID:              uuid.New(),
		CustomerID:      uuid.New(),
		Karat:           enums.Karat18,
		InitialWeight:   weight,
		RemainingWeight: weight,
		ScheduleType:    enums.ScheduleTypeMonthly,
		ScheduleDays:    30,
		EarlyDiscount:   decimal.Zero,
		GracePeriodDays: 14,
		Status:          enums.ContractStatusActive,
	}
	if mutate != nil {
		mutate(contract)
	}
	require.NoError(t, conn.Create(contract).Error)
	return contract
}

func TestPostPayment_WritesEntryAndBalanceAtomically(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "10.000", nil)

	result, err := svc.PostPayment(context.Background(), PostPaymentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		AmountToman: decimal.NewFromInt(4000000),
	})
	require.NoError(t, err)
	require.True(t, result.Entry.WeightDelta.Equal(decimal.RequireFromString("2.000")))
	require.True(t, result.Entry.BalanceAfter.Equal(decimal.RequireFromString("8.000")))
	require.True(t, result.Contract.RemainingWeight.Equal(decimal.RequireFromString("8.000")))
	require.NotNil(t, result.Contract.LastPaymentAt)

	var stored models.Contract
	require.NoError(t, conn.First(&stored, "id = ?", contract.ID).Error)
	require.True(t, stored.RemainingWeight.Equal(decimal.RequireFromString("8.000")))

	var entries []models.LedgerEntry
	require.NoError(t, conn.Where("contract_id = ?", contract.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, enums.LedgerEntryTypePayment, entries[0].Type)
}

func TestPostPayment_SettlingPaymentCompletesContract(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "2.000", nil)

	result, err := svc.PostPayment(context.Background(), PostPaymentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		AmountToman: decimal.NewFromInt(4000000),
	})
	require.NoError(t, err)
	require.True(t, result.Entry.BalanceAfter.IsZero())
	require.Equal(t, enums.ContractStatusCompleted, result.Contract.Status)

	_, err = svc.PostPayment(context.Background(), PostPaymentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		AmountToman: decimal.NewFromInt(1000000),
	})
	require.Error(t, err, "completed contracts reject further payments")
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.CodeStateConflict, appErr.Code())
}

func TestPostPayment_PriceFailureLeavesNoTrace(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{err: apperrors.New(apperrors.CodeDependency, "feed down")})
	contract := seedActiveContract(t, conn, "10.000", nil)

	_, err := svc.PostPayment(context.Background(), PostPaymentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		AmountToman: decimal.NewFromInt(4000000),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.LedgerEntry{}).Count(&count).Error)
	require.Zero(t, count)

	var stored models.Contract
	require.NoError(t, conn.First(&stored, "id = ?", contract.ID).Error)
	require.True(t, stored.RemainingWeight.Equal(decimal.RequireFromString("10.000")))
}

func TestPostPayment_RejectsBadInput(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "10.000", nil)

	_, err := svc.PostPayment(context.Background(), PostPaymentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		AmountToman: decimal.Zero,
	})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())

	_, err = svc.PostPayment(context.Background(), PostPaymentInput{
		ContractID:  uuid.New(),
		ActorUserID: uuid.New(),
		AmountToman: decimal.NewFromInt(1000000),
	})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code())
}

func TestPostAdjustment_RequiresAuthorizedRole(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "10.000", nil)

	_, err := svc.PostAdjustment(context.Background(), PostAdjustmentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.MemberRoleCashier,
		WeightDelta: decimal.RequireFromString("0.500"),
		Reason:      enums.AdjustmentReasonDispute,
	})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeForbidden, apperrors.As(err).Code())
}

func TestPostAdjustment_AppliesSignedDelta(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "10.000", nil)

	result, err := svc.PostAdjustment(context.Background(), PostAdjustmentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.MemberRoleManager,
		WeightDelta: decimal.RequireFromString("-0.250"),
		Reason:      enums.AdjustmentReasonWeightRecheck,
	})
	require.NoError(t, err)
	require.True(t, result.Contract.RemainingWeight.Equal(decimal.RequireFromString("10.250")))
	require.NotNil(t, result.Entry.AdjustmentReason)
	require.Equal(t, enums.AdjustmentReasonWeightRecheck, *result.Entry.AdjustmentReason)
	require.Nil(t, result.Contract.LastPaymentAt, "adjustments do not count as payments")
}

func TestPostAdjustment_SettlementZeroesNegativeBalance(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "10.000", func(c *models.Contract) {
		c.RemainingWeight = decimal.RequireFromString("-3.000")
	})

	result, err := svc.PostAdjustment(context.Background(), PostAdjustmentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.MemberRoleOwner,
		WeightDelta: decimal.RequireFromString("-3.000"),
		Reason:      enums.AdjustmentReasonSettlement,
	})
	require.NoError(t, err)
	require.True(t, result.Contract.RemainingWeight.IsZero())
	require.Equal(t, enums.ContractStatusCompleted, result.Contract.Status)
}

func TestPostAdjustment_RejectsZeroDelta(t *testing.T) {
	conn := setupPostingDB(t)
	svc := newPostingService(t, conn, staticPrices{price: decimal.NewFromInt(2000000)})
	contract := seedActiveContract(t, conn, "10.000", nil)

	_, err := svc.PostAdjustment(context.Background(), PostAdjustmentInput{
		ContractID:  contract.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.MemberRoleManager,
		WeightDelta: decimal.Zero,
		Reason:      enums.AdjustmentReasonEntryError,
	})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestWithConflictRetry_RetriesThenReportsConflict(t *testing.T) {
	svc := &service{}
	calls := 0

	err := svc.withConflictRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
	})

	require.Equal(t, 2, calls)
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.CodeConflict, appErr.Code())
}

func TestWithConflictRetry_RecoversAfterSingleConflict(t *testing.T) {
	svc := &service{}
	calls := 0

	err := svc.withConflictRetry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
		}
		return nil
	})

	require.Equal(t, 2, calls)
	require.NoError(t, err)
}

func TestWithConflictRetry_PassesThroughOtherErrors(t *testing.T) {
	svc := &service{}
	calls := 0
	boom := errors.New("column does not exist")

	err := svc.withConflictRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})

	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, boom)
	require.Nil(t, apperrors.As(err))
}
