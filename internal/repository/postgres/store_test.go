package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	purchaseCols   = []string{"id", "user_id", "product_id", "product_name", "amount", "status", "payment_proof", "verified_by", "verified_at", "created_at"}
	withdrawalCols = []string{"id", "user_id", "amount", "bank_name", "account_number", "account_name", "status", "admin_note", "processed_by", "processed_at", "created_at"}
	accountCols    = []string{"id", "name", "phone_number", "email", "role", "health_type", "referral_code", "referred_by_id",
		"total_referrals", "commission_pending", "commission_withdrawn", "total_commission", "total_purchases",
		"challenge_enrolled", "challenge_start_date", "current_challenge_day", "is_active", "created_at", "updated_at"}
)

var ts = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func TestReviewPurchase_Transitions(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	id, admin := uuid.New(), uuid.New()
	review := domain.PurchaseReview{Status: domain.PurchaseStatusVerified, VerifiedBy: admin, VerifiedAt: ts}

	mock.ExpectQuery(q("WHERE id = $1 AND status = 'pending'")).
		WithArgs(id, "verified", admin, ts).
		WillReturnRows(pgxmock.NewRows(purchaseCols).AddRow(
			id, uuid.New(), "challenge-30", "30 Day Challenge", decimal.NewFromInt(1000), "verified", "proof.jpg",
			pgtype.UUID{Bytes: admin, Valid: true}, pgtype.Timestamptz{Time: ts, Valid: true}, ts,
		))

	p, err := store.ReviewPurchase(ctx, id, review)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusVerified, p.Status)
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, admin, *p.VerifiedBy)
	require.NotNil(t, p.VerifiedAt)
	assert.Equal(t, ts, *p.VerifiedAt)
}

func TestReviewPurchase_NoMatch(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"already reviewed", true, domain.ErrPurchaseNotPending},
		{"missing", false, domain.ErrPurchaseNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			id := uuid.New()

			mock.ExpectQuery(q("UPDATE purchases SET status")).WillReturnError(pgx.ErrNoRows)
			lookup := mock.ExpectQuery(q("SELECT " + purchaseColumns + " FROM purchases WHERE id = $1")).WithArgs(id)
			if tt.exists {
				lookup.WillReturnRows(pgxmock.NewRows(purchaseCols).AddRow(
					id, uuid.New(), "p", "Product", decimal.NewFromInt(10), "cancelled", "",
					pgtype.UUID{}, pgtype.Timestamptz{}, ts,
				))
			} else {
				lookup.WillReturnError(pgx.ErrNoRows)
			}

			_, err := store.ReviewPurchase(context.Background(), id, domain.PurchaseReview{Status: domain.PurchaseStatusVerified})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReviewPurchase_StorageFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q("UPDATE purchases SET status")).WillReturnError(errors.New("connection reset"))

	_, err := store.ReviewPurchase(context.Background(), uuid.New(), domain.PurchaseReview{Status: domain.PurchaseStatusVerified})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestDecideWithdrawal_NoMatch(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"already processed", true, domain.ErrWithdrawalNotPending},
		{"missing", false, domain.ErrWithdrawalNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			id, admin := uuid.New(), uuid.New()
			decision := domain.WithdrawalDecision{Status: domain.WithdrawalStatusPaid, AdminNote: "ok", ProcessedBy: admin, ProcessedAt: ts}

			mock.ExpectQuery(q("WHERE id = $1 AND status = 'pending'")).
				WithArgs(id, "paid", "ok", admin, ts).
				WillReturnError(pgx.ErrNoRows)
			lookup := mock.ExpectQuery(q("FROM withdrawal_requests WHERE id = $1")).WithArgs(id)
			if tt.exists {
				lookup.WillReturnRows(pgxmock.NewRows(withdrawalCols).AddRow(
					id, uuid.New(), decimal.NewFromInt(60), "BCA", "123", "Name", "rejected", "",
					pgtype.UUID{}, pgtype.Timestamptz{}, ts,
				))
			} else {
				lookup.WillReturnError(pgx.ErrNoRows)
			}

			_, err := store.DecideWithdrawal(context.Background(), id, decision)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAdjustBalances_IncrementsInPlace(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	delta := domain.BalanceDelta{
		Pending:   decimal.RequireFromString("-60"),
		Withdrawn: decimal.RequireFromString("60"),
	}

	mock.ExpectExec(q("commission_pending + $2")).
		WithArgs(id, delta.Pending, delta.Total, delta.Withdrawn, delta.Purchases).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.AdjustBalances(context.Background(), id, delta))

	mock.ExpectExec(q("UPDATE accounts SET")).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, store.AdjustBalances(context.Background(), id, delta), domain.ErrAccountNotFound)
}

func TestCreateAccount_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"accounts_phone_number_key", domain.ErrAccountExists},
		{"accounts_referral_code_key", domain.ErrReferralCodeTaken},
		{"some_other_key", domain.ErrStorage},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(q("INSERT INTO accounts")).
				WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: tt.constraint})

			err := store.CreateAccount(context.Background(), &domain.Account{ID: uuid.New(), CreatedAt: ts})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateChallenge_ActiveConflict(t *testing.T) {
	store, mock := newMockStore(t)
	c := &domain.Challenge{ID: uuid.New(), UserID: uuid.New(), Status: domain.ChallengeStatusActive, StartDate: ts, CurrentDay: 1, CreatedAt: ts}

	mock.ExpectExec(q("INSERT INTO challenges")).
		WithArgs(c.ID, c.UserID, "active", ts, 1, 0, ts).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_challenges_active_user"})
	assert.ErrorIs(t, store.CreateChallenge(context.Background(), c), domain.ErrConflict)
}

func TestCreateCommission_DuplicatePurchase(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(q("INSERT INTO commissions")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "commissions_purchase_id_key"})

	err := store.CreateCommission(context.Background(), &domain.Commission{ID: uuid.New(), Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrPurchaseNotPending)
}

func TestInTx_Commit(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q("total_referrals = total_referrals + 1")).WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(q("current_challenge_day = $2")).WithArgs(id, 4).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.IncrementReferrals(ctx, id); err != nil {
			return err
		}
		return tx.InTx(ctx, func(inner repository.Store) error {
			return inner.SetCurrentChallengeDay(ctx, id, 4)
		})
	})
	require.NoError(t, err)
}

func TestInTx_RollbackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q("total_referrals = total_referrals + 1")).WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := store.InTx(ctx, func(tx repository.Store) error {
		return tx.IncrementReferrals(ctx, id)
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestInTx_BeginFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := store.InTx(context.Background(), func(tx repository.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.False(t, called)
}

func TestListAccounts_Pages(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(q("SELECT COUNT(*) FROM accounts")).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(q("OFFSET $1 LIMIT $2")).WithArgs(2, 50).WillReturnRows(pgxmock.NewRows(accountCols).AddRow(
		id, "Ani", "+62811", "", "user", "", "ABCD2345", pgtype.UUID{},
		2, decimal.NewFromInt(40), decimal.NewFromInt(60), decimal.NewFromInt(100), decimal.Zero,
		true, pgtype.Timestamptz{Time: ts, Valid: true}, 4, true, ts, ts,
	))

	accounts, total, err := store.ListAccounts(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, accounts, 1)
	assert.Equal(t, id, accounts[0].ID)
	assert.Equal(t, 2, accounts[0].TotalReferrals)
	assert.True(t, accounts[0].ChallengeEnrolled)
	assert.True(t, accounts[0].BalanceConsistent())
	assert.Nil(t, accounts[0].ReferredByID)
}

func TestDeleteAccount(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectExec(q("DELETE FROM accounts WHERE id = $1")).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, store.DeleteAccount(ctx, id))

	mock.ExpectExec(q("DELETE FROM accounts")).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, store.DeleteAccount(ctx, id), domain.ErrAccountNotFound)

	mock.ExpectExec(q("DELETE FROM accounts")).WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "purchases_user_id_fkey"})
	assert.ErrorIs(t, store.DeleteAccount(ctx, id), domain.ErrAccountHasLedger)
}

func TestUpsertDailyCheckin_ReportsInsert(t *testing.T) {
	store, mock := newMockStore(t)
	c := &domain.DailyCheckin{ID: uuid.New(), UserID: uuid.New(), ChallengeID: uuid.New(), Day: 3, ComfortLevel: 6, UpdatedAt: ts}

	mock.ExpectQuery(q("ON CONFLICT (user_id, day) DO UPDATE")).
		WithArgs(c.ID, c.UserID, c.ChallengeID, 3, 6, []string{}, "", false, false, false, ts).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true))

	created, err := store.UpsertDailyCheckin(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, created)
}
