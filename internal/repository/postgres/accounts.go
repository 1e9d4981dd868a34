package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/healthchallenge/internal/domain"
)

const accountColumns = `id, name, phone_number, email, role, health_type, referral_code, referred_by_id,
	total_referrals, commission_pending, commission_withdrawn, total_commission, total_purchases,
	challenge_enrolled, challenge_start_date, current_challenge_day, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a          domain.Account
		role       string
		referredBy pgtype.UUID
		startDate  pgtype.Timestamptz
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.PhoneNumber, &a.Email, &role, &a.HealthType, &a.ReferralCode, &referredBy,
		&a.TotalReferrals, &a.CommissionPending, &a.CommissionWithdrawn, &a.TotalCommission, &a.TotalPurchases,
		&a.ChallengeEnrolled, &startDate, &a.CurrentChallengeDay, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.ReferredByID = pgUUIDToPtr(referredBy)
	a.ChallengeStartDate = pgTimestamptzToTimePtr(startDate)
	return &a, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get account", err, domain.ErrAccountNotFound)
	}
	return a, nil
}

func (s *Store) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	a, err := scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE referral_code = $1`, code))
	if err != nil {
		return nil, mapErr("get account by referral code", err, domain.ErrAccountNotFound)
	}
	return a, nil
}

func (s *Store) GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE phone_number = $1`, phone))
	if err != nil {
		return nil, mapErr("get account by phone", err, domain.ErrAccountNotFound)
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (id, name, phone_number, email, role, health_type, referral_code, referred_by_id,
			challenge_enrolled, challenge_start_date, current_challenge_day, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		a.ID, a.Name, a.PhoneNumber, a.Email, string(a.Role), a.HealthType, a.ReferralCode, uuidPtrToPg(a.ReferredByID),
		a.ChallengeEnrolled, timePtrToPgTimestamptz(a.ChallengeStartDate), a.CurrentChallengeDay, a.IsActive, a.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "accounts_phone_number_key"):
		return domain.ErrAccountExists
	case isUniqueViolation(err, "accounts_referral_code_key"):
		return domain.ErrReferralCodeTaken
	default:
		return domain.StorageError("create account", err)
	}
}

func (s *Store) AdjustBalances(ctx context.Context, id uuid.UUID, d domain.BalanceDelta) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE accounts SET
			commission_pending   = commission_pending + $2,
			total_commission     = total_commission + $3,
			commission_withdrawn = commission_withdrawn + $4,
			total_purchases      = total_purchases + $5,
			updated_at           = NOW()
		WHERE id = $1`,
		id, d.Pending, d.Total, d.Withdrawn, d.Purchases,
	)
	if err != nil {
		return domain.StorageError("adjust balances", err)
	}
	return expectOne(tag, domain.ErrAccountNotFound)
}

func (s *Store) IncrementReferrals(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET total_referrals = total_referrals + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("increment referrals", err)
	}
	return expectOne(tag, domain.ErrAccountNotFound)
}

func (s *Store) SetChallengeEnrollment(ctx context.Context, id uuid.UUID, enrolled bool, startDate time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE accounts SET challenge_enrolled = $2, challenge_start_date = $3, updated_at = NOW()
		WHERE id = $1`,
		id, enrolled, timeToPgTimestamptz(startDate),
	)
	if err != nil {
		return domain.StorageError("set challenge enrollment", err)
	}
	return expectOne(tag, domain.ErrAccountNotFound)
}

func (s *Store) SetCurrentChallengeDay(ctx context.Context, id uuid.UUID, day int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET current_challenge_day = $2, updated_at = NOW() WHERE id = $1`, id, day)
	if err != nil {
		return domain.StorageError("set current challenge day", err)
	}
	return expectOne(tag, domain.ErrAccountNotFound)
}

func (s *Store) ListAccounts(ctx context.Context, offset, limit int) ([]domain.Account, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, domain.StorageError("count accounts", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, 0, domain.StorageError("list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, domain.StorageError("scan account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.StorageError("iterate accounts", err)
	}
	return accounts, total, nil
}

// DeleteAccount relies on the schema: challenges and check-ins cascade,
// referrals are detached, and ledger rows block the delete.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrAccountHasLedger
		}
		return domain.StorageError("delete account", err)
	}
	return expectOne(tag, domain.ErrAccountNotFound)
}
