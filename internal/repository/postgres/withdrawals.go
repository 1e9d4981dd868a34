package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/healthchallenge/internal/domain"
)

const withdrawalColumns = `id, user_id, amount, bank_name, account_number, account_name, status, admin_note,
	processed_by, processed_at, created_at`

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var (
		w           domain.Withdrawal
		status      string
		processedBy pgtype.UUID
		processedAt pgtype.Timestamptz
	)
	if err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.Payout.BankName, &w.Payout.AccountNumber,
		&w.Payout.AccountName, &status, &w.AdminNote, &processedBy, &processedAt, &w.CreatedAt); err != nil {
		return nil, err
	}
	w.Status = domain.WithdrawalStatus(status)
	w.ProcessedBy = pgUUIDToPtr(processedBy)
	w.ProcessedAt = pgTimestamptzToTimePtr(processedAt)
	return &w, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(s.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get withdrawal", err, domain.ErrWithdrawalNotFound)
	}
	return w, nil
}

func (s *Store) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO withdrawal_requests (id, user_id, amount, bank_name, account_number, account_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.UserID, w.Amount, w.Payout.BankName, w.Payout.AccountNumber, w.Payout.AccountName,
		string(w.Status), w.CreatedAt,
	)
	if err != nil {
		return domain.StorageError("create withdrawal", err)
	}
	return nil
}

func (s *Store) DecideWithdrawal(ctx context.Context, id uuid.UUID, d domain.WithdrawalDecision) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(s.db.QueryRow(ctx, `
		UPDATE withdrawal_requests SET status = $2, admin_note = $3, processed_by = $4, processed_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING `+withdrawalColumns,
		id, string(d.Status), d.AdminNote, d.ProcessedBy, d.ProcessedAt,
	))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.StorageError("decide withdrawal", err)
	}

	if _, err := s.GetWithdrawal(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrWithdrawalNotPending
}

func (s *Store) ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, domain.StorageError("list withdrawals", err)
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, domain.StorageError("scan withdrawal", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate withdrawals", err)
	}
	return withdrawals, nil
}
