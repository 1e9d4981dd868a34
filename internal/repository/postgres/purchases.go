package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/healthchallenge/internal/domain"
)

const purchaseColumns = `id, user_id, product_id, product_name, amount, status, payment_proof, verified_by, verified_at, created_at`

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var (
		p          domain.Purchase
		status     string
		verifiedBy pgtype.UUID
		verifiedAt pgtype.Timestamptz
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.ProductName, &p.Amount, &status,
		&p.PaymentProof, &verifiedBy, &verifiedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.PurchaseStatus(status)
	p.VerifiedBy = pgUUIDToPtr(verifiedBy)
	p.VerifiedAt = pgTimestamptzToTimePtr(verifiedAt)
	return &p, nil
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	p, err := scanPurchase(s.db.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get purchase", err, domain.ErrPurchaseNotFound)
	}
	return p, nil
}

func (s *Store) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO purchases (id, user_id, product_id, product_name, amount, status, payment_proof, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.ProductID, p.ProductName, p.Amount, string(p.Status), p.PaymentProof, p.CreatedAt,
	)
	if err != nil {
		return domain.StorageError("create purchase", err)
	}
	return nil
}

// ReviewPurchase only matches pending rows, so concurrent reviews of the same
// purchase cannot both succeed.
func (s *Store) ReviewPurchase(ctx context.Context, id uuid.UUID, r domain.PurchaseReview) (*domain.Purchase, error) {
	p, err := scanPurchase(s.db.QueryRow(ctx, `
		UPDATE purchases SET status = $2, verified_by = $3, verified_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+purchaseColumns,
		id, string(r.Status), r.VerifiedBy, r.VerifiedAt,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.StorageError("review purchase", err)
	}

	// Nothing matched: either the purchase is gone or it is no longer pending.
	if _, err := s.GetPurchase(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrPurchaseNotPending
}

func (s *Store) ListPurchases(ctx context.Context, status domain.PurchaseStatus, limit int) ([]domain.Purchase, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, domain.StorageError("list purchases", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, domain.StorageError("scan purchase", err)
		}
		purchases = append(purchases, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate purchases", err)
	}
	return purchases, nil
}
