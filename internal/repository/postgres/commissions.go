package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
)

func (s *Store) CreateCommission(ctx context.Context, c *domain.Commission) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO commissions (id, user_id, from_user_id, purchase_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.FromUserID, c.PurchaseID, c.Amount, string(c.Status), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "commissions_purchase_id_key") {
			return domain.ErrPurchaseNotPending
		}
		return domain.StorageError("create commission", err)
	}
	return nil
}

func (s *Store) ListCommissionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Commission, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, from_user_id, purchase_id, amount, status, created_at
		FROM commissions
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, domain.StorageError("list commissions", err)
	}
	defer rows.Close()

	var commissions []domain.Commission
	for rows.Next() {
		var (
			c      domain.Commission
			status string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.FromUserID, &c.PurchaseID, &c.Amount, &status, &c.CreatedAt); err != nil {
			return nil, domain.StorageError("scan commission", err)
		}
		c.Status = domain.CommissionStatus(status)
		commissions = append(commissions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate commissions", err)
	}
	return commissions, nil
}
