package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
)

// UpsertDailyCheckin keeps the original id and created_at on replace.
// xmax is zero only for a freshly inserted row.
func (s *Store) UpsertDailyCheckin(ctx context.Context, c *domain.DailyCheckin) (bool, error) {
	var created bool
	err := s.db.QueryRow(ctx, `
		INSERT INTO daily_checkins (id, user_id, challenge_id, day, comfort_level, symptoms, notes,
			morning_done, noon_done, evening_done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (user_id, day) DO UPDATE SET
			challenge_id  = EXCLUDED.challenge_id,
			comfort_level = EXCLUDED.comfort_level,
			symptoms      = EXCLUDED.symptoms,
			notes         = EXCLUDED.notes,
			morning_done  = EXCLUDED.morning_done,
			noon_done     = EXCLUDED.noon_done,
			evening_done  = EXCLUDED.evening_done,
			updated_at    = EXCLUDED.updated_at
		RETURNING (xmax = 0)`,
		c.ID, c.UserID, c.ChallengeID, c.Day, c.ComfortLevel, nonNilStrings(c.Symptoms), c.Notes,
		c.MorningDone, c.NoonDone, c.EveningDone, c.UpdatedAt,
	).Scan(&created)
	if err != nil {
		return false, domain.StorageError("upsert daily checkin", err)
	}
	return created, nil
}

func (s *Store) ListDailyCheckins(ctx context.Context, userID uuid.UUID) ([]domain.DailyCheckin, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, challenge_id, day, comfort_level, symptoms, notes,
			morning_done, noon_done, evening_done, created_at, updated_at
		FROM daily_checkins
		WHERE user_id = $1
		ORDER BY day`,
		userID,
	)
	if err != nil {
		return nil, domain.StorageError("list daily checkins", err)
	}
	defer rows.Close()

	var checkins []domain.DailyCheckin
	for rows.Next() {
		var c domain.DailyCheckin
		if err := rows.Scan(&c.ID, &c.UserID, &c.ChallengeID, &c.Day, &c.ComfortLevel, &c.Symptoms, &c.Notes,
			&c.MorningDone, &c.NoonDone, &c.EveningDone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, domain.StorageError("scan daily checkin", err)
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate daily checkins", err)
	}
	return checkins, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
