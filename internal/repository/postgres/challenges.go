package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/set-night/healthchallenge/internal/domain"
)

const challengeColumns = `id, user_id, status, start_date, current_day, streak_days, created_at, updated_at`

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var (
		c      domain.Challenge
		status string
	)
	if err := row.Scan(&c.ID, &c.UserID, &status, &c.StartDate, &c.CurrentDay, &c.StreakDays,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.ChallengeStatus(status)
	return &c, nil
}

func (s *Store) loadTasks(ctx context.Context, c *domain.Challenge) error {
	rows, err := s.db.Query(ctx, `
		SELECT day, timeslot, note, completed_at
		FROM challenge_tasks
		WHERE challenge_id = $1
		ORDER BY completed_at, day, timeslot`,
		c.ID,
	)
	if err != nil {
		return domain.StorageError("load challenge tasks", err)
	}
	defer rows.Close()

	c.CompletedTasks = nil
	for rows.Next() {
		var (
			t    domain.CompletedTask
			slot string
		)
		if err := rows.Scan(&t.Day, &slot, &t.Note, &t.CompletedAt); err != nil {
			return domain.StorageError("scan challenge task", err)
		}
		t.Timeslot = domain.Timeslot(slot)
		c.CompletedTasks = append(c.CompletedTasks, t)
	}
	if err := rows.Err(); err != nil {
		return domain.StorageError("iterate challenge tasks", err)
	}
	return nil
}

func (s *Store) GetChallenge(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	c, err := scanChallenge(s.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get challenge", err, domain.ErrChallengeNotFound)
	}
	if err := s.loadTasks(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) GetChallengeForUpdate(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	c, err := scanChallenge(s.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr("lock challenge", err, domain.ErrChallengeNotFound)
	}
	if err := s.loadTasks(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) GetActiveChallenge(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error) {
	c, err := scanChallenge(s.db.QueryRow(ctx, `
		SELECT `+challengeColumns+` FROM challenges
		WHERE user_id = $1 AND status = 'active'`, userID))
	if err != nil {
		return nil, mapErr("get active challenge", err, domain.ErrChallengeNotFound)
	}
	if err := s.loadTasks(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO challenges (id, user_id, status, start_date, current_day, streak_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		c.ID, c.UserID, string(c.Status), c.StartDate, c.CurrentDay, c.StreakDays, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "idx_challenges_active_user") {
			return domain.ErrConflict
		}
		return domain.StorageError("create challenge", err)
	}
	return nil
}

func (s *Store) UpsertTask(ctx context.Context, challengeID uuid.UUID, t domain.CompletedTask) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO challenge_tasks (challenge_id, day, timeslot, note, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (challenge_id, day, timeslot)
		DO UPDATE SET note = EXCLUDED.note, completed_at = EXCLUDED.completed_at`,
		challengeID, t.Day, string(t.Timeslot), t.Note, t.CompletedAt,
	)
	if err != nil {
		return domain.StorageError("upsert challenge task", err)
	}
	return nil
}

func (s *Store) SetChallengeDay(ctx context.Context, id uuid.UUID, currentDay int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE challenges SET current_day = $2, updated_at = NOW() WHERE id = $1`, id, currentDay)
	if err != nil {
		return domain.StorageError("set challenge day", err)
	}
	return expectOne(tag, domain.ErrChallengeNotFound)
}

func (s *Store) SetChallengeStreak(ctx context.Context, id uuid.UUID, streakDays int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE challenges SET streak_days = $2, updated_at = NOW() WHERE id = $1`, id, streakDays)
	if err != nil {
		return domain.StorageError("set challenge streak", err)
	}
	return expectOne(tag, domain.ErrChallengeNotFound)
}

func (s *Store) ListActiveChallenges(ctx context.Context) ([]domain.Challenge, error) {
	rows, err := s.db.Query(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, domain.StorageError("list active challenges", err)
	}
	defer rows.Close()

	var challenges []domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, domain.StorageError("scan challenge", err)
		}
		challenges = append(challenges, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate challenges", err)
	}
	return challenges, nil
}
