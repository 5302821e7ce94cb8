package backend

import (
	"context"
	"strings"

	"cvforge/internal/errors"
	"cvforge/internal/types"
	"cvforge/internal/validation"
)

// AppendActivity records an action for the signed-in user and publishes it.
// A publish failure is logged; the entry is already stored.
func (s *Store) AppendActivity(ctx context.Context, sess *types.Session, action, detail string) (*types.Activity, error) {
	if err := s.requireSession(sess); err != nil {
		return nil, err
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidField, "activity action is required", nil).
			WithContext("fields", validation.FieldErrors{"action": "is required"})
	}

	a := &types.Activity{UserID: sess.UserID, Action: action, Detail: detail}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO activity (user_id, action, detail) VALUES ($1, $2, $3) RETURNING id, created_at`,
		a.UserID, a.Action, a.Detail,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, s.remoteErr("failed to record activity", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishActivity(ctx, *a); err != nil {
			s.logger.LogError(err, "Failed to publish activity", "action", a.Action)
		}
	}
	return a, nil
}

// RecentActivity returns the user's latest n entries, newest first. n is
// clamped to 1..MaxActivity.
func (s *Store) RecentActivity(ctx context.Context, sess *types.Session, n int) ([]types.Activity, error) {
	if err := s.requireSession(sess); err != nil {
		return nil, err
	}
	n = min(max(n, 1), MaxActivity)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, action, detail, created_at FROM activity
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		sess.UserID, n)
	if err != nil {
		return nil, s.remoteErr("failed to read activity", err)
	}
	defer rows.Close()

	out := []types.Activity{}
	for rows.Next() {
		var a types.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, s.remoteErr("failed to read activity", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.remoteErr("failed to read activity", err)
	}
	return out, nil
}
