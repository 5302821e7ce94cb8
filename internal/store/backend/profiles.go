package backend

import (
	"context"
	"database/sql"

	"cvforge/internal/types"
)

// GetProfile returns the signed-in user's profile. The bool is false when
// none has been saved yet.
func (s *Store) GetProfile(ctx context.Context, sess *types.Session) (*types.Profile, bool, error) {
	if err := s.requireSession(sess); err != nil {
		return nil, false, err
	}

	p := &types.Profile{}
	err := s.db.QueryRowContext(ctx, `
		SELECT full_name, headline, email, phone, city, postal_code, birth_date, summary, updated_at
		FROM profiles WHERE user_id = $1`, sess.UserID,
	).Scan(&p.FullName, &p.Headline, &p.Email, &p.Phone, &p.City, &p.PostalCode, &p.BirthDate, &p.Summary, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.remoteErr("failed to load profile", err)
	}
	return p, true, nil
}

// SaveProfile validates p and upserts it as the user's single profile record.
func (s *Store) SaveProfile(ctx context.Context, sess *types.Session, p types.Profile) (*types.Profile, error) {
	if err := s.requireSession(sess); err != nil {
		return nil, err
	}
	if err := s.validator.Profile(p); err != nil {
		return nil, err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, full_name, headline, email, phone, city, postal_code, birth_date, summary, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			headline = EXCLUDED.headline,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			city = EXCLUDED.city,
			postal_code = EXCLUDED.postal_code,
			birth_date = EXCLUDED.birth_date,
			summary = EXCLUDED.summary,
			updated_at = NOW()
		RETURNING updated_at`,
		sess.UserID, p.FullName, p.Headline, p.Email, p.Phone, p.City, p.PostalCode, p.BirthDate, p.Summary,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, s.remoteErr("failed to save profile", err)
	}
	return &p, nil
}
