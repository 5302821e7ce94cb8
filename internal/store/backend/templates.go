package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"cvforge/internal/errors"
	"cvforge/internal/layout"
)

// ListTemplates returns the public template catalog ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]layout.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, sections FROM templates ORDER BY name, id`)
	if err != nil {
		return nil, s.remoteErr("failed to list templates", err)
	}
	defer rows.Close()

	presets := []layout.Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.remoteErr("failed to list templates", err)
	}
	return presets, nil
}

// GetTemplate returns one template by id.
func (s *Store) GetTemplate(ctx context.Context, id string) (*layout.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, sections FROM templates WHERE id = $1`, id)
	p, err := scanPreset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewValidationError(errors.ErrCodeNotFound,
				fmt.Sprintf("template %q not found", id), nil).WithContext("template", id)
		}
		return nil, err
	}
	return p, nil
}

// SeedTemplates inserts presets that are not in the catalog yet. Existing
// rows are left alone.
func (s *Store) SeedTemplates(ctx context.Context, presets []layout.Preset) error {
	for _, p := range presets {
		sections, err := json.Marshal(p.Sections)
		if err != nil {
			return errors.NewInternalError(errors.ErrCodeStorageFailed, "failed to encode template", err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO templates (id, name, description, sections) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Description, string(sections)); err != nil {
			return s.remoteErr("failed to seed templates", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*layout.Preset, error) {
	var (
		p   layout.Preset
		raw []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.NewRemoteError(errors.ErrCodeStorageFailed, "failed to read template", err)
	}
	if err := json.Unmarshal(raw, &p.Sections); err != nil {
		return nil, errors.NewParseError(errors.ErrCodeInvalidFormat, "template has malformed sections", err).
			WithContext("template", p.ID)
	}
	return &p, nil
}
