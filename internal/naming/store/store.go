package store

import (
	"context"
	"database/sql"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindAlias(ctx context.Context, rawSupplier string) (string, error) {
	query := `
		SELECT canonical_name
		FROM supplier_aliases
		WHERE $1 ILIKE '%' || raw_pattern || '%'
		ORDER BY LENGTH(raw_pattern) DESC, created_at DESC
		LIMIT 1
	`

	var canonical string

	err := s.db.QueryRowContext(ctx, query, rawSupplier).Scan(&canonical)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}

		return "", fmt.Errorf("finding alias: %w", err)
	}

	return canonical, nil
}

func (s *Store) CreateAlias(ctx context.Context, rawPattern, canonicalName string) error {
	query := `
		INSERT INTO supplier_aliases (raw_pattern, canonical_name, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.ExecContext(ctx, query, rawPattern, canonicalName)
	if err != nil {
		return fmt.Errorf("creating alias: %w", err)
	}

	return nil
}
