package repository

import (
	"context"
	"database/sql"
	"errors"

	"identity-service/internal/permission/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a permission repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the permission for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Permission, error) {
	p := &domain.Permission{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_active FROM permissions WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByName returns the permission with the given name, or nil if not found.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Permission, error) {
	p := &domain.Permission{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_active FROM permissions WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the active permissions among ids.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_active FROM permissions WHERE id = ANY($1) AND is_active`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// List returns all active permissions ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_active FROM permissions WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// Create persists the permission and assigns the generated id back to p.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Permission) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO permissions (name, is_active) VALUES ($1, $2) RETURNING id`,
		p.Name, p.IsActive,
	).Scan(&p.ID)
}

// Update updates the permission's name. No-op when the row is missing.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE permissions SET name = $2 WHERE id = $1`, p.ID, p.Name,
	)
	return err
}

// SetActive toggles the permission's is_active flag (soft delete / enable).
func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE permissions SET is_active = $2 WHERE id = $1`, id, active,
	)
	return err
}

func scanPermissions(rows *sql.Rows) ([]domain.Permission, error) {
	var out []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
