package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DepartmentRepository answers department lookups.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Exists reports whether the department is known.
func (r *DepartmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check department exists: %w", err)
	}
	return exists, nil
}
