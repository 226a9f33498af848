package storage

import (
	"context"
	"fmt"

	"github.com/findosh/spendwatch/internal/models"
)

// CategoryRepository reads the fixed category set
type CategoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		categories = append(categories, models.Category{Name: name, Color: models.CategoryColor(name)})
	}
	return categories, rows.Err()
}

// Unknown returns the names that are not known categories, in input order
func (r *CategoryRepository) Unknown(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM categories WHERE name IN ("+placeholders(len(names))+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check categories: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool, len(names))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		known[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unknown []string
	for _, n := range names {
		if !known[n] {
			unknown = append(unknown, n)
		}
	}
	return unknown, nil
}
