package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts the subset of pgxpool.Pool used by Catalog.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Catalog reads the fallback reference data: city codes and curated activities.
type Catalog struct {
	q Querier
}

// NewCatalog constructs a Catalog backed by the given pool.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{q: pool}
}

// NewCatalogWithQuerier constructs a Catalog with a custom Querier (for tests).
func NewCatalogWithQuerier(q Querier) *Catalog {
	return &Catalog{q: q}
}

// CityCodes returns the keyword → code table with lowercase keys.
func (c *Catalog) CityCodes(ctx context.Context) (map[string]string, error) {
	const q = `SELECT keyword, code FROM city_codes`

	rows, err := c.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying city codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]string)
	for rows.Next() {
		var keyword, code string
		if err := rows.Scan(&keyword, &code); err != nil {
			return nil, fmt.Errorf("scanning city code row: %w", err)
		}
		codes[strings.ToLower(strings.TrimSpace(keyword))] = strings.ToUpper(strings.TrimSpace(code))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating city code rows: %w", err)
	}

	return codes, nil
}

// CuratedActivities returns curated activity titles per lowercase city, in position order.
func (c *Catalog) CuratedActivities(ctx context.Context) (map[string][]string, error) {
	const q = `
		SELECT city, title
		FROM curated_activities
		ORDER BY city, position
	`

	rows, err := c.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying curated activities: %w", err)
	}
	defer rows.Close()

	catalog := make(map[string][]string)
	for rows.Next() {
		var city, title string
		if err := rows.Scan(&city, &title); err != nil {
			return nil, fmt.Errorf("scanning curated activity row: %w", err)
		}
		key := strings.ToLower(strings.TrimSpace(city))
		catalog[key] = append(catalog[key], title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating curated activity rows: %w", err)
	}

	return catalog, nil
}
