package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"listing_combiner/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	if connString == "" {
		return nil, fmt.Errorf("postgres: DATABASE_URL is empty")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		uniqueID TEXT PRIMARY KEY,
		type TEXT,
		headline TEXT,
		description TEXT,
		price TEXT,
		priceView TEXT,
		status TEXT,
		street TEXT,
		suburb TEXT,
		state TEXT,
		postcode TEXT,
		country TEXT,
		bedrooms INTEGER,
		bathrooms INTEGER,
		carSpaces INTEGER,
		floorplan TEXT,
		gallery JSONB,
		facilities JSONB,
		nearby JSONB,
		site_direction TEXT,
		agent_name TEXT,
		agent_email TEXT,
		agent_phone TEXT,
		agent_photo TEXT,
		raw_json JSONB
	);

	CREATE TABLE IF NOT EXISTS combine_runs (
		id UUID PRIMARY KEY,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		files_seen INTEGER DEFAULT 0,
		files_skipped INTEGER DEFAULT 0,
		listings_added INTEGER DEFAULT 0,
		listings_updated INTEGER DEFAULT 0,
		listings_skipped INTEGER DEFAULT 0,
		unique_count INTEGER DEFAULT 0,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);
	CREATE INDEX IF NOT EXISTS idx_properties_suburb ON properties(suburb);
	CREATE INDEX IF NOT EXISTS idx_properties_bedrooms ON properties(bedrooms);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON combine_runs(started_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func pgPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// pgSelectColumns reads JSONB columns back as text so both backends share scan targets.
func pgSelectColumns() string {
	cols := make([]string, len(residentialColumns))
	for i, col := range residentialColumns {
		switch col {
		case "gallery", "facilities", "nearby", "raw_json":
			cols[i] = col + "::text"
		default:
			cols[i] = col
		}
	}
	return strings.Join(cols, ", ")
}

func (s *PostgresStore) UpsertResidential(ctx context.Context, r *models.Residential) error {
	query := upsertResidentialSQL(func(n int) string {
		switch residentialColumns[n-1] {
		case "gallery", "facilities", "nearby", "raw_json":
			return pgPlaceholder(n) + "::jsonb"
		}
		return pgPlaceholder(n)
	})
	if _, err := s.pool.Exec(ctx, query, residentialArgs(r)...); err != nil {
		return fmt.Errorf("upsert residential %s: %w", r.UniqueID, err)
	}
	return nil
}

func (s *PostgresStore) GetResidential(ctx context.Context, uniqueID string) (*models.Residential, error) {
	query := "SELECT " + pgSelectColumns() + " FROM properties WHERE uniqueID = $1"

	var row residentialRow
	err := s.pool.QueryRow(ctx, query, uniqueID).Scan(row.dest()...)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get residential %s: %w", uniqueID, err)
	}
	r := row.residential()
	return &r, nil
}

func (s *PostgresStore) ListResidentials(ctx context.Context, filter models.ResidentialFilter) ([]models.Residential, error) {
	where, args := filterClause(filter, pgPlaceholder)
	query := "SELECT " + pgSelectColumns() + " FROM properties" + where + " ORDER BY uniqueID"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list residentials: %w", err)
	}
	defer rows.Close()

	results := []models.Residential{}
	for rows.Next() {
		var row residentialRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scan residential: %w", err)
		}
		results = append(results, row.residential())
	}
	return results, rows.Err()
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.CombineRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO combine_runs (id, started_at, status)
		VALUES ($1, $2, $3)`,
		run.ID, run.StartedAt, string(run.Status))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.CombineRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE combine_runs SET
			finished_at = $1, status = $2, files_seen = $3, files_skipped = $4,
			listings_added = $5, listings_updated = $6, listings_skipped = $7,
			unique_count = $8, error_message = $9
		WHERE id = $10`,
		nullTime(run.FinishedAt), string(run.Status), run.FilesSeen, run.FilesSkipped,
		run.ListingsAdded, run.ListingsUpdated, run.ListingsSkipped,
		run.UniqueCount, run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}
