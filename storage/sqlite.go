package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"listing_combiner/models"
)

const (
	// DriverSQLite3 is the cgo driver from mattn/go-sqlite3.
	DriverSQLite3 = "sqlite3"
	// DriverSQLite is the pure Go driver from modernc.org/sqlite.
	DriverSQLite = "sqlite"
	// DriverPostgres selects PostgresStore.
	DriverPostgres = "postgres"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database file at dbPath and applies
// the schema.
func NewSQLiteStore(driver, dbPath string) (*SQLiteStore, error) {
	if err := ensureParentDir(dbPath); err != nil {
		return nil, err
	}

	dsn := dbPath
	switch driver {
	case DriverSQLite3:
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverSQLite:
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time keeps busy errors out of the upsert path
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
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
		gallery TEXT,
		facilities TEXT,
		nearby TEXT,
		site_direction TEXT,
		agent_name TEXT,
		agent_email TEXT,
		agent_phone TEXT,
		agent_photo TEXT,
		raw_json TEXT
	);

	CREATE TABLE IF NOT EXISTS combine_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
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
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) UpsertResidential(ctx context.Context, r *models.Residential) error {
	_, err := s.db.ExecContext(ctx, upsertResidentialSQL(func(int) string { return "?" }), residentialArgs(r)...)
	if err != nil {
		return fmt.Errorf("upsert residential %s: %w", r.UniqueID, err)
	}
	return nil
}

func (s *SQLiteStore) GetResidential(ctx context.Context, uniqueID string) (*models.Residential, error) {
	query := "SELECT " + strings.Join(residentialColumns, ", ") + " FROM properties WHERE uniqueID = ?"

	var row residentialRow
	err := s.db.QueryRowContext(ctx, query, uniqueID).Scan(row.dest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get residential %s: %w", uniqueID, err)
	}
	r := row.residential()
	return &r, nil
}

func (s *SQLiteStore) ListResidentials(ctx context.Context, filter models.ResidentialFilter) ([]models.Residential, error) {
	where, args := filterClause(filter, func(int) string { return "?" })
	query := "SELECT " + strings.Join(residentialColumns, ", ") + " FROM properties" + where + " ORDER BY uniqueID"

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.CombineRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO combine_runs (id, started_at, status)
		VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), string(run.Status))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *models.CombineRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE combine_runs SET
			finished_at = ?, status = ?, files_seen = ?, files_skipped = ?,
			listings_added = ?, listings_updated = ?, listings_skipped = ?,
			unique_count = ?, error_message = ?
		WHERE id = ?`,
		nullTime(run.FinishedAt), string(run.Status), int64(run.FilesSeen), int64(run.FilesSkipped),
		int64(run.ListingsAdded), int64(run.ListingsUpdated), int64(run.ListingsSkipped),
		int64(run.UniqueCount), run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// upsertResidentialSQL builds the single-statement upsert; placeholder renders the
// n-th (1-based) bind parameter for the backend.
func upsertResidentialSQL(placeholder func(n int) string) string {
	marks := make([]string, len(residentialColumns))
	var sets []string
	for i, col := range residentialColumns {
		marks[i] = placeholder(i + 1)
		if col != "uniqueID" {
			sets = append(sets, col+" = excluded."+col)
		}
	}
	return "INSERT INTO properties (" + strings.Join(residentialColumns, ", ") + ")" +
		" VALUES (" + strings.Join(marks, ", ") + ")" +
		" ON CONFLICT(uniqueID) DO UPDATE SET " + strings.Join(sets, ", ")
}

func filterClause(f models.ResidentialFilter, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, "status = "+placeholder(len(args)))
	}
	if f.Bedrooms != nil {
		args = append(args, int64(*f.Bedrooms))
		conds = append(conds, "bedrooms = "+placeholder(len(args)))
	}
	if f.Suburb != nil {
		args = append(args, *f.Suburb)
		conds = append(conds, "suburb = "+placeholder(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
