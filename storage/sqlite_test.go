package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing_combiner/config"
	"listing_combiner/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestStore(t *testing.T, driver string) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(driver, filepath.Join(t.TempDir(), "db", "properties.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResidential(id string) *models.Residential {
	return &models.Residential{
		UniqueID:   id,
		Type:       strPtr("House"),
		Headline:   strPtr("Harbour views"),
		Price:      strPtr("650000"),
		Status:     strPtr("current"),
		Suburb:     strPtr("Sydney"),
		Bedrooms:   intPtr(3),
		Bathrooms:  intPtr(2),
		CarSpaces:  intPtr(0),
		Gallery:    json.RawMessage(`["https://x/1.jpg"]`),
		Facilities: json.RawMessage(`{"bedrooms":"3"}`),
		Nearby:     json.RawMessage(`{}`),
		AgentName:  strPtr("Jane Smith"),
		RawJSON:    json.RawMessage(`{"uniqueID":"` + id + `"}`),
	}
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	for _, driver := range []string{DriverSQLite3, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t, driver)

			require.NoError(t, store.UpsertResidential(ctx, sampleResidential("P100")))

			got, err := store.GetResidential(ctx, "P100")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "House", *got.Type)
			assert.Equal(t, 3, *got.Bedrooms)
			assert.Equal(t, 0, *got.CarSpaces)
			assert.Nil(t, got.Description)
			assert.Nil(t, got.Floorplan)
			assert.JSONEq(t, `["https://x/1.jpg"]`, string(got.Gallery))
			assert.JSONEq(t, `{"bedrooms":"3"}`, string(got.Facilities))
		})
	}
}

func TestSQLiteStore_GetMissingReturnsNil(t *testing.T) {
	store := newTestStore(t, DriverSQLite3)

	got, err := store.GetResidential(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpsertReplacesEveryColumn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, DriverSQLite3)

	require.NoError(t, store.UpsertResidential(ctx, sampleResidential("P100")))

	sold := &models.Residential{
		UniqueID:   "P100",
		Status:     strPtr("sold"),
		Price:      strPtr("480000"),
		Gallery:    json.RawMessage(`[]`),
		Facilities: json.RawMessage(`{}`),
		Nearby:     json.RawMessage(`{}`),
		RawJSON:    json.RawMessage(`{"uniqueID":"P100"}`),
	}
	require.NoError(t, store.UpsertResidential(ctx, sold))

	got, err := store.GetResidential(ctx, "P100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sold", *got.Status)
	assert.Equal(t, "480000", *got.Price)
	assert.Nil(t, got.Headline, "columns absent from the newer version are cleared")
	assert.Nil(t, got.Bedrooms)
	assert.Nil(t, got.AgentName)
	assert.JSONEq(t, `[]`, string(got.Gallery))

	all, err := store.ListResidentials(ctx, models.ResidentialFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, DriverSQLite3)

	r := sampleResidential("P100")
	require.NoError(t, store.UpsertResidential(ctx, r))
	first, err := store.GetResidential(ctx, "P100")
	require.NoError(t, err)

	require.NoError(t, store.UpsertResidential(ctx, r))
	second, err := store.GetResidential(ctx, "P100")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, DriverSQLite3)

	a := sampleResidential("B2")
	b := sampleResidential("A1")
	b.Status = strPtr("sold")
	b.Bedrooms = intPtr(2)
	c := sampleResidential("C3")
	c.Suburb = strPtr("Bondi")
	for _, r := range []*models.Residential{a, b, c} {
		require.NoError(t, store.UpsertResidential(ctx, r))
	}

	ids := func(rs []models.Residential) []string {
		out := []string{}
		for _, r := range rs {
			out = append(out, r.UniqueID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.ResidentialFilter
		want   []string
	}{
		{"no filter ordered by id", models.ResidentialFilter{}, []string{"A1", "B2", "C3"}},
		{"status", models.ResidentialFilter{Status: strPtr("current")}, []string{"B2", "C3"}},
		{"bedrooms", models.ResidentialFilter{Bedrooms: intPtr(2)}, []string{"A1"}},
		{"suburb", models.ResidentialFilter{Suburb: strPtr("Bondi")}, []string{"C3"}},
		{"combined", models.ResidentialFilter{Status: strPtr("current"), Suburb: strPtr("Sydney")}, []string{"B2"}},
		{"no match", models.ResidentialFilter{Status: strPtr("withdrawn")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListResidentials(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSQLiteStore_Runs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, DriverSQLite3)

	run := &models.CombineRun{
		ID:        "3f1c7a52-6a7e-4c1e-9d1b-2f0c9a8b7e10",
		StartedAt: time.Now(),
		Status:    models.CombineRunRunning,
	}
	require.NoError(t, store.CreateRun(ctx, run))

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = models.CombineRunCompleted
	run.FilesSeen = 2
	run.ListingsAdded = 3
	run.UniqueCount = 3
	require.NoError(t, store.UpdateRun(ctx, run))

	var status string
	var files, unique int
	err := store.db.QueryRowContext(ctx,
		`SELECT status, files_seen, unique_count FROM combine_runs WHERE id = ?`, run.ID).
		Scan(&status, &files, &unique)
	require.NoError(t, err)
	assert.Equal(t, "completed", status)
	assert.Equal(t, 2, files)
	assert.Equal(t, 3, unique)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestUpsertResidentialSQL(t *testing.T) {
	q := upsertResidentialSQL(pgPlaceholder)
	assert.Contains(t, q, "VALUES ($1, $2,")
	assert.Contains(t, q, "$25)")
	assert.Contains(t, q, "ON CONFLICT(uniqueID) DO UPDATE SET type = excluded.type")
	assert.NotContains(t, q, "uniqueID = excluded.uniqueID")
}

func TestS3Config_Enabled(t *testing.T) {
	assert.False(t, S3Config{Region: "us-east-1"}.Enabled())
	assert.True(t, S3Config{Bucket: "feeds"}.Enabled())
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://feeds.s3.ap-southeast-2.amazonaws.com/feeds/residentials.xml",
		PublicURL(S3Config{Bucket: "feeds", Region: "ap-southeast-2"}, "feeds/residentials.xml"))
	assert.Equal(t, "https://feeds.syd1.digitaloceanspaces.com/r.xml",
		PublicURL(S3Config{Bucket: "feeds", Endpoint: "https://syd1.digitaloceanspaces.com"}, "r.xml"))
	assert.Equal(t, "http://localhost:9000/feeds/r.xml",
		PublicURL(S3Config{Bucket: "feeds", Endpoint: "http://localhost:9000/"}, "r.xml"))
}
