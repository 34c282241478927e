package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

func TestLoadMigrationsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0002_add_index.up.sql":   {Data: []byte("CREATE INDEX idx ON t (a);")},
		"sql/migrations/0002_add_index.down.sql": {Data: []byte("DROP INDEX idx;")},
		"sql/migrations/0001_init.up.sql":        {Data: []byte("CREATE TABLE t (a INT);")},
		"sql/migrations/0001_init.down.sql":      {Data: []byte("DROP TABLE t;")},
	}

	migrations, err := loadMigrationsFromFS(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	// Сортировка по версии, не по порядку файлов.
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("unexpected order: %+v", migrations)
	}
	if migrations[0].Name != "init" || migrations[1].Name != "add_index" {
		t.Fatalf("unexpected names: %s, %s", migrations[0].Name, migrations[1].Name)
	}
	if migrations[0].UpSQL == "" || migrations[0].DownSQL == "" {
		t.Fatal("expected both directions loaded")
	}
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	cases := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name:    "empty dir",
			fsys:    fstest.MapFS{},
			wantErr: "no migration files",
		},
		{
			name: "missing down",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql": {Data: []byte("CREATE TABLE t (a INT);")},
			},
			wantErr: "must have both up and down",
		},
		{
			name: "bad file name",
			fsys: fstest.MapFS{
				"sql/migrations/init.sql": {Data: []byte("CREATE TABLE t (a INT);")},
			},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty body",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("  \n")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE t;")},
			},
			wantErr: "migration file is empty",
		},
		{
			name: "name mismatch",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    {Data: []byte("CREATE TABLE t (a INT);")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("DROP TABLE t;")},
			},
			wantErr: "migration name mismatch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadMigrationsFromFS(tc.fsys)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("embedded migrations are broken: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for _, m := range migrations {
		if m.UpSQL == "" || m.DownSQL == "" {
			t.Fatalf("migration %d_%s missing direction", m.Version, m.Name)
		}
	}
}

func timeWindowFixture(withFrom, withTo bool) domain.TimeWindow {
	var window domain.TimeWindow
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if withFrom {
		window.From = base
	}
	if withTo {
		window.To = base.Add(24 * time.Hour)
	}
	return window
}

func TestWindowedQuery(t *testing.T) {
	base := "SELECT COUNT(*) FROM orders"

	query, args := windowedQuery(base, nil, timeWindowFixture(false, false))
	if query != base || len(args) != 0 {
		t.Fatalf("open window must not alter query: %q %v", query, args)
	}

	query, args = windowedQuery(base, nil, timeWindowFixture(true, true))
	if !strings.Contains(query, "WHERE created_at >= $1") || !strings.Contains(query, "AND created_at <= $2") {
		t.Fatalf("unexpected query: %q", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}

	withStatus := "SELECT COUNT(*) FROM orders WHERE status = $1"
	query, args = windowedQuery(withStatus, []any{"DELIVERED"}, timeWindowFixture(true, false))
	if !strings.Contains(query, "AND created_at >= $2") {
		t.Fatalf("expected AND clause, got %q", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}
