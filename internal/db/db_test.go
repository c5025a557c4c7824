package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "data", "app.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
		"002_b.sql": {Data: []byte(`CREATE TABLE b (id INTEGER PRIMARY KEY, a_id INTEGER REFERENCES a(id));`)},
		"notes.txt": {Data: []byte(`ignored`)},
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(conn, fsys); err != nil {
			t.Fatalf("migrate run %d: %v", i, err)
		}
	}
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", n)
	}
	if _, err := conn.Exec(`INSERT INTO b(id, a_id) VALUES (1, 99)`); err == nil {
		t.Fatalf("expected foreign key violation")
	}
}

func TestMigrateReportsBrokenScript(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	fsys := fstest.MapFS{"001_bad.sql": {Data: []byte(`CREATE TABLE (;`)}}
	if err := Migrate(conn, fsys); err == nil {
		t.Fatalf("expected error for broken migration")
	}
}
