package postgres

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSourceURL(t *testing.T) {
	tests := map[string]string{
		"migrations":            "file://migrations",
		"/srv/app/migrations":   "file:///srv/app/migrations",
		"file://migrations":     "file://migrations",
		"github://org/repo/sql": "github://org/repo/sql",
	}

	for in, want := range tests {
		if got := sourceURL(in); got != want {
			t.Fatalf("sourceURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigratorRejectsNonPositiveSteps(t *testing.T) {
	m := NewMigrator("postgres://localhost/db", "migrations", zerolog.Nop())
	if err := m.Down(0); err == nil {
		t.Fatalf("expected error for zero steps")
	}
}

func TestMigratorMissingSource(t *testing.T) {
	m := NewMigrator("postgres://ledger@127.0.0.1:1/db?sslmode=disable", t.TempDir()+"/nope", zerolog.Nop())
	if err := m.Up(); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
}
