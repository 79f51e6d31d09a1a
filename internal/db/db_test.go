package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/segdash/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "memory", path: ":memory:", want: ":memory:"},
		{name: "relative", path: "segdash.db", want: "file:segdash.db?_busy_timeout=5000&_journal_mode=WAL"},
		{name: "absolute", path: "/var/lib/s.db", want: "file:/var/lib/s.db?_busy_timeout=5000&_journal_mode=WAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.path)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnect_Memory(t *testing.T) {
	gdb, err := Connect(":memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer Close(gdb)

	if !gdb.Migrator().HasTable(&models.SessionEntry{}) {
		t.Error("session_entries table not migrated")
	}
}

func TestConnect_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "segdash.db")
	gdb, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer Close(gdb)

	entry := models.SessionEntry{Name: "k", Value: "v"}
	if err := gdb.Create(&entry).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestAllModels_Count(t *testing.T) {
	models := AllModels()
	if len(models) != 1 {
		t.Errorf("AllModels() returned %d models, want 1", len(models))
	}
}

func TestConnect_BadPath(t *testing.T) {
	_, err := Connect("/dev/null/segdash.db")
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if !strings.HasPrefix(err.Error(), "db: ") {
		t.Errorf("error = %q, want db: prefix", err.Error())
	}
}
