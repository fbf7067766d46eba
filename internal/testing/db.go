// Package testing holds helpers shared by fintrack's package tests.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/fintrack/internal/database"
)

// NewTestDB opens a file-backed store under t.TempDir with the named
// embedded schema applied. It is closed when the test ends.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), name+".db"),
		Name: name,
	})
	if err != nil {
		t.Fatalf("open test store %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("close test store %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test store %s: %v", name, err)
	}
	return db
}
