package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-rentals/config"
	"library-rentals/library"
)

// withArgs runs fn with a fresh global flag set and the given command line.
func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	oldArgs, oldFlags := os.Args, pflag.CommandLine
	t.Cleanup(func() { os.Args, pflag.CommandLine = oldArgs, oldFlags })
	os.Args = append([]string{"import_books"}, args...)
	pflag.CommandLine = pflag.NewFlagSet("import_books", pflag.ContinueOnError)
	fn()
}

func TestRunUsageError(t *testing.T) {
	withArgs(t, nil, func() {
		assert.Equal(t, 2, run())
	})
}

func TestRunImportsAndReleasesDatabase(t *testing.T) {
	for _, env := range []string{config.EnvConfig, config.EnvBackend, config.EnvDB, config.EnvPostgresDSN} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(sampleCatalog), 0o644))
	dbPath := filepath.Join(dir, "library.db")

	withArgs(t, []string{"--db", dbPath, catalog}, func() {
		assert.Equal(t, 1, run(), "the untitled entry fails")
	})
	withArgs(t, []string{"--db", dbPath, "--reset", catalog}, func() {
		assert.Equal(t, 1, run())
	})

	db, err := library.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	store, err := library.Open(db)
	require.NoError(t, err)
	assert.Len(t, store.Books(), 2)
}
