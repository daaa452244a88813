package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"library-rentals/config"
	"library-rentals/library"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		dbPath     string
		reset      bool
	)
	pflag.StringVar(&configPath, "config", "", "path to a YAML config file")
	pflag.StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	pflag.BoolVar(&reset, "reset", false, "delete the SQLite database files before importing")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: import_books [flags] <catalog.yaml>\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if reset && cfg.Backend == library.BackendSQLite {
		fmt.Println("Cleaning up existing database files...")
		for _, file := range []string{cfg.DBPath, cfg.DBPath + "-shm", cfg.DBPath + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
		fmt.Println("Database cleanup complete.")
	}

	entries, err := readCatalog(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog: %v\n", err)
		return 1
	}

	kv, closeKV, err := library.OpenKV(cfg.Manager())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer func() {
		if err := closeKV(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}()

	store, err := library.Open(kv, library.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading library: %v\n", err)
		return 1
	}

	fmt.Printf("Importing %d books from %s...\n", len(entries), pflag.Arg(0))
	res := importCatalog(store, entries, func(e catalogEntry, b library.Book, err error) {
		fmt.Printf("Importing: %s by %s... ", e.Title, e.Author)
		switch {
		case err != nil:
			fmt.Printf("ERROR - %v\n", err)
		case b.ID == "":
			fmt.Println("SKIPPED (already in catalog)")
		default:
			fmt.Printf("SUCCESS (ID: %s)\n", b.ID)
		}
	})

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", res.imported)
	fmt.Printf("Skipped: %d\n", res.skipped)
	fmt.Printf("Errors: %d\n", res.failed)

	if res.imported > 0 {
		fmt.Println("\nCatalog:")
		fmt.Printf("%-36s %-40s %-25s %s\n", "ID", "Title", "Author", "Copies")
		fmt.Println(strings.Repeat("-", 110))
		for _, book := range store.Books() {
			fmt.Printf("%-36s %-40s %-25s %d\n", book.ID, library.Truncate(book.Title, 40), library.Truncate(book.Author, 25), book.TotalCopies)
		}
	}
	if res.failed > 0 {
		return 1
	}
	return 0
}
