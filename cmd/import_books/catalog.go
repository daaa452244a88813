package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"library-rentals/library"
)

// catalogEntry is one book of a YAML catalog file.
type catalogEntry struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Genre       string `yaml:"genre"`
	Year        int    `yaml:"year"`
	Copies      int    `yaml:"copies"`
	Description string `yaml:"description"`
}

type catalogFile struct {
	Books []catalogEntry `yaml:"books"`
}

func readCatalog(path string) ([]catalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) ([]catalogEntry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return f.Books, nil
}

type importResult struct {
	imported, skipped, failed int
}

// importCatalog adds every entry not already in the catalog (same title and
// author, ignoring case). report is called once per entry; a skipped entry
// is reported with a zero Book.
func importCatalog(store *library.Store, entries []catalogEntry, report func(catalogEntry, library.Book, error)) importResult {
	var res importResult
	for _, e := range entries {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Author) == "" {
			res.failed++
			report(e, library.Book{}, errors.New("title and author are required"))
			continue
		}
		if inCatalog(store, e) {
			res.skipped++
			report(e, library.Book{}, nil)
			continue
		}
		copies := e.Copies
		if copies < 1 {
			copies = 1
		}
		b, err := store.AddBook(library.BookFields{
			Title:           e.Title,
			Author:          e.Author,
			Genre:           e.Genre,
			PublishedYear:   e.Year,
			TotalCopies:     copies,
			AvailableCopies: copies,
			Description:     e.Description,
		})
		if err != nil {
			res.failed++
			report(e, library.Book{}, err)
			continue
		}
		res.imported++
		report(e, b, nil)
	}
	return res
}

func inCatalog(store *library.Store, e catalogEntry) bool {
	for _, b := range store.SearchBooks(e.Title, "") {
		if strings.EqualFold(b.Title, e.Title) && strings.EqualFold(b.Author, e.Author) {
			return true
		}
	}
	return false
}
