package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-rentals/library"
)

const sampleCatalog = `
books:
  - title: The Hobbit
    author: J.R.R. Tolkien
    genre: Fantasy
    year: 1937
    copies: 3
    description: There and back again.
  - title: Dune
    author: Frank Herbert
    genre: Science Fiction
    year: 1965
  - title: ""
    author: Nobody
`

func TestParseCatalog(t *testing.T) {
	entries, err := parseCatalog([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, catalogEntry{
		Title:       "The Hobbit",
		Author:      "J.R.R. Tolkien",
		Genre:       "Fantasy",
		Year:        1937,
		Copies:      3,
		Description: "There and back again.",
	}, entries[0])

	_, err = parseCatalog([]byte("books: ["))
	assert.ErrorContains(t, err, "parse catalog")
}

func TestImportCatalogSkipsExistingBooks(t *testing.T) {
	entries, err := parseCatalog([]byte(sampleCatalog))
	require.NoError(t, err)
	store, err := library.Open(library.NewMemoryKV())
	require.NoError(t, err)

	var reported int
	report := func(catalogEntry, library.Book, error) { reported++ }

	res := importCatalog(store, entries, report)
	assert.Equal(t, importResult{imported: 2, failed: 1}, res)
	assert.Equal(t, 3, reported)

	books := store.Books()
	require.Len(t, books, 2)
	assert.Equal(t, 3, books[0].AvailableCopies)
	assert.Equal(t, 1, books[1].TotalCopies, "copies default to one")

	res = importCatalog(store, entries, report)
	assert.Equal(t, importResult{skipped: 2, failed: 1}, res)
	assert.Len(t, store.Books(), 2)
}
