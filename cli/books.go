package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"library-rentals/library"
)

func newBookCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Browse and manage the catalog",
	}
	cmd.AddCommand(newBookAddCommand(a))
	cmd.AddCommand(newBookListCommand(a))
	cmd.AddCommand(newBookShowCommand(a))
	cmd.AddCommand(newBookUpdateCommand(a))
	cmd.AddCommand(newBookDeleteCommand(a))
	cmd.AddCommand(newBookGenresCommand(a))
	return cmd
}

type bookFlags struct {
	title, author, genre, description string
	year, copies, available           int
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringVar(&f.author, "author", "", "book author")
	cmd.Flags().StringVar(&f.genre, "genre", "", "genre")
	cmd.Flags().StringVar(&f.description, "description", "", "short description")
	cmd.Flags().IntVar(&f.year, "year", time.Now().Year(), "publication year")
	cmd.Flags().IntVar(&f.copies, "copies", 1, "total copies owned")
	cmd.Flags().IntVar(&f.available, "available", -1, "copies on the shelf (default: all)")
}

func newBookAddCommand(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			available := f.available
			if available < 0 {
				available = f.copies
			}
			b, err := a.mgr.AddBook(library.BookFields{
				Title:           strings.TrimSpace(f.title),
				Author:          strings.TrimSpace(f.author),
				Genre:           strings.TrimSpace(f.genre),
				PublishedYear:   f.year,
				TotalCopies:     f.copies,
				AvailableCopies: available,
				Description:     f.description,
			})
			if err != nil {
				return userError("add book", err)
			}
			if done, err := a.emit(cmd.OutOrStdout(), b); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book %q with ID %s\n", b.Title, b.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBookListCommand(a *app) *cobra.Command {
	var search, genre string
	var availableOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.mgr.Catalog(search, genre, availableOnly)
			if err != nil {
				return userError("list books", err)
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, books); done {
				return err
			}
			if len(books) == 0 {
				if search != "" || genre != "" {
					fmt.Fprintln(w, "No books found.")
				} else {
					fmt.Fprintln(w, "No books in library.")
				}
				return nil
			}
			fmt.Fprintf(w, "%-36s %-30s %-25s %-15s %s\n", "ID", "Title", "Author", "Genre", "Available")
			fmt.Fprintln(w, strings.Repeat("-", 120))
			for _, b := range books {
				fmt.Fprintln(w, library.PrettyBook(b))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title, author or genre")
	cmd.Flags().StringVar(&genre, "genre", "", "only this genre")
	cmd.Flags().BoolVar(&availableOnly, "available", false, "only books with copies on the shelf")
	return cmd
}

func newBookShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show one book",
		Args:  requireArg("book id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.mgr.Book(args[0])
			if err != nil {
				return userError("show book", err)
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, b); done {
				return err
			}
			fmt.Fprintf(w, "ID:          %s\n", b.ID)
			fmt.Fprintf(w, "Title:       %s\n", b.Title)
			fmt.Fprintf(w, "Author:      %s\n", b.Author)
			fmt.Fprintf(w, "Genre:       %s\n", orNone(b.Genre))
			fmt.Fprintf(w, "Published:   %d\n", b.PublishedYear)
			fmt.Fprintf(w, "Copies:      %d available of %d\n", b.AvailableCopies, b.TotalCopies)
			fmt.Fprintf(w, "Added:       %s\n", formatDate(b.CreatedAt))
			if b.Description != "" {
				fmt.Fprintf(w, "\n%s\n", b.Description)
			}
			return nil
		},
	}
}

func newBookUpdateCommand(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Change a book's details or copy counts",
		Args:  requireArg("book id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p library.BookPatch
			changed := cmd.Flags().Changed
			if changed("title") {
				p.Title = &f.title
			}
			if changed("author") {
				p.Author = &f.author
			}
			if changed("genre") {
				p.Genre = &f.genre
			}
			if changed("description") {
				p.Description = &f.description
			}
			if changed("year") {
				p.PublishedYear = &f.year
			}
			if changed("copies") {
				p.TotalCopies = &f.copies
			}
			if changed("available") {
				p.AvailableCopies = &f.available
			}
			if err := a.mgr.UpdateBook(args[0], p); err != nil {
				return userError("update book", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %s updated\n", args[0])
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBookDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Remove a book and its rentals",
		Args:  requireArg("book id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.DeleteBook(args[0]); err != nil {
				return userError("delete book", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %s deleted\n", args[0])
			return nil
		},
	}
}

func newBookGenresCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the genres in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			genres, err := a.mgr.Genres()
			if err != nil {
				return userError("list genres", err)
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, genres); done {
				return err
			}
			for _, g := range genres {
				fmt.Fprintln(w, g)
			}
			return nil
		},
	}
}
