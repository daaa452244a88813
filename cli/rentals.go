package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"library-rentals/library"
)

func newRentalCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rental",
		Short: "Manage rentals (librarians)",
	}
	cmd.AddCommand(newRentalAddCommand(a))
	cmd.AddCommand(newRentalListCommand(a))
	cmd.AddCommand(newRentalUpdateCommand(a))
	cmd.AddCommand(newRentalDeleteCommand(a))
	cmd.AddCommand(newReturnCommand(a))
	return cmd
}

func newRentalAddCommand(a *app) *cobra.Command {
	var bookID, memberID, date, due, notes string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Lend a copy of a book to a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := library.RentalFields{BookID: bookID, MemberID: memberID, Notes: notes}
			var err error
			if date != "" {
				if f.RentalDate, err = parseDate("date", date); err != nil {
					return err
				}
			}
			if due != "" {
				if f.DueDate, err = parseDate("due", due); err != nil {
					return err
				}
			}
			r, err := a.mgr.CheckoutBook(f)
			if err != nil {
				return userError("add rental", err)
			}
			v := a.mgr.Store().Describe(r, a.mgr.Now())
			if done, err := a.emit(cmd.OutOrStdout(), v); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' checked out to %s until %s (rental %s)\n",
				v.BookTitle, v.MemberName, formatDate(r.DueDate), r.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "book id (required)")
	cmd.Flags().StringVar(&memberID, "member", "", "member id (required)")
	cmd.Flags().StringVar(&date, "date", "", "rental date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (default rental date + loan period)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newRentalListCommand(a *app) *cobra.Command {
	var memberID, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rentals",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.mgr.Rentals(library.RentalStatus(status))
			if err != nil {
				return userError("list rentals", err)
			}
			if memberID != "" {
				views = slices.DeleteFunc(views, func(v library.RentalView) bool { return v.MemberID != memberID })
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, views); done {
				return err
			}
			printRentals(w, views)
			return nil
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "only this member's rentals")
	cmd.Flags().StringVar(&status, "status", "", "only rentals shown with this status (active|returned|overdue)")
	return cmd
}

func newRentalUpdateCommand(a *app) *cobra.Command {
	var due, notes, status string
	cmd := &cobra.Command{
		Use:   "update <rental-id>",
		Short: "Change a rental's due date, notes or status",
		Args:  requireArg("rental id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p library.RentalPatch
			changed := cmd.Flags().Changed
			if changed("due") {
				t, err := parseDate("due", due)
				if err != nil {
					return err
				}
				p.DueDate = &t
			}
			if changed("notes") {
				p.Notes = &notes
			}
			if changed("status") {
				p.Status = library.Ptr(library.RentalStatus(status))
			}
			if err := a.mgr.UpdateRental(args[0], p); err != nil {
				return userError("update rental", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rental %s updated\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "new due date YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	cmd.Flags().StringVar(&status, "status", "", "new status (active|returned)")
	return cmd
}

func newRentalDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rental-id>",
		Short: "Remove a rental, returning its copy if still active",
		Args:  requireArg("rental id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.DeleteRental(args[0]); err != nil {
				return userError("delete rental", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rental %s deleted\n", args[0])
			return nil
		},
	}
}

// ------------------ Member self-service ------------------

func newRentCommand(a *app) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "rent <book-id>",
		Short: "Rent a copy of a book for yourself",
		Args:  requireArg("book id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.mgr.RentBook(args[0], notes)
			if err != nil {
				return userError("rent", err)
			}
			v := a.mgr.Store().Describe(r, a.mgr.Now())
			if done, err := a.emit(cmd.OutOrStdout(), v); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rented '%s'. Please return it by %s (rental %s)\n",
				v.BookTitle, formatDate(r.DueDate), r.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newReturnCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <rental-id>",
		Short: "Return a rented book",
		Args:  requireArg("rental id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.mgr.ReturnBook(args[0])
			if err != nil {
				return userError("return", err)
			}
			v := a.mgr.Store().Describe(r, a.mgr.Now())
			if done, err := a.emit(cmd.OutOrStdout(), v); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' returned by %s\n", v.BookTitle, v.MemberName)
			return nil
		},
	}
}

func newMyRentalsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "my-rentals",
		Short: "List your rentals",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.mgr.MyRentals()
			if err != nil {
				return userError("my rentals", err)
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, views); done {
				return err
			}
			active, returned := 0, 0
			for _, v := range views {
				if v.Status == library.StatusReturned {
					returned++
				} else {
					active++
				}
			}
			fmt.Fprintf(w, "Active: %d | Returned: %d | Total: %d\n\n", active, returned, len(views))
			printRentals(w, views)
			return nil
		},
	}
}

func printRentals(w io.Writer, views []library.RentalView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No rentals.")
		return
	}
	fmt.Fprintf(w, "%-36s %-30s %-20s %-10s %-10s %-9s %s\n", "ID", "Book", "Member", "Rented", "Due", "Status", "Days left")
	fmt.Fprintln(w, strings.Repeat("-", 130))
	for _, v := range views {
		days := "-"
		if v.Status == library.StatusActive {
			days = fmt.Sprintf("%d", v.DaysRemaining)
		}
		fmt.Fprintf(w, "%-36s %-30s %-20s %-10s %-10s %-9s %s\n",
			v.ID,
			library.Truncate(v.BookTitle, 30),
			library.Truncate(v.MemberName, 20),
			formatDate(v.RentalDate),
			formatDate(v.DueDate),
			v.DisplayStatus,
			days)
	}
}
