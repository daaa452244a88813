package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-rentals/library"
)

func newDashboardCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Library overview and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, recent, err := a.mgr.Dashboard()
			if err != nil {
				return userError("dashboard", err)
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, struct {
				Stats  library.Stats        `json:"stats"`
				Recent []library.RentalView `json:"recent"`
			}{stats, recent}); done {
				return err
			}
			fmt.Fprintf(w, "Books:    %d titles, %d of %d copies on the shelf\n", stats.Books, stats.AvailableCopies, stats.TotalCopies)
			fmt.Fprintf(w, "Members:  %d\n", stats.Members)
			fmt.Fprintf(w, "Rentals:  %d active, %d overdue, %d total\n", stats.ActiveRentals, stats.OverdueRentals, stats.TotalRentals)
			fmt.Fprintln(w, "\nRecent activity:")
			printRentals(w, recent)
			return nil
		},
	}
}
