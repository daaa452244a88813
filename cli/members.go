package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"library-rentals/library"
)

func newMemberCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the member roster",
	}

	var name, email, phone, address string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr.AddMember(library.MemberFields{
				Name:    strings.TrimSpace(name),
				Email:   strings.TrimSpace(email),
				Phone:   strings.TrimSpace(phone),
				Address: strings.TrimSpace(address),
			})
			if err != nil {
				return userError("add member", err)
			}
			if done, err := a.emit(cmd.OutOrStdout(), m); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member '%s' with ID %s\n", m.Name, m.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "member name")
	add.Flags().StringVar(&email, "email", "", "member email")
	add.Flags().StringVar(&phone, "phone", "", "phone number")
	add.Flags().StringVar(&address, "address", "", "postal address")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := a.mgr.Members()
			if err != nil {
				return userError("list members", err)
			}
			w := cmd.OutOrStdout()
			if done, err := a.emit(w, members); done {
				return err
			}
			if len(members) == 0 {
				fmt.Fprintln(w, "No members registered.")
				return nil
			}
			fmt.Fprintf(w, "%-36s %-25s %-30s %-15s %s\n", "ID", "Name", "Email", "Phone", "Active rentals")
			fmt.Fprintln(w, strings.Repeat("-", 125))
			for _, m := range members {
				active := 0
				for _, r := range a.mgr.Store().RentalsForMember(m.ID) {
					if r.Status == library.StatusActive {
						active++
					}
				}
				fmt.Fprintf(w, "%-36s %-25s %-30s %-15s %d\n",
					m.ID, library.Truncate(m.Name, 25), library.Truncate(m.Email, 30), library.Truncate(orNone(m.Phone), 15), active)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <member-id>",
		Short: "Show a member and their rentals",
		Args:  requireArg("member id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, views, err := a.mgr.Member(args[0])
			if err != nil {
				return userError("show member", err)
			}
			if err := a.printMember(cmd, m); err != nil || a.opts.Format == "json" {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			printRentals(cmd.OutOrStdout(), views)
			return nil
		},
	}

	var uName, uEmail, uPhone, uAddress string
	update := &cobra.Command{
		Use:   "update <member-id>",
		Short: "Change a member's details",
		Args:  requireArg("member id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p library.MemberPatch
			changed := cmd.Flags().Changed
			if changed("name") {
				p.Name = &uName
			}
			if changed("email") {
				p.Email = &uEmail
			}
			if changed("phone") {
				p.Phone = &uPhone
			}
			if changed("address") {
				p.Address = &uAddress
			}
			if err := a.mgr.UpdateMember(args[0], p); err != nil {
				return userError("update member", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Member %s updated\n", args[0])
			return nil
		},
	}
	update.Flags().StringVar(&uName, "name", "", "member name")
	update.Flags().StringVar(&uEmail, "email", "", "member email")
	update.Flags().StringVar(&uPhone, "phone", "", "phone number")
	update.Flags().StringVar(&uAddress, "address", "", "postal address")

	del := &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Remove a member and their rentals",
		Args:  requireArg("member id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.DeleteMember(args[0]); err != nil {
				return userError("delete member", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Member %s deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, show, update, del)
	return cmd
}
