package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-rentals/library"
)

func newRegisterCommand(a *app) *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := library.Role(role)
			if r != library.RoleUser && r != library.RoleAdmin {
				return exitErrorf(ExitCommandError, "invalid role %q: must be user or admin", role)
			}
			password, err := a.readPassword(fmt.Sprintf("Enter password for %s: ", email))
			if err != nil {
				return wrapExit(ExitCommandError, "register", err)
			}
			ok, err := a.mgr.Register(email, password, name, r)
			if err != nil {
				return userError("register", err)
			}
			if !ok {
				return exitErrorf(ExitFailure, "an account with email %s already exists", email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s) and logged in\n", name, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&role, "role", string(library.RoleUser), "account role (user|admin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readPassword("Enter your password: ")
			if err != nil {
				return wrapExit(ExitCommandError, "login", err)
			}
			ok, err := a.mgr.Login(email, password)
			if err != nil {
				return userError("login", err)
			}
			if !ok {
				return exitErrorf(ExitFailure, "invalid email or password")
			}
			id, _ := a.mgr.Whoami()
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (%s)\n", id.Name, id.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Logout(); err != nil {
				return userError("logout", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := a.mgr.Whoami()
			if !ok {
				return userError("whoami", library.ErrNotAuthenticated)
			}
			if done, err := a.emit(cmd.OutOrStdout(), id); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s\n", id.Name, id.Email, id.Role)
			return nil
		},
	}
}

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your member profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr.CurrentMember()
			if err != nil {
				return userError("profile", err)
			}
			return a.printMember(cmd, m)
		},
	}

	var name, phone, address string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name, phone or address",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p library.MemberPatch
			if cmd.Flags().Changed("name") {
				p.Name = &name
			}
			if cmd.Flags().Changed("phone") {
				p.Phone = &phone
			}
			if cmd.Flags().Changed("address") {
				p.Address = &address
			}
			if err := a.mgr.UpdateProfile(p); err != nil {
				return userError("update profile", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "new display name")
	update.Flags().StringVar(&phone, "phone", "", "new phone number")
	update.Flags().StringVar(&address, "address", "", "new postal address")
	cmd.AddCommand(update)
	return cmd
}

func (a *app) printMember(cmd *cobra.Command, m library.Member) error {
	w := cmd.OutOrStdout()
	if done, err := a.emit(w, m); done {
		return err
	}
	fmt.Fprintf(w, "ID:       %s\n", m.ID)
	fmt.Fprintf(w, "Name:     %s\n", m.Name)
	fmt.Fprintf(w, "Email:    %s\n", m.Email)
	fmt.Fprintf(w, "Phone:    %s\n", orNone(m.Phone))
	fmt.Fprintf(w, "Address:  %s\n", orNone(m.Address))
	fmt.Fprintf(w, "Joined:   %s\n", formatDate(m.JoinDate))
	return nil
}
