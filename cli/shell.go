package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one open library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell(cmd.OutOrStdout())
		},
	}
}

// shell reads one command per line and runs it as if it had been given on
// the command line, keeping the library open between commands.
func (a *app) shell(w io.Writer) error {
	fmt.Fprintln(w, "Welcome to the Library Management System!")
	fmt.Fprintln(w, "Type a command without the leading 'library' (for example: book list), 'help', or 'exit'.")

	for {
		fmt.Fprint(w, "\n> ")
		line, err := a.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			return err
		}

		args, perr := splitArgs(line)
		if perr != nil {
			fmt.Fprintf(w, "Error: %v\n", perr)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			fmt.Fprintln(w, "Goodbye!")
			return nil
		case "shell":
			fmt.Fprintln(w, "Already in the shell.")
			continue
		}
		if err := a.execute(args); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
}

// splitArgs splits a shell line on whitespace, keeping single- or
// double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
