package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/config"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
)

// errCancelled is returned when the user backs out of the logo menu.
var errCancelled = errors.New("selection cancelled")

// LogosCmd returns the logos command
func LogosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logos",
		Short: "List the candidate client logos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			candidates, err := selection.Candidates(cfg.LogosDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintf(out, "%s No logo files found in %s\n", warnMark, cfg.LogosDir)
				return nil
			}
			current, _ := selection.NewStore(cfg.SelectionFile).Load()
			for i, c := range candidates {
				marker := " "
				if c.LogoPath == current.LogoPath {
					marker = color.New(color.FgGreen).Sprint("*")
				}
				fmt.Fprintf(out, "%s %d. %s\n", marker, i+1, c.LogoName)
			}
			return nil
		},
	}
}

// SelectCmd returns the select command
func SelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select [NAME|NUMBER]",
		Short: "Choose the logo to put into the client copies",
		Long: `Save which logo from the logos folder should replace the logos in the client
copies. Pass a file name or its number from 'safe2day logos', or run without
arguments to pick from a menu.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			choice := ""
			if len(args) == 1 {
				choice = args[0]
			}
			_, err = selectLogo(cfg, choice, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, errCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Selection cancelled.")
				return nil
			}
			return err
		},
	}
}

// selectLogo saves the chosen logo. An empty choice shows the menu.
func selectLogo(cfg config.Config, choice string, in io.Reader, out io.Writer) (selection.Selection, error) {
	candidates, err := selection.Candidates(cfg.LogosDir)
	if err != nil {
		return selection.Selection{}, err
	}
	if len(candidates) == 0 {
		return selection.Selection{}, fmt.Errorf("no logo files found in %s (supported: .png, .jpg, .jpeg, .bmp, .gif, .tiff)", cfg.LogosDir)
	}

	var sel selection.Selection
	if choice == "" {
		sel, err = promptLogo(candidates, in, out)
	} else {
		sel, err = selection.Choose(candidates, choice)
	}
	if err != nil {
		return selection.Selection{}, err
	}
	if err := sel.Validate(); err != nil {
		return selection.Selection{}, err
	}

	store := selection.NewStore(cfg.SelectionFile)
	if err := store.Save(sel); err != nil {
		return selection.Selection{}, err
	}
	fmt.Fprintf(out, "%s Selected: %s\n", okMark, sel.LogoName)
	fmt.Fprintf(out, "%s Selection saved to: %s\n", okMark, store.Path())
	return sel, nil
}

// promptLogo shows a numbered menu with a final Cancel entry and asks until
// it gets a valid number.
func promptLogo(candidates []selection.Selection, in io.Reader, out io.Writer) (selection.Selection, error) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(out, "%s\nAvailable Client Logos:\n%s\n", rule, rule)
	for i, c := range candidates {
		fmt.Fprintf(out, "%d. %s\n", i+1, c.LogoName)
	}
	cancel := len(candidates) + 1
	fmt.Fprintf(out, "%d. Cancel\n%s\n", cancel, rule)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nSelect a logo number: ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return selection.Selection{}, fmt.Errorf("read choice: %w", err)
			}
			return selection.Selection{}, errCancelled
		}
		n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		switch {
		case err != nil:
			fmt.Fprintln(out, "Please enter a valid number")
		case n == cancel:
			return selection.Selection{}, errCancelled
		case n >= 1 && n <= len(candidates):
			return candidates[n-1], nil
		default:
			fmt.Fprintf(out, "Please enter a number between 1 and %d\n", cancel)
		}
	}
}
