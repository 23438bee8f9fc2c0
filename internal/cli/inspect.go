package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
)

const previewLines = 10

// InspectCmd returns the inspect command
func InspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the logo positions in one document and preview its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())
			out := cmd.OutOrStdout()

			doc, err := ooxml.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			name := filepath.Base(args[0])

			sections, err := doc.Sections()
			if err != nil {
				return err
			}
			recs := scanner.New(nil, log).Scan(doc, name)
			fmt.Fprintf(out, "%s: %d section(s), %d logo position(s)\n", name, len(sections), len(recs))
			for _, r := range recs {
				fmt.Fprintf(out, "  %s %s\n", okMark, r)
			}

			text, err := doc.BodyText()
			if err != nil {
				fmt.Fprintf(out, "%s body preview unavailable: %v\n", warnMark, err)
				return nil
			}
			lines := strings.Split(text, "\n")
			if len(lines) > previewLines {
				lines = append(lines[:previewLines], "...")
			}
			fmt.Fprintln(out, "\nBody:")
			for _, l := range lines {
				fmt.Fprintf(out, "  %s\n", l)
			}
			return nil
		},
	}
}
