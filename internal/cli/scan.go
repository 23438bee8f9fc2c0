package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
)

// ScanCmd returns the scan command
func ScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Record where the logos sit in every source form",
		Long: `Scan every .docx in the forms folder whose name starts with the document
prefix and record each picture found in a header or footer. The result
replaces the position data file. Source forms are opened read-only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())
			out := cmd.OutOrStdout()

			// A failed scan leaves the previous position data in place.
			ds, err := scanner.New(nil, log).ScanFolder(cfg.FormsDir, cfg.DocPrefix)
			if err != nil {
				return err
			}
			store := positions.NewStore(cfg.PositionsFile)
			if err := store.Save(ds); err != nil {
				return err
			}

			for _, name := range ds.Names() {
				recs, _ := ds.Get(name)
				if len(recs) == 0 {
					fmt.Fprintf(out, "%s %s: no logos found\n", warnMark, name)
					continue
				}
				fmt.Fprintf(out, "%s %s: %d logo position(s)\n", okMark, name, len(recs))
				for _, r := range recs {
					fmt.Fprintf(out, "    %s\n", r)
				}
			}
			fmt.Fprintf(out, "\nScanned %d document(s), %d logo position(s). Saved to %s\n", ds.Len(), ds.Total(), store.Path())
			printSourceNote(out)
			return nil
		},
	}
}
