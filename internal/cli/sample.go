package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/sample"
)

// SampleCmd returns the sample command
func SampleCmd() *cobra.Command {
	var logoPath, name, title string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a sample source form with a logo in its header and footer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			opts := sample.Options{
				Title:       title,
				HeaderWidth: ooxml.Inches(cfg.HeaderWidthIn),
				FooterWidth: ooxml.Inches(cfg.FooterWidthIn),
			}
			if logoPath == "" {
				if paths, err := imaging.List(cfg.LogosDir); err == nil && len(paths) > 0 {
					logoPath = paths[0]
				}
			}
			if logoPath != "" {
				img, err := imaging.Load(logoPath)
				if err != nil {
					return err
				}
				opts.Logo = img
				fmt.Fprintf(out, "Using logo: %s\n", img.Name)
			} else {
				fmt.Fprintf(out, "%s No logo found, using a text placeholder\n", warnMark)
			}

			if err := os.MkdirAll(cfg.FormsDir, 0o755); err != nil {
				return fmt.Errorf("create forms dir: %w", err)
			}
			path := filepath.Join(cfg.FormsDir, name)
			if err := sample.Write(path, opts); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Created sample document: %s\n", okMark, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&logoPath, "logo", "", "image for the header and footer (default: first file in the logos folder)")
	cmd.Flags().StringVar(&name, "name", sample.DefaultName, "file name inside the forms folder")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	return cmd
}
