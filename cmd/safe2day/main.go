package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "safe2day",
		Short: "Safe2Day - put a client's logo into copies of the S2D forms",
		Long: `Safe2Day records where the logos sit in the headers and footers of the S2D
forms, then produces client copies carrying a chosen client logo at those
positions, plus a PDF of every copy.

Source documents in the forms folder are never modified.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Workflow
	rootCmd.AddCommand(cli.ScanCmd())
	rootCmd.AddCommand(cli.LogosCmd())
	rootCmd.AddCommand(cli.SelectCmd())
	rootCmd.AddCommand(cli.ApplyCmd())
	rootCmd.AddCommand(cli.RunCmd())

	// Tools
	rootCmd.AddCommand(cli.SampleCmd())
	rootCmd.AddCommand(cli.InspectCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
