package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/config"
	"github.com/KevinLongeway/Safe2Day/internal/pipeline"
	"github.com/KevinLongeway/Safe2Day/internal/report"
)

// ApplyCmd returns the apply command
func ApplyCmd() *cobra.Command {
	var noRender, writeReport bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create client copies with the selected logo and render PDFs",
		Long: `Copy every source form into the client forms folder, replace the recorded
logo positions in each copy with the selected logo and render a PDF of each
copy. Run 'safe2day scan' and 'safe2day select' first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noRender {
				cfg.Render = false
			}
			if cmd.Flags().Changed("report") {
				cfg.Report = writeReport
			}
			return runApply(cmd.Context(), cfg, cmd.OutOrStdout(), newLogger(cfg, cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().BoolVar(&noRender, "no-render", false, "skip PDF rendering")
	cmd.Flags().BoolVar(&writeReport, "report", false, "write report.md and report.html into the PDF folder")
	return cmd
}

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var noRender bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Pick a logo from a menu, then apply it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noRender {
				cfg.Render = false
			}
			out := cmd.OutOrStdout()
			rule := strings.Repeat("-", 60)

			fmt.Fprintf(out, "STEP 1: Logo Selection\n%s\n", rule)
			if _, err := selectLogo(cfg, "", cmd.InOrStdin(), out); err != nil {
				if errors.Is(err, errCancelled) {
					return fmt.Errorf("no logo selected")
				}
				return err
			}

			fmt.Fprintf(out, "\nSTEP 2: Document Formatting\n%s\n", rule)
			return runApply(cmd.Context(), cfg, out, newLogger(cfg, cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().BoolVar(&noRender, "no-render", false, "skip PDF rendering")
	return cmd
}

func runApply(ctx context.Context, cfg config.Config, out io.Writer, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := newReportingRunner(newPipeline(cfg, log), cfg, log)
	sum, err := runner.Run(ctx)
	if sum != nil {
		printSummary(out, sum)
	}
	printSourceNote(out)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", sum.Failed, sum.Found)
	}
	return nil
}

// reportingRunner writes the batch report after each run when enabled.
type reportingRunner struct {
	runner  pipeline.Runner
	dir     string
	enabled bool
	log     *slog.Logger
}

func newReportingRunner(r pipeline.Runner, cfg config.Config, log *slog.Logger) *reportingRunner {
	return &reportingRunner{runner: r, dir: cfg.PDFDir, enabled: cfg.Report, log: log}
}

func (r *reportingRunner) Run(ctx context.Context) (*pipeline.Summary, error) {
	sum, err := r.runner.Run(ctx)
	if sum == nil || !r.enabled {
		return sum, err
	}
	md, html, rerr := report.Write(r.dir, sum)
	if rerr != nil {
		r.log.Warn("report not written", "error", rerr)
	} else {
		r.log.Info("report written", "markdown", md, "html", html)
	}
	return sum, err
}

func printSummary(w io.Writer, sum *pipeline.Summary) {
	fmt.Fprintf(w, "Logo: %s\n\n", sum.Logo)
	for _, d := range sum.Documents {
		mark := okMark
		switch d.Status {
		case pipeline.StatusPartial:
			mark = warnMark
		case pipeline.StatusFailed:
			mark = failMark
		}
		fmt.Fprintf(w, "%s %s: %d replaced, %d skipped", mark, d.Name, d.Replaced, d.Skipped)
		if d.PDFPath != "" {
			fmt.Fprintf(w, ", PDF %s", d.PDFPath)
		}
		fmt.Fprintln(w)
		for _, e := range d.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	fmt.Fprintf(w, "\nProcessed %d of %d document(s), %d logo(s) replaced in %s\n", sum.Processed, sum.Found, sum.Replaced, sum.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  Word copies: %s\n", sum.CopyDir)
	fmt.Fprintf(w, "  PDFs:        %s\n", sum.PDFDir)
}
