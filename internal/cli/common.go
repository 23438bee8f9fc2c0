// Package cli holds the safe2day cobra commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/config"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/pipeline"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/render"
	"github.com/KevinLongeway/Safe2Day/internal/replace"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
)

// globalFlags override the environment configuration for every command.
type globalFlags struct {
	formsDir       string
	logosDir       string
	clientFormsDir string
	pdfDir         string
	positionsFile  string
	selectionFile  string
	prefix         string
	logLevel       string
	logFormat      string
}

var global globalFlags

// BindGlobalFlags registers the folder and logging flags on the root command.
func BindGlobalFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&global.formsDir, "forms-dir", "", "source forms folder (never modified)")
	f.StringVar(&global.logosDir, "logos-dir", "", "folder of candidate client logos")
	f.StringVar(&global.clientFormsDir, "client-forms-dir", "", "output folder for client copies")
	f.StringVar(&global.pdfDir, "pdf-dir", "", "output folder for PDFs")
	f.StringVar(&global.positionsFile, "positions-file", "", "logo position data file")
	f.StringVar(&global.selectionFile, "selection-file", "", "logo selection file")
	f.StringVar(&global.prefix, "prefix", "", "only process documents whose names start with this")
	f.StringVar(&global.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&global.logFormat, "log-format", "", "json or text")
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.FormsDir, global.formsDir)
	override(&cfg.LogosDir, global.logosDir)
	override(&cfg.ClientFormsDir, global.clientFormsDir)
	override(&cfg.PDFDir, global.pdfDir)
	override(&cfg.PositionsFile, global.positionsFile)
	override(&cfg.SelectionFile, global.selectionFile)
	override(&cfg.DocPrefix, global.prefix)
	override(&cfg.LogLevel, global.logLevel)
	override(&cfg.LogFormat, global.logFormat)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newPipeline(cfg config.Config, log *slog.Logger) *pipeline.Pipeline {
	engine := replace.NewEngine(replace.Options{
		HeaderWidth: ooxml.Inches(cfg.HeaderWidthIn),
		FooterWidth: ooxml.Inches(cfg.FooterWidthIn),
	}, log)

	var renderer render.Renderer = render.Noop{}
	if cfg.Render {
		renderer = render.NewSoffice(cfg.Soffice, cfg.RenderTimeout, cfg.RenderRetries, log)
	}

	return pipeline.New(pipeline.Options{
		SourceDir: cfg.FormsDir,
		CopyDir:   cfg.ClientFormsDir,
		PDFDir:    cfg.PDFDir,
		Prefix:    cfg.DocPrefix,
	}, positions.NewStore(cfg.PositionsFile), selection.NewStore(cfg.SelectionFile), engine, renderer, log)
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	failMark = color.New(color.FgRed).Sprint("✗")
)

func printSourceNote(w io.Writer) {
	fmt.Fprintf(w, "%s Source documents in the forms folder were NOT modified.\n", color.New(color.FgCyan).Sprint("i"))
}
