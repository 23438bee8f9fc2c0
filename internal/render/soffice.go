package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Soffice converts documents with LibreOffice in headless mode.
type Soffice struct {
	Binary  string
	Timeout time.Duration
	Retries int

	// Backoff is the wait before retry n. Nil means the package Backoff.
	Backoff func(attempt int) time.Duration

	log *slog.Logger
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewSoffice returns a converter using binary ("soffice" when empty).
func NewSoffice(binary string, timeout time.Duration, retries int, log *slog.Logger) *Soffice {
	if binary == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if retries <= 0 {
		retries = MaxRetries
	}
	if log == nil {
		log = slog.Default()
	}
	return &Soffice{Binary: binary, Timeout: timeout, Retries: retries, log: log, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Render converts docPath into outDir, retrying transient failures, and
// checks the produced PDF opens.
func (s *Soffice) Render(ctx context.Context, docPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create pdf dir: %w", err)
	}
	out := filepath.Join(outDir, PDFName(docPath))
	backoff := s.Backoff
	if backoff == nil {
		backoff = Backoff
	}

	var lastErr error
	for attempt := range s.Retries {
		lastErr = s.convert(ctx, docPath, outDir, out, attempt)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		s.log.Warn("retryable render error", "doc", filepath.Base(docPath), "attempt", attempt, "error", lastErr)
		if attempt == s.Retries-1 {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("render %s: %w", filepath.Base(docPath), lastErr)
	}

	pages, err := Verify(out)
	if err != nil {
		return "", fmt.Errorf("verify %s: %w", filepath.Base(out), err)
	}
	s.log.Debug("rendered", "pdf", out, "pages", pages)
	return out, nil
}

func (s *Soffice) convert(ctx context.Context, docPath, outDir, out string, attempt int) error {
	runCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	_ = os.Remove(out)
	output, err := s.run(runCtx, s.Binary, "--headless", "--convert-to", "pdf", "--outdir", outDir, docPath)
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%s not installed: %w", s.Binary, err)
	case ctx.Err() != nil:
		return ctx.Err()
	case runCtx.Err() != nil:
		return &RetryableError{Attempt: attempt, Err: fmt.Errorf("timed out after %s", s.Timeout)}
	case err != nil:
		return &RetryableError{Attempt: attempt, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))}
	}
	if _, err := os.Stat(out); err != nil {
		return &RetryableError{Attempt: attempt, Err: fmt.Errorf("no pdf produced: %s", strings.TrimSpace(string(output)))}
	}
	return nil
}
