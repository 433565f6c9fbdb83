package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

var (
	// ErrCompilerNotFound is returned when the typst binary is missing.
	ErrCompilerNotFound = errors.New("typst compiler not found")
	// ErrNoOutput is returned when a compile produced no pages.
	ErrNoOutput = errors.New("no output generated")
)

// CompileError carries the compiler diagnostics of a failed compile.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return e.Message
}

// Exporter produces downloadable artifacts from Typst source.
type Exporter interface {
	Export(ctx context.Context, source string, format models.ExportFormat) ([]byte, error)
}

// DefaultTimeout bounds a single typst invocation.
const DefaultTimeout = 30 * time.Second

// runFunc executes the compiler and returns its stderr.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// TypstCLI compiles through the typst binary. It implements the preview
// compiler and Exporter.
type TypstCLI struct {
	Binary  string
	Timeout time.Duration
	// TempDir is where per-compile scratch directories are created.
	// Empty means os.TempDir.
	TempDir string

	logger *zap.Logger
	run    runFunc
}

// Option configures a TypstCLI.
type Option func(*TypstCLI)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *TypstCLI) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(t *TypstCLI) {
		t.Timeout = d
	}
}

// WithTempDir sets the scratch directory root.
func WithTempDir(dir string) Option {
	return func(t *TypstCLI) {
		t.TempDir = dir
	}
}

// NewTypstCLI returns a compiler for binary ("typst" when empty).
func NewTypstCLI(binary string, opts ...Option) *TypstCLI {
	if binary == "" {
		binary = "typst"
	}
	t := &TypstCLI{
		Binary:  binary,
		Timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		run:     execRun,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("typst")
	return t
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Compile renders source into preview markup. Compiler failures are
// reported in the result; the error is non-nil only when ctx ends first.
func (t *TypstCLI) Compile(ctx context.Context, source string) (models.RenderResult, error) {
	if strings.TrimSpace(source) == "" {
		return models.RenderResult{HTML: PlaceholderHTML}, nil
	}

	start := time.Now()
	pages, err := t.SVGPages(ctx, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.RenderResult{}, ctxErr
		}
		msg := failureMessage(err)
		t.logger.Debug("compile failed", zap.String("error", msg), zap.Duration("duration", time.Since(start)))
		return models.RenderResult{HTML: ErrorHTML(msg), Err: msg}, nil
	}

	t.logger.Debug("compile finished", zap.Int("pages", len(pages)), zap.Duration("duration", time.Since(start)))
	return models.RenderResult{HTML: PageStackHTML(pages), Pages: len(pages)}, nil
}

func failureMessage(err error) string {
	var ce *CompileError
	switch {
	case errors.Is(err, ErrCompilerNotFound):
		return MsgCompilerNotFound
	case errors.Is(err, ErrNoOutput):
		return MsgNoOutput
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimedOut
	case errors.As(err, &ce):
		return ce.Message
	}
	return err.Error()
}

// SVGPages compiles source and returns one SVG document per page.
func (t *TypstCLI) SVGPages(ctx context.Context, source string) ([]string, error) {
	var pages []string
	err := t.withScratch(source, func(dir, input string) error {
		if err := t.invoke(ctx, input, filepath.Join(dir, "page{n}.svg")); err != nil {
			return err
		}
		var err error
		pages, err = readPages(dir)
		return err
	})
	return pages, err
}

// PDF compiles source into a PDF document.
func (t *TypstCLI) PDF(ctx context.Context, source string) ([]byte, error) {
	var out []byte
	err := t.withScratch(source, func(dir, input string) error {
		output := filepath.Join(dir, "document.pdf")
		if err := t.invoke(ctx, input, output); err != nil {
			return err
		}
		data, err := os.ReadFile(output)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNoOutput
			}
			return fmt.Errorf("failed to read pdf: %w", err)
		}
		out = data
		return nil
	})
	return out, err
}

// Export produces the artifact for format.
func (t *TypstCLI) Export(ctx context.Context, source string, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.FormatPDF:
		return t.PDF(ctx, source)
	case models.FormatSVG:
		pages, err := t.SVGPages(ctx, source)
		if err != nil {
			return nil, err
		}
		return []byte(pages[0]), nil
	case models.FormatHTML:
		pages, err := t.SVGPages(ctx, source)
		if err != nil {
			return nil, err
		}
		return []byte(DocumentHTML("", pages, source)), nil
	case models.FormatDOCX:
		return DOCX(source)
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, format)
}

func (t *TypstCLI) withScratch(source string, fn func(dir, input string) error) error {
	dir, err := os.MkdirTemp(t.TempDir, "rapidtypst-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "main.typ")
	if err := os.WriteFile(input, []byte(source), 0644); err != nil {
		return fmt.Errorf("failed to write source: %w", err)
	}
	return fn(dir, input)
}

func (t *TypstCLI) invoke(ctx context.Context, input, output string) error {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stderr, err := t.run(ctx, t.Binary, "compile", input, output)
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrCompilerNotFound
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = "Compilation failed"
	}
	return &CompileError{Message: msg}
}

// readPages returns the page{n}.svg files of dir in page order.
func readPages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page*.svg"))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoOutput
	}

	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})

	pages := make([]string, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", filepath.Base(m), err)
		}
		pages = append(pages, string(data))
	}
	return pages, nil
}

func pageNumber(path string) int {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "page"), ".svg")
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return n
}
