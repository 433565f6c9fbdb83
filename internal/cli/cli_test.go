package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"yaml", false},
		{"xml", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTitleAndFormat(t *testing.T) {
	assert.NoError(t, ValidateTitle("Thesis"))
	assert.ErrorIs(t, ValidateTitle("   "), models.ErrEmptyTitle)

	f, err := ValidateExportFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, models.FormatPDF, f)
	_, err = ValidateExportFormat("odt")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestOutputResults(t *testing.T) {
	data := map[string]int{"count": 2}

	var buf bytes.Buffer
	require.NoError(t, OutputResults(&buf, "json", data))
	assert.JSONEq(t, `{"count": 2}`, buf.String())

	buf.Reset()
	require.NoError(t, OutputResults(&buf, "yaml", data))
	assert.Equal(t, "count: 2\n", buf.String())

	assert.Error(t, OutputResults(&buf, "xml", data))
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	tf := NewTableFormatter(&buf)
	tf.Header("TITLE", "UPDATED")
	tf.Row("Thesis", "2 hours ago")
	tf.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "-----"))
	assert.Contains(t, lines[2], "Thesis")
}

func TestFormatters(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2 hours ago", FormatAge(now.Add(-2*time.Hour), now))
	assert.Equal(t, "-", FormatAge(time.Time{}, now))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "Hello...", TruncateString("Hello, world", 8))
	assert.Equal(t, "short", TruncateString("short", 8))
}

func TestPrintAndConfirm(t *testing.T) {
	var out, errOut bytes.Buffer
	SetOutput(strings.NewReader("yes\n"), &out, &errOut)
	t.Cleanup(func() {
		SetOutput(os.Stdin, os.Stdout, os.Stderr)
		SetGlobalFlags(false, false, false)
	})

	PrintSuccess("Saved %s", "x")
	PrintWarning("careful")
	assert.Equal(t, "✓ Saved x\n", out.String())
	assert.Equal(t, "⚠ careful\n", errOut.String())

	ok, err := Confirm("Delete?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	SetGlobalFlags(true, true, true)
	out.Reset()
	PrintSuccess("hidden")
	assert.Empty(t, out.String())
	ok, err = Confirm("Delete?", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDocumentResolver(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	thesis, err := s.Create(ctx, "Thesis", "= Thesis")
	require.NoError(t, err)
	_, err = s.Create(ctx, "Letter", "= Letter")
	require.NoError(t, err)

	r := DocumentResolver{Store: s}

	doc, err := r.Resolve(ctx, thesis.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thesis", doc.Title)

	doc, err = r.Resolve(ctx, "thesis")
	require.NoError(t, err)
	assert.Equal(t, thesis.ID, doc.ID)

	doc, err = r.Resolve(ctx, thesis.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, thesis.ID, doc.ID)

	_, err = r.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = r.Resolve(ctx, " ")
	assert.Error(t, err)
}

func TestValidateProject(t *testing.T) {
	dir := t.TempDir()
	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldDir)

	c := NewCommandContext()
	assert.True(t, errors.Is(c.ValidateProject(), ErrNoProject))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".rapidtypst"), 0755))
	assert.NoError(t, c.ValidateProject())
}

func TestNewServicesBackends(t *testing.T) {
	dir := t.TempDir()
	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldDir)

	settings := models.DefaultSettings()
	settings.Logging.File = ""
	settings.Store.Backend = "sqlite"
	settings.Store.SQLitePath = filepath.Join(dir, "docs.db")

	s, err := NewServices(settings)
	require.NoError(t, err)
	_, isSQLite := s.Store.(*store.SQLite)
	assert.True(t, isSQLite)

	list, err := s.Catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)
	require.NoError(t, s.Close())

	settings.Store.Backend = "tape"
	_, err = NewServices(settings)
	assert.ErrorContains(t, err, "unknown store backend")
}
