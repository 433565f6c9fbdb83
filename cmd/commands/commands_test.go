package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// setupProject runs the test inside an initialized project directory and
// captures status messages.
func setupProject(t *testing.T, input string) *bytes.Buffer {
	t.Helper()
	tempDir := t.TempDir()
	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { os.Chdir(oldDir) })

	if input != "-" {
		require.NoError(t, files.InitProjectStructure())
	}

	status := new(bytes.Buffer)
	cli.SetOutput(strings.NewReader(input), status, status)
	t.Cleanup(func() { cli.SetOutput(os.Stdin, os.Stdout, os.Stderr) })
	return status
}

func seedDocument(t *testing.T, title, content string) *models.Document {
	t.Helper()
	s := files.NewStore(filepath.Join(files.ProjectDir, files.DocumentsDir))
	doc, err := s.Create(context.Background(), title, content)
	require.NoError(t, err)
	return doc
}

func loadDocument(t *testing.T, id string) *models.Document {
	t.Helper()
	s := files.NewStore(filepath.Join(files.ProjectDir, files.DocumentsDir))
	doc, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return doc
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// withOutput adds the -o flag the root command normally provides.
func withOutput(cmd *cobra.Command, format string) *cobra.Command {
	cmd.Flags().StringP("output", "o", format, "")
	return cmd
}

func TestNoProject(t *testing.T) {
	setupProject(t, "-")

	commands := []*cobra.Command{
		NewListCommand(),
		NewShowCommand(),
		NewTemplatesCommand(),
		NewConfigCommand(),
	}
	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			_, err := execute(cmd, "x")
			require.Error(t, err)
		})
	}

	_, err := execute(NewListCommand())
	assert.ErrorIs(t, err, cli.ErrNoProject)
}

func TestNewAndList(t *testing.T) {
	status := setupProject(t, "")

	_, err := execute(NewNewCommand(), "Lab Notes")
	require.NoError(t, err)
	assert.Contains(t, status.String(), `Created document "Lab Notes"`)

	_, err = execute(NewNewCommand(), "My CV", "--template", "resume")
	require.NoError(t, err)

	out, err := execute(NewListCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Lab Notes")
	assert.Contains(t, out, "My CV")

	out, err = execute(withOutput(NewListCommand(), "json"))
	require.NoError(t, err)
	var result ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, 2, result.Count)

	var cv ListItem
	for _, item := range result.Items {
		if item.Title == "My CV" {
			cv = item
		}
	}
	require.NotEmpty(t, cv.ID)
	assert.NotEmpty(t, loadDocument(t, cv.ID).Content)
}

func TestNewFromFile(t *testing.T) {
	setupProject(t, "")
	require.NoError(t, os.WriteFile("paper.typ", []byte("= Paper"), 0644))

	out, err := execute(withOutput(NewNewCommand(), "json"), "Paper", "--file", "paper.typ")
	require.NoError(t, err)

	var doc models.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "= Paper", loadDocument(t, doc.ID).Content)
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"blank title", []string{"   "}, "invalid title"},
		{"unknown template", []string{"Doc", "--template", "nope"}, "failed to load template 'nope'"},
		{"template and file", []string{"Doc", "--template", "basic", "--file", "x.typ"}, "cannot be used together"},
		{"missing file", []string{"Doc", "--file", "missing.typ"}, "path does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupProject(t, "")
			_, err := execute(NewNewCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestListEmpty(t *testing.T) {
	setupProject(t, "")

	out, err := execute(NewListCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found")

	out, err = execute(NewListCommand(), "--recent")
	require.NoError(t, err)
	assert.Contains(t, out, "No recently opened documents")
}

func TestShow(t *testing.T) {
	status := setupProject(t, "")
	doc := seedDocument(t, "Thesis", "= Thesis\nBody")

	out, err := execute(NewShowCommand(), "thesis")
	require.NoError(t, err)
	assert.Equal(t, "= Thesis\nBody\n", out)

	out, err = execute(NewShowCommand(), doc.ID[:8], "--metadata")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:   Thesis")
	assert.Contains(t, out, "ID:      "+doc.ID)
	assert.Contains(t, out, "Length:  2 words, ~1 min read")

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { copyToClipboard = orig })

	_, err = execute(NewShowCommand(), "Thesis", "--copy")
	require.NoError(t, err)
	assert.Equal(t, "= Thesis\nBody", copied)
	assert.Contains(t, status.String(), `Copied "Thesis" to clipboard`)

	_, err = execute(NewShowCommand(), "Missing")
	assert.ErrorContains(t, err, "document not found")
}

func TestRename(t *testing.T) {
	status := setupProject(t, "")
	doc := seedDocument(t, "Draft", "")

	_, err := execute(NewRenameCommand(), "Draft", "Final Report")
	require.NoError(t, err)
	assert.Equal(t, "Final Report", loadDocument(t, doc.ID).Title)
	assert.Contains(t, status.String(), `Renamed "Draft" to "Final Report"`)

	_, err = execute(NewRenameCommand(), "Final Report", "")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		status := setupProject(t, "n\n")
		doc := seedDocument(t, "Keep", "")

		_, err := execute(NewDeleteCommand(), "Keep")
		require.NoError(t, err)
		assert.Contains(t, status.String(), "Deletion cancelled")
		loadDocument(t, doc.ID)
	})

	t.Run("confirmed", func(t *testing.T) {
		status := setupProject(t, "y\n")
		doc := seedDocument(t, "Old Draft", "")
		require.NoError(t, files.AddRecent(doc.ID, doc.Title, doc.UpdatedAt))

		_, err := execute(NewDeleteCommand(), "Old Draft")
		require.NoError(t, err)
		assert.Contains(t, status.String(), `Deleted "Old Draft"`)

		_, err = files.NewStore(filepath.Join(files.ProjectDir, files.DocumentsDir)).Get(context.Background(), doc.ID)
		assert.Error(t, err)
		recent, err := files.ReadRecent()
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func TestTemplates(t *testing.T) {
	setupProject(t, "")

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "all",
			contains: []string{"blank", "resume", "code-docs", "CATEGORY"},
		},
		{
			name:     "category",
			args:     []string{"--category", "Academic"},
			contains: []string{"Academic Paper", "Math Notes"},
			excludes: []string{"Resume"},
		},
		{
			name:     "search",
			args:     []string{"--search", "letter"},
			contains: []string{"Formal Letter"},
			excludes: []string{"Math Notes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewTemplatesCommand(), tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}

	_, err := execute(NewTemplatesCommand(), "--category", "Poetry")
	assert.ErrorContains(t, err, `unknown category "Poetry"`)

	out, err := execute(NewTemplatesCommand(), "show", "letter")
	require.NoError(t, err)
	assert.Contains(t, out, "#set page")
}

func TestReplace(t *testing.T) {
	status := setupProject(t, "")
	doc := seedDocument(t, "Essay", "The colour red.\nUnchanged.\nA colour blue.")

	out, err := execute(NewReplaceCommand(), "Essay", "colour", "color", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "- The colour red.\n")
	assert.Contains(t, out, "+ The color red.\n")
	assert.NotContains(t, out, "Unchanged")
	assert.Contains(t, status.String(), "2 matches would be replaced")
	assert.Equal(t, "The colour red.\nUnchanged.\nA colour blue.", loadDocument(t, doc.ID).Content)

	_, err = execute(NewReplaceCommand(), "Essay", "COLOUR", "color", "--ignore-case", "--first")
	require.NoError(t, err)
	assert.Equal(t, "The color red.\nUnchanged.\nA colour blue.", loadDocument(t, doc.ID).Content)

	_, err = execute(NewReplaceCommand(), "Essay", `(\w+) blue`, "$1 green", "--regex")
	require.NoError(t, err)
	assert.Equal(t, "The color red.\nUnchanged.\nA colour green.", loadDocument(t, doc.ID).Content)

	status.Reset()
	_, err = execute(NewReplaceCommand(), "Essay", "purple", "x")
	require.NoError(t, err)
	assert.Contains(t, status.String(), "No matches")

	_, err = execute(NewReplaceCommand(), "Essay", "(", "x", "--regex")
	assert.ErrorContains(t, err, "invalid regular expression")
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/compile":
			if strings.Contains(string(body), "#broken") {
				w.Write([]byte(`{"success": false, "error": "unknown variable: broken"}`))
				return
			}
			w.Write([]byte(`{"success": true, "html": "<svg>1</svg><svg>2</svg>"}`))
		case "/api/export/html":
			w.Write([]byte("<html>exported</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv("RAPIDTYPST_COMPILER", "remote")
	t.Setenv("RAPIDTYPST_REMOTE_URL", srv.URL)
	return srv
}

func TestRender(t *testing.T) {
	status := setupProject(t, "")
	newBackend(t)
	seedDocument(t, "Thesis", "= Thesis")

	_, err := execute(NewRenderCommand(), "Thesis", "--out", "out/preview.html")
	require.NoError(t, err)
	assert.Contains(t, status.String(), `Rendered "Thesis" (2 pages)`)

	page, err := os.ReadFile("out/preview.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), "<svg>1</svg><svg>2</svg>")
	assert.NotContains(t, string(page), "http-equiv")

	require.NoError(t, os.WriteFile("broken.typ", []byte("#broken"), 0644))
	_, err = execute(NewRenderCommand(), "--file", "broken.typ")
	assert.ErrorContains(t, err, "compilation failed: unknown variable: broken")

	_, err = execute(NewRenderCommand())
	assert.ErrorIs(t, err, errNoSource)
}

func TestExport(t *testing.T) {
	status := setupProject(t, "")
	newBackend(t)
	seedDocument(t, "Thesis", "= Thesis")

	_, err := execute(NewExportCommand(), "Thesis", "--format", "HTML")
	require.NoError(t, err)
	data, err := os.ReadFile("document.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>exported</html>", string(data))
	assert.Contains(t, status.String(), `Exported "Thesis" to document.html`)

	_, err = execute(NewExportCommand(), "Thesis", "--format", "odt")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	_, err = execute(NewExportCommand(), "Thesis", "--format", "pdf")
	assert.ErrorContains(t, err, "failed to export")
}

func TestConfig(t *testing.T) {
	status := setupProject(t, "")

	out, err := execute(NewConfigCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "preview.debounce_ms")
	assert.Contains(t, out, "450")

	_, err = execute(NewConfigCommand(), "store.backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, status.String(), "Set store.backend = sqlite")

	out, err = execute(NewConfigCommand(), "store.backend")
	require.NoError(t, err)
	assert.Equal(t, "sqlite\n", out)

	settings, err := files.ReadSettings()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", settings.Store.Backend)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"store.backend", "tape"}, "invalid value"},
		{[]string{"history.limit", "many"}, "non-negative"},
		{[]string{"ui.show_preview", "maybe"}, "true or false"},
		{[]string{"logging.level", "loud"}, "invalid log level"},
		{[]string{"colour", "red"}, "unknown setting"},
	}
	for _, tt := range tests {
		_, err := execute(NewConfigCommand(), tt.args...)
		assert.ErrorContains(t, err, tt.want, tt.args)
	}
}

func TestListSearch(t *testing.T) {
	setupProject(t, "")
	seedDocument(t, "Lab Report", "= Results\nThe integral converges.")
	seedDocument(t, "Thesis Draft", "= Intro")

	out, err := execute(NewListCommand(), "--search", "integral")
	require.NoError(t, err)
	assert.Contains(t, out, "MATCH")
	assert.Contains(t, out, "Lab Report")
	assert.Contains(t, out, "The integral converges.")
	assert.NotContains(t, out, "Thesis Draft")

	out, err = execute(NewListCommand(), "--search", "title:thesis OR title:lab NOT content:integral")
	require.NoError(t, err)
	assert.Contains(t, out, "Thesis Draft")

	out, err = execute(NewListCommand(), "--search", "title:nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents match")

	_, err = execute(NewListCommand(), "--search", "tag:x")
	assert.ErrorContains(t, err, "invalid search query")
}
