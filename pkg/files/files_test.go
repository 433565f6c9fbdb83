package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store/storetest"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(oldWd) })
	require.NoError(t, os.Chdir(tempDir))
	return tempDir
}

func TestInitProjectStructure(t *testing.T) {
	chdirTemp(t)
	assert.False(t, ProjectExists())

	err := InitProjectStructure()
	if err != nil {
		t.Fatalf("InitProjectStructure failed: %v", err)
	}

	expectedDirs := []string{
		ProjectDir,
		filepath.Join(ProjectDir, DocumentsDir),
		filepath.Join(ProjectDir, TemplatesDir),
		filepath.Join(ProjectDir, LogsDir),
	}

	for _, dir := range expectedDirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("Expected directory %s does not exist", dir)
		}
	}
	assert.True(t, ProjectExists())
}

func TestDocumentStore(t *testing.T) {
	storetest.Run(t, NewStore(filepath.Join(t.TempDir(), "documents")))
}

func TestDocumentStoreRejectsPathLikeIDs(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Get(t.Context(), "../settings")
	assert.Error(t, err)
	assert.Error(t, s.Delete(t.Context(), "../../x"))
}

func TestDocumentStoreIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, err := s.Create(t.Context(), "Only", "x")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	docs, err := s.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "doc.typ")

	require.NoError(t, WriteFile(path, []byte("= Hi")))
	content, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "= Hi", content)

	_, err = ReadFile(filepath.Join(dir, "missing.typ"))
	assert.Error(t, err)
}

func TestReadSettings(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		env   map[string]string
		check func(t *testing.T, s *models.Settings)
	}{
		{
			name: "defaults without files",
			check: func(t *testing.T, s *models.Settings) {
				assert.Equal(t, models.DefaultSettings(), s)
			},
		},
		{
			name:  "yaml overrides some fields",
			files: map[string]string{SettingsFile: "preview:\n  debounce_ms: 300\nstore:\n  backend: sqlite\n"},
			check: func(t *testing.T, s *models.Settings) {
				assert.Equal(t, 300, s.Preview.DebounceMS)
				assert.Equal(t, "sqlite", s.Store.Backend)
				assert.Equal(t, 200, s.History.Limit)
			},
		},
		{
			name:  "toml fallback",
			files: map[string]string{SettingsTOMLFile: "[compiler]\nbackend = \"remote\"\n\n[remote]\nurl = \"http://typst.local\"\n"},
			check: func(t *testing.T, s *models.Settings) {
				assert.Equal(t, "remote", s.Compiler.Backend)
				assert.Equal(t, "http://typst.local", s.Remote.URL)
				assert.Equal(t, "typst", s.Compiler.TypstBinary)
			},
		},
		{
			name: "yaml wins over toml",
			files: map[string]string{
				SettingsFile:     "logging:\n  level: debug\n",
				SettingsTOMLFile: "[logging]\nlevel = \"error\"\n",
			},
			check: func(t *testing.T, s *models.Settings) {
				assert.Equal(t, "debug", s.Logging.Level)
			},
		},
		{
			name:  "environment overrides files",
			files: map[string]string{SettingsFile: "logging:\n  level: debug\n"},
			env:   map[string]string{"RAPIDTYPST_LOG_LEVEL": "warn", "RAPIDTYPST_DEBOUNCE_MS": "250"},
			check: func(t *testing.T, s *models.Settings) {
				assert.Equal(t, "warn", s.Logging.Level)
				assert.Equal(t, 250, s.Preview.DebounceMS)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			require.NoError(t, InitProjectStructure())
			for name, content := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(ProjectDir, name), []byte(content), 0644))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			s, err := ReadSettings()
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestReadSettingsErrors(t *testing.T) {
	t.Run("bad toml", func(t *testing.T) {
		chdirTemp(t)
		require.NoError(t, InitProjectStructure())
		require.NoError(t, os.WriteFile(filepath.Join(ProjectDir, SettingsTOMLFile), []byte("[preview\n"), 0644))
		_, err := ReadSettings()
		assert.ErrorContains(t, err, "failed to parse settings TOML")
	})

	t.Run("bad env", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("RAPIDTYPST_DEBOUNCE_MS", "soon")
		_, err := ReadSettings()
		assert.Error(t, err)
	})
}

func TestWriteSettingsRoundTrip(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, InitProjectStructure())

	s := models.DefaultSettings()
	s.History.Limit = 42
	s.UI.ShowSidebar = false
	require.NoError(t, WriteSettings(s))

	got, err := ReadSettings()
	require.NoError(t, err)
	assert.Equal(t, 42, got.History.Limit)
	assert.False(t, got.UI.ShowSidebar)
}

func TestRecentFiles(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, InitProjectStructure())

	files, err := ReadRecent()
	require.NoError(t, err)
	assert.Empty(t, files)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, AddRecent(string(rune('a'+i)), "Doc", base.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, AddRecent("c", "Doc C", base.Add(time.Hour)))

	files, err = ReadRecent()
	require.NoError(t, err)
	require.Len(t, files, models.MaxRecentFiles)
	assert.Equal(t, "c", files[0].ID)
	assert.Equal(t, "Doc C", files[0].Title)
	assert.Equal(t, "l", files[1].ID)

	require.NoError(t, RemoveRecent("c"))
	files, err = ReadRecent()
	require.NoError(t, err)
	assert.Len(t, files, models.MaxRecentFiles-1)
	assert.Equal(t, "l", files[0].ID)
}
