package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

type recentList struct {
	Files []models.RecentFile `yaml:"files"`
}

// ReadRecent returns recently opened documents, most recent first.
func ReadRecent() ([]models.RecentFile, error) {
	content, err := os.ReadFile(filepath.Join(ProjectDir, RecentFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.RecentFile{}, nil
		}
		return nil, fmt.Errorf("failed to read recent files: %w", err)
	}
	var list recentList
	if err := yaml.Unmarshal(content, &list); err != nil {
		return nil, fmt.Errorf("failed to parse recent files: %w", err)
	}
	if list.Files == nil {
		list.Files = []models.RecentFile{}
	}
	return list.Files, nil
}

// AddRecent moves the document to the front of the recent list, keeping
// at most models.MaxRecentFiles entries.
func AddRecent(id, title string, at time.Time) error {
	files, err := ReadRecent()
	if err != nil {
		return err
	}
	out := []models.RecentFile{{ID: id, Title: title, AccessedAt: at.UTC()}}
	for _, f := range files {
		if f.ID != id {
			out = append(out, f)
		}
	}
	if len(out) > models.MaxRecentFiles {
		out = out[:models.MaxRecentFiles]
	}
	return writeRecent(out)
}

// RemoveRecent drops a document from the recent list.
func RemoveRecent(id string) error {
	files, err := ReadRecent()
	if err != nil {
		return err
	}
	out := files[:0]
	for _, f := range files {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return writeRecent(out)
}

func writeRecent(files []models.RecentFile) error {
	content, err := yaml.Marshal(recentList{Files: files})
	if err != nil {
		return fmt.Errorf("failed to marshal recent files: %w", err)
	}
	return writeAtomic(filepath.Join(ProjectDir, RecentFile), content)
}

// RecentList adapts the recent files of the current project to the
// session's recents hook.
type RecentList struct{}

func (RecentList) Touch(id, title string, at time.Time) error {
	return AddRecent(id, title, at)
}

func (RecentList) Forget(id string) error {
	return RemoveRecent(id)
}
