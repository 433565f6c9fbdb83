package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// ValidateFilePath validates that a file path exists and is a file
func ValidateFilePath(path string) error {
	if !filepath.IsAbs(path) {
		path, _ = filepath.Abs(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("error accessing path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, expected file: %s", path)
	}
	return nil
}

// ValidateOutputFormat validates the output format flag
func ValidateOutputFormat(format string) error {
	for _, valid := range []OutputFormat{FormatText, FormatJSON, FormatYAML} {
		if OutputFormat(format) == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid output format: %s (must be: text, json, or yaml)", format)
}

// ValidateTitle validates a document title flag or argument
func ValidateTitle(title string) error {
	if err := models.ValidateTitle(title); err != nil {
		return fmt.Errorf("invalid title: %w", err)
	}
	return nil
}

// ValidateExportFormat parses an export format flag
func ValidateExportFormat(format string) (models.ExportFormat, error) {
	return models.ParseExportFormat(format)
}

// Contains checks if a string is in a slice
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
