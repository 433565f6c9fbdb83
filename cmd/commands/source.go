package commands

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
)

var errNoSource = errors.New("specify a document or --file")

// source is the Typst text a command operates on, read either from a
// stored document or from a file on disk.
type source struct {
	Title   string
	Content string
}

func loadSource(cmd *cobra.Command, services *cli.Services, args []string, file string) (*source, error) {
	if file != "" {
		if err := cli.ValidateFilePath(file); err != nil {
			return nil, err
		}
		content, err := files.ReadFile(file)
		if err != nil {
			return nil, err
		}
		title := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		return &source{Title: title, Content: content}, nil
	}
	if len(args) == 0 {
		return nil, errNoSource
	}
	doc, err := resolveDocument(cmd, services, args[0])
	if err != nil {
		return nil, err
	}
	return &source{Title: doc.Title, Content: doc.Content}, nil
}
