package commands

import (
	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// requireProject is the PreRunE shared by every command that needs an
// initialized project.
func requireProject(cmd *cobra.Command, args []string) error {
	return cli.NewCommandContext().ValidateProject()
}

// outputFormat reads the persistent -o flag. Commands run on their own
// (as in tests) fall back to text.
func outputFormat(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("output")
	if err != nil || format == "" {
		return string(cli.FormatText)
	}
	return format
}

// resolveDocument finds a stored document by id, id prefix or title.
func resolveDocument(cmd *cobra.Command, services *cli.Services, ref string) (*models.Document, error) {
	return cli.DocumentResolver{Store: services.Store}.Resolve(cmd.Context(), ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
