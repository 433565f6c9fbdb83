package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/catalog"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// TemplatesResult represents the output structure for the templates command
type TemplatesResult struct {
	Category  string                      `json:"category" yaml:"category"`
	Templates []models.TemplateDescriptor `json:"templates" yaml:"templates"`
	Count     int                         `json:"count" yaml:"count"`
}

var (
	templatesCategory string
	templatesSearch   string
)

// NewTemplatesCommand creates the templates command
func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Browse document templates",
		Long: `List the built-in and user templates.

User templates are .typ files in the templates directory
(.rapidtypst/templates by default).

Examples:
  # List all templates
  rapidtypst templates

  # Only academic templates
  rapidtypst templates --category Academic

  # Fuzzy search
  rapidtypst templates --search resm

  # Print a template's content
  rapidtypst templates show resume`,
		Args:    cobra.NoArgs,
		PreRunE: requireProject,
		RunE:    runTemplates,
	}

	cmd.Flags().StringVarP(&templatesCategory, "category", "c", catalog.AllCategories, "Only show this category")
	cmd.Flags().StringVarP(&templatesSearch, "search", "s", "", "Fuzzy filter by name, description or category")

	cmd.AddCommand(newTemplatesShowCommand())
	return cmd
}

func newTemplatesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template-id>",
		Short: "Print a template's content",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireProject(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := cli.NewCommandContext().Open()
			if err != nil {
				return err
			}
			defer services.Close()

			tpl, err := services.Catalog.Template(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format := outputFormat(cmd); format != string(cli.FormatText) {
				return cli.OutputResults(cmd.OutOrStdout(), format, tpl)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tpl.Content)
			return nil
		},
	}
}

func runTemplates(cmd *cobra.Command, args []string) error {
	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	list, err := services.Catalog.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	categories := catalog.Categories(list)
	if !cli.Contains(categories, templatesCategory) {
		return fmt.Errorf("unknown category %q (available: %v)", templatesCategory, categories)
	}

	list = catalog.FilterCategory(list, templatesCategory)
	if templatesSearch != "" {
		list = catalog.SearchDescriptors(list, templatesSearch)
	}

	result := TemplatesResult{Category: templatesCategory, Templates: list, Count: len(list)}
	if format := outputFormat(cmd); format != string(cli.FormatText) {
		return cli.OutputResults(cmd.OutOrStdout(), format, result)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No templates match")
		return nil
	}
	table := cli.NewTableFormatter(out)
	table.Header("ID", "NAME", "CATEGORY", "DESCRIPTION")
	for _, t := range list {
		table.Row(t.ID, t.Name, t.Category, cli.TruncateString(t.Description, 50))
	}
	table.Flush()
	return nil
}
