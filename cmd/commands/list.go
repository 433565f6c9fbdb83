package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/search"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
)

// ListResult represents the output structure for list command
type ListResult struct {
	Items []ListItem `json:"items" yaml:"items"`
	Count int        `json:"count" yaml:"count"`
}

// ListItem represents a single document in the list
type ListItem struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Size      int       `json:"size,omitempty" yaml:"size,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Excerpt   string    `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

var (
	listRecent bool
	listSearch string
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Long: `List stored documents, most recently updated first.

Examples:
  # List all documents
  rapidtypst list

  # Recently opened documents
  rapidtypst list --recent

  # Search titles and content
  rapidtypst list --search 'title:report modified:<7d'
  rapidtypst list --search 'integral OR content:"#table" NOT title:draft'

  # JSON output
  rapidtypst list -o json`,
		Args:    cobra.NoArgs,
		PreRunE: requireProject,
		RunE:    runList,
	}

	cmd.Flags().BoolVarP(&listRecent, "recent", "r", false, "Show recently opened documents")
	cmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter documents with a search query")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format := outputFormat(cmd)
	if listRecent && listSearch != "" {
		return fmt.Errorf("--recent and --search cannot be used together")
	}
	var query *search.Query
	if listSearch != "" {
		q, err := search.NewParser().Parse(listSearch)
		if err != nil {
			return fmt.Errorf("invalid search query: %w", err)
		}
		query = q
	}
	now := time.Now()

	var result ListResult
	if listRecent {
		recent, err := files.ReadRecent()
		if err != nil {
			return err
		}
		for _, r := range recent {
			result.Items = append(result.Items, ListItem{ID: r.ID, Title: r.Title, UpdatedAt: r.AccessedAt})
		}
	} else {
		services, err := cli.NewCommandContext().Open()
		if err != nil {
			return err
		}
		defer services.Close()

		docs, err := services.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		store.SortByUpdated(docs)
		for _, d := range docs {
			if query != nil && !query.Matches(d, now) {
				continue
			}
			item := ListItem{
				ID:        d.ID,
				Title:     d.Title,
				Size:      len(d.Content),
				UpdatedAt: d.UpdatedAt,
			}
			if query != nil {
				item.Excerpt = firstExcerpt(d.Content, query.Terms())
			}
			result.Items = append(result.Items, item)
		}
	}
	result.Count = len(result.Items)

	if format != string(cli.FormatText) {
		return cli.OutputResults(cmd.OutOrStdout(), format, result)
	}

	out := cmd.OutOrStdout()
	if result.Count == 0 {
		switch {
		case listRecent:
			fmt.Fprintln(out, "No recently opened documents")
		case query != nil:
			fmt.Fprintln(out, "No documents match")
		default:
			fmt.Fprintln(out, "No documents found")
		}
		return nil
	}

	table := cli.NewTableFormatter(out)
	if listRecent {
		table.Header("ID", "TITLE", "OPENED")
		for _, item := range result.Items {
			table.Row(shortID(item.ID), cli.TruncateString(item.Title, 48), cli.FormatAge(item.UpdatedAt, now))
		}
	} else if query != nil {
		table.Header("ID", "TITLE", "UPDATED", "MATCH")
		for _, item := range result.Items {
			table.Row(shortID(item.ID), cli.TruncateString(item.Title, 40), cli.FormatAge(item.UpdatedAt, now), cli.TruncateString(item.Excerpt, 60))
		}
	} else {
		table.Header("ID", "TITLE", "SIZE", "UPDATED")
		for _, item := range result.Items {
			table.Row(shortID(item.ID), cli.TruncateString(item.Title, 48), cli.FormatBytes(int64(item.Size)), cli.FormatAge(item.UpdatedAt, now))
		}
	}
	table.Flush()
	return nil
}

func firstExcerpt(content string, terms []string) string {
	for _, term := range terms {
		if excerpts := search.Excerpts(content, term, 1, 20); len(excerpts) > 0 {
			return excerpts[0]
		}
	}
	return ""
}
