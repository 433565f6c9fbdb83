package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/replace"
)

var (
	replaceRegex      bool
	replaceIgnoreCase bool
	replaceFirst      bool
	replaceDryRun     bool
)

// NewReplaceCommand creates the replace command
func NewReplaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace <document> <pattern> <replacement>",
		Short: "Find and replace in a document",
		Long: `Replace every match of a pattern in a stored document.

Patterns are literal text unless --regex is given. Regular expressions
use JavaScript syntax, and the replacement may refer to groups as $1.

Examples:
  # Replace a word everywhere
  rapidtypst replace Thesis colour color

  # Only the first match, case-insensitive
  rapidtypst replace Thesis "draft" "final" --first --ignore-case

  # Preview the change without saving
  rapidtypst replace Thesis '(\d+)%' '$1 percent' --regex --dry-run`,
		Args:    cobra.ExactArgs(3),
		PreRunE: requireProject,
		RunE:    runReplace,
	}

	cmd.Flags().BoolVar(&replaceRegex, "regex", false, "Treat the pattern as a regular expression")
	cmd.Flags().BoolVarP(&replaceIgnoreCase, "ignore-case", "i", false, "Match case-insensitively")
	cmd.Flags().BoolVar(&replaceFirst, "first", false, "Replace only the first match")
	cmd.Flags().BoolVar(&replaceDryRun, "dry-run", false, "Show the changed lines without saving")

	return cmd
}

func runReplace(cmd *cobra.Command, args []string) error {
	pattern := replace.Pattern{Text: args[1], Regex: replaceRegex, IgnoreCase: replaceIgnoreCase}
	if err := pattern.Validate(); err != nil {
		return err
	}

	services, err := cli.NewCommandContext().Open()
	if err != nil {
		return err
	}
	defer services.Close()

	doc, err := resolveDocument(cmd, services, args[0])
	if err != nil {
		return err
	}

	var (
		updated string
		count   int
	)
	if replaceFirst {
		var matched bool
		updated, matched, err = replace.ReplaceFirst(doc.Content, pattern, args[2])
		if matched {
			count = 1
		}
	} else {
		updated, count, err = replace.ReplaceAll(doc.Content, pattern, args[2])
	}
	if err != nil {
		return err
	}

	if count == 0 {
		cli.PrintInfo("No matches for %s in %q", pattern, doc.Title)
		return nil
	}

	if replaceDryRun {
		writeLineDiff(cmd.OutOrStdout(), doc.Content, updated)
		cli.PrintInfo("%d %s would be replaced (dry run)", count, plural(count, "match", "matches"))
		return nil
	}

	if _, err := services.Store.Update(cmd.Context(), doc.ID, updated); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	cli.PrintSuccess("Replaced %d %s in %q", count, plural(count, "match", "matches"), doc.Title)
	return nil
}

// writeLineDiff prints removed and added lines, prefixed with - and +.
func writeLineDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, prefix+strings.TrimSuffix(line, "\n")+"\n")
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
