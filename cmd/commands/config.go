package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/logger"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// setting is one user-editable settings key.
type setting struct {
	get func(s *models.Settings) string
	set func(s *models.Settings, v string) error
}

func stringSetting(field func(s *models.Settings) *string, valid ...string) setting {
	return setting{
		get: func(s *models.Settings) string { return *field(s) },
		set: func(s *models.Settings, v string) error {
			if len(valid) > 0 && !cli.Contains(valid, v) {
				return fmt.Errorf("invalid value %q (valid: %s)", v, strings.Join(valid, ", "))
			}
			*field(s) = v
			return nil
		},
	}
}

func intSetting(field func(s *models.Settings) *int) setting {
	return setting{
		get: func(s *models.Settings) string { return strconv.Itoa(*field(s)) },
		set: func(s *models.Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value %q: expected a non-negative number", v)
			}
			*field(s) = n
			return nil
		},
	}
}

func boolSetting(field func(s *models.Settings) *bool) setting {
	return setting{
		get: func(s *models.Settings) string { return strconv.FormatBool(*field(s)) },
		set: func(s *models.Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value %q: expected true or false", v)
			}
			*field(s) = b
			return nil
		},
	}
}

var settingKeys = map[string]setting{
	"preview.debounce_ms":   intSetting(func(s *models.Settings) *int { return &s.Preview.DebounceMS }),
	"preview.output_path":   stringSetting(func(s *models.Settings) *string { return &s.Preview.OutputPath }),
	"history.limit":         intSetting(func(s *models.Settings) *int { return &s.History.Limit }),
	"history.coalesce_ms":   intSetting(func(s *models.Settings) *int { return &s.History.CoalesceMS }),
	"compiler.backend":      stringSetting(func(s *models.Settings) *string { return &s.Compiler.Backend }, "typst", "remote"),
	"compiler.typst_binary": stringSetting(func(s *models.Settings) *string { return &s.Compiler.TypstBinary }),
	"store.backend":         stringSetting(func(s *models.Settings) *string { return &s.Store.Backend }, "files", "sqlite", "memory", "remote"),
	"store.sqlite_path":     stringSetting(func(s *models.Settings) *string { return &s.Store.SQLitePath }),
	"remote.url":            stringSetting(func(s *models.Settings) *string { return &s.Remote.URL }),
	"templates.dir":         stringSetting(func(s *models.Settings) *string { return &s.Templates.Dir }),
	"templates.watch":       boolSetting(func(s *models.Settings) *bool { return &s.Templates.Watch }),
	"logging.file":          stringSetting(func(s *models.Settings) *string { return &s.Logging.File }),
	"logging.level": {
		get: func(s *models.Settings) string { return s.Logging.Level },
		set: func(s *models.Settings, v string) error {
			if _, err := logger.ParseLevel(v); err != nil {
				return err
			}
			s.Logging.Level = v
			return nil
		},
	},
	"ui.show_sidebar": boolSetting(func(s *models.Settings) *bool { return &s.UI.ShowSidebar }),
	"ui.show_preview": boolSetting(func(s *models.Settings) *bool { return &s.UI.ShowPreview }),
}

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Show or change project settings",
		Long: `Show or change the settings in .rapidtypst/settings.yaml.

Without arguments all settings are listed. With a key its value is
printed, and with a key and a value the setting is updated.

Examples:
  # List settings
  rapidtypst config

  # Use the sqlite document store
  rapidtypst config store.backend sqlite

  # Slower preview debounce
  rapidtypst config preview.debounce_ms 800`,
		Args:    cobra.MaximumNArgs(2),
		PreRunE: requireProject,
		RunE:    runConfig,
	}
	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	ctx := cli.NewCommandContext()
	settings, err := ctx.LoadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		values := make(map[string]string, len(settingKeys))
		for key, s := range settingKeys {
			values[key] = s.get(settings)
		}
		if format := outputFormat(cmd); format != string(cli.FormatText) {
			return cli.OutputResults(out, format, values)
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		table := cli.NewTableFormatter(out)
		table.Header("KEY", "VALUE")
		for _, key := range keys {
			table.Row(key, values[key])
		}
		table.Flush()
		return nil
	}

	key := strings.ToLower(args[0])
	s, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", args[0])
	}
	if len(args) == 1 {
		fmt.Fprintln(out, s.get(settings))
		return nil
	}

	if err := s.set(settings, args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := files.WriteSettings(settings); err != nil {
		return err
	}
	cli.PrintSuccess("Set %s = %s", key, s.get(settings))
	return nil
}
