package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rapidtypst/rapidtypst-terminal/cmd/commands"
	"github.com/rapidtypst/rapidtypst-terminal/internal/cli"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/files"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/tui"
)

// Version is set during build with -ldflags
var version = "dev"

var (
	outputFormat string
	quiet        bool
	noColor      bool
	skipConfirm  bool
)

var rootCmd = &cobra.Command{
	Use:   "rapidtypst",
	Short: "Terminal editor for Typst documents with live preview",
	Long: `Rapid Typst is a terminal editor for Typst documents. It keeps a live
preview compiled in the background, stores documents in the project's
.rapidtypst folder and starts new documents from templates.

Run without a command to open the editor.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.SetGlobalFlags(quiet, noColor, skipConfirm)
		return cli.ValidateOutputFormat(outputFormat)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := cli.NewCommandContext().Open()
		if err != nil {
			if errors.Is(err, cli.ErrNoProject) {
				return fmt.Errorf("no .rapidtypst directory found in the current directory. Run 'rapidtypst init' first")
			}
			return err
		}
		defer services.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			if err := services.WatchTemplates(ctx); err != nil {
				services.Logger.Warn("template watcher stopped", zap.Error(err))
			}
		}()

		settings := services.Settings
		app := tui.New(services.Deps(), tui.Config{
			PreviewPath: settings.Preview.OutputPath,
			ExportDir:   ".",
			ShowSidebar: settings.UI.ShowSidebar,
			ShowPreview: settings.UI.ShowPreview,
			Logger:      services.Logger,
		}, services.SessionOptions()...)
		defer app.Close()

		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to start the terminal user interface: %w", err)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Rapid Typst project",
	Long:  `Creates the .rapidtypst folder structure and default settings in the current directory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine current directory: %w", err)
		}

		cli.PrintInfo("Initializing Rapid Typst project in %s...", cwd)

		if err := files.InitProjectStructure(); err != nil {
			return fmt.Errorf("failed to initialize project structure: %w", err)
		}
		settingsPath := filepath.Join(files.ProjectDir, files.SettingsFile)
		if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
			if err := files.WriteSettings(models.DefaultSettings()); err != nil {
				return err
			}
		}

		cli.PrintSuccess("Created .rapidtypst folder structure")
		cli.PrintSuccess("Drop your own .typ templates into %s", filepath.Join(files.ProjectDir, files.TemplatesDir))
		fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'rapidtypst' to start the editor.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Rapid Typst",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Rapid Typst version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress success and info messages")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored symbols")
	rootCmd.PersistentFlags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(commands.NewNewCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewEditCommand())
	rootCmd.AddCommand(commands.NewRenameCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewTemplatesCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewReplaceCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
