package models

// Settings represents the application configuration
type Settings struct {
	Preview   PreviewSettings  `yaml:"preview" toml:"preview"`
	History   HistorySettings  `yaml:"history" toml:"history"`
	Compiler  CompilerSettings `yaml:"compiler" toml:"compiler"`
	Store     StoreSettings    `yaml:"store" toml:"store"`
	Remote    RemoteSettings   `yaml:"remote" toml:"remote"`
	Templates TemplateSettings `yaml:"templates" toml:"templates"`
	Logging   LoggingSettings  `yaml:"logging" toml:"logging"`
	UI        UISettings       `yaml:"ui" toml:"ui"`
}

// PreviewSettings controls live preview behavior
type PreviewSettings struct {
	DebounceMS int    `yaml:"debounce_ms" toml:"debounce_ms"`
	OutputPath string `yaml:"output_path" toml:"output_path"`
}

// HistorySettings controls undo/redo
type HistorySettings struct {
	Limit      int `yaml:"limit" toml:"limit"`
	CoalesceMS int `yaml:"coalesce_ms" toml:"coalesce_ms"`
}

// CompilerSettings selects the compile backend ("typst" or "remote")
type CompilerSettings struct {
	Backend     string `yaml:"backend" toml:"backend"`
	TypstBinary string `yaml:"typst_binary" toml:"typst_binary"`
}

// StoreSettings selects the document store ("files", "sqlite" or "remote")
type StoreSettings struct {
	Backend    string `yaml:"backend" toml:"backend"`
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
}

// RemoteSettings points at an HTTP backend
type RemoteSettings struct {
	URL string `yaml:"url" toml:"url"`
}

// TemplateSettings controls user templates
type TemplateSettings struct {
	Dir   string `yaml:"dir" toml:"dir"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// LoggingSettings controls the log file
type LoggingSettings struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// UISettings controls UI preferences
type UISettings struct {
	ShowSidebar bool `yaml:"show_sidebar" toml:"show_sidebar"`
	ShowPreview bool `yaml:"show_preview" toml:"show_preview"`
}

// DefaultSettings returns the default configuration
func DefaultSettings() *Settings {
	return &Settings{
		Preview: PreviewSettings{
			DebounceMS: 450,
			OutputPath: ".rapidtypst/preview.html",
		},
		History: HistorySettings{
			Limit:      200,
			CoalesceMS: 1000,
		},
		Compiler: CompilerSettings{
			Backend:     "typst",
			TypstBinary: "typst",
		},
		Store: StoreSettings{
			Backend:    "files",
			SQLitePath: ".rapidtypst/documents.db",
		},
		Remote: RemoteSettings{
			URL: "http://localhost:8001",
		},
		Templates: TemplateSettings{
			Dir:   ".rapidtypst/templates",
			Watch: true,
		},
		Logging: LoggingSettings{
			Level: "info",
			File:  ".rapidtypst/logs/rapidtypst.log",
		},
		UI: UISettings{
			ShowSidebar: true,
			ShowPreview: true,
		},
	}
}
