package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RAPIDTYPST_"

// envOverrides maps environment variables onto settings fields.
var envOverrides = map[string]func(s *models.Settings, v string) error{
	EnvPrefix + "LOG_LEVEL":    func(s *models.Settings, v string) error { s.Logging.Level = v; return nil },
	EnvPrefix + "LOG_FILE":     func(s *models.Settings, v string) error { s.Logging.File = v; return nil },
	EnvPrefix + "REMOTE_URL":   func(s *models.Settings, v string) error { s.Remote.URL = v; return nil },
	EnvPrefix + "STORE":        func(s *models.Settings, v string) error { s.Store.Backend = v; return nil },
	EnvPrefix + "COMPILER":     func(s *models.Settings, v string) error { s.Compiler.Backend = v; return nil },
	EnvPrefix + "TYPST_BINARY": func(s *models.Settings, v string) error { s.Compiler.TypstBinary = v; return nil },
	EnvPrefix + "DEBOUNCE_MS": func(s *models.Settings, v string) error {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid %sDEBOUNCE_MS %q", EnvPrefix, v)
		}
		s.Preview.DebounceMS = ms
		return nil
	},
}

// ReadSettings loads settings from the project directory over the
// defaults, then applies environment overrides. A missing settings file
// is not an error. settings.yaml wins over settings.toml.
func ReadSettings() (*models.Settings, error) {
	settings := models.DefaultSettings()

	yamlPath := filepath.Join(ProjectDir, SettingsFile)
	tomlPath := filepath.Join(ProjectDir, SettingsTOMLFile)

	if content, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(content, settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings YAML %s: %w", yamlPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read settings %s: %w", yamlPath, err)
	} else if content, err := os.ReadFile(tomlPath); err == nil {
		if err := toml.Unmarshal(content, settings); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, fmt.Errorf("failed to parse settings TOML %s at line %d, column %d: %w", tomlPath, row, col, err)
			}
			return nil, fmt.Errorf("failed to parse settings TOML %s: %w", tomlPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read settings %s: %w", tomlPath, err)
	}

	if err := applyEnv(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func applyEnv(settings *models.Settings) error {
	for name, apply := range envOverrides {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if err := apply(settings, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteSettings saves settings as YAML in the project directory.
func WriteSettings(settings *models.Settings) error {
	content, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings to YAML: %w", err)
	}
	return writeAtomic(filepath.Join(ProjectDir, SettingsFile), content)
}
