// Package config reads epub2txt settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultWidth is the wrap width used when nothing else is configured.
const DefaultWidth = 80

// Settings holds every option that can be set outside the command line.
// Environment variables override values read from a file.
type Settings struct {
	Meta             bool   `yaml:"meta" env:"EPUB2TXT_META" env-description:"Print the metadata header"`
	NoText           bool   `yaml:"notext" env:"EPUB2TXT_NOTEXT" env-description:"Print metadata only"`
	Calibre          bool   `yaml:"calibre" env:"EPUB2TXT_CALIBRE" env-description:"Include calibre metadata fields"`
	SectionSeparator string `yaml:"section_separator" env:"EPUB2TXT_SEPARATOR" env-description:"Line printed before each section"`
	Width            int    `yaml:"width" env:"EPUB2TXT_WIDTH" env-default:"80" env-description:"Wrap width; 0 or less disables wrapping"`
	ASCII            bool   `yaml:"ascii" env:"EPUB2TXT_ASCII" env-description:"Fold output to ASCII"`
	LogLevel         string `yaml:"log_level" env:"EPUB2TXT_LOG_LEVEL" env-default:"warn" env-description:"Log level (debug, info, warn, error)"`
	LogFormat        string `yaml:"log_format" env:"EPUB2TXT_LOG_FORMAT" env-default:"text" env-description:"Log format (text, json)"`
	TempDir          string `yaml:"temp_dir" env:"TMPDIR,TMP" env-description:"Directory books are unpacked in"`
}

// Load reads settings from the environment. When path is not empty the YAML
// file at path is read first and the environment applied on top of it.
func Load(path string) (*Settings, error) {
	var s Settings

	if path != "" {
		if err := cleanenv.ReadConfig(path, &s); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return &s, nil
	}

	if err := cleanenv.ReadEnv(&s); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
	}
	return &s, nil
}

// SandboxBase returns the directory sandboxes are created in: TempDir when
// set, otherwise the system default.
func (s *Settings) SandboxBase() string {
	if s.TempDir != "" {
		return s.TempDir
	}
	return os.TempDir()
}

// Describe returns a listing of the environment variables Load reads.
func Describe() string {
	var s Settings
	text, err := cleanenv.GetDescription(&s, nil)
	if err != nil {
		return ""
	}
	return text
}
