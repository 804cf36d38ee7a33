package repl

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads ~/.picocamlrc.yaml if present, returning a zero-value
// Config (the REPL's defaults) when the file does not exist. A file that is
// not valid YAML is reported as an error. Unknown keys are ignored, and any
// symbol_generator value other than "uuid" selects the default counter
// generator.
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}
	path := filepath.Join(home, ".picocamlrc.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
