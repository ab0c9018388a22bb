package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/single-instance-rds/infra/lib/topology"
)

// LoadOptionsFile reads options from a .yaml, .yml or .toml file.
// A missing file is not an error: it returns nil options.
func LoadOptionsFile(filePath string) (*topology.Options, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading options file %s: %w", filePath, err)
	}

	var opts topology.Options
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	case ".toml":
		err = toml.Unmarshal(data, &opts)
	default:
		return nil, fmt.Errorf("unsupported options file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling options from %s: %w", filePath, err)
	}

	return &opts, nil
}

// LoadOptions reads the options file, if any, then overlays the environment.
// The result is not validated.
func LoadOptions(filePath string) (topology.Options, error) {
	var base topology.Options
	if filePath != "" {
		fromFile, err := LoadOptionsFile(filePath)
		if err != nil {
			return topology.Options{}, err
		}
		if fromFile != nil {
			base = *fromFile
		}
	}
	return OptionsFromEnvironment(base)
}
