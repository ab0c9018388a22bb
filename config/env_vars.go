package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/single-instance-rds/infra/lib/topology"
)

// GetEnvironmentVariables parses T from the environment on top of base. Only
// variables that are set replace the corresponding field.
func GetEnvironmentVariables[T any](base T) (T, error) {
	envObj := base
	if err := env.Parse(&envObj); err != nil {
		return base, err
	}
	return envObj, nil
}

// OptionsFromEnvironment overlays the environment on base.
func OptionsFromEnvironment(base topology.Options) (topology.Options, error) {
	opts, err := GetEnvironmentVariables(base)
	if err != nil {
		return base, fmt.Errorf("reading options from environment: %w", err)
	}
	return opts, nil
}
