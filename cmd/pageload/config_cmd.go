package main

import (
	"fmt"

	"github.com/alnah/go-pageload/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML.
func runConfig(args []string, env *Environment) error {
	common, _, err := parseCommonFlags("config", args, env.Stderr, printConfigUsage)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(common.config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if _, err := env.Stdout.Write(out); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
