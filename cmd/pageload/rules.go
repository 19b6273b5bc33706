package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/alnah/go-pageload/internal/aria"
)

// runRules lists the remediation rules with the configured error policy.
func runRules(args []string, env *Environment) error {
	common, _, err := parseCommonFlags("rules", args, env.Stderr, printRulesUsage)
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
	policy, err := aria.ParseErrorPolicy(cfg.Aria.ErrorPolicy)
	if err != nil {
		return err
	}

	engine := aria.New(aria.WithErrorPolicy(policy))
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	for i, r := range engine.Rules() {
		fmt.Fprintf(tw, "%2d\t%s\t%s\n", i+1, r.Name, r.Description)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if !common.quiet {
		fmt.Fprintf(env.Stdout, "\nerror policy: %s\n", engine.Policy())
	}
	return nil
}
