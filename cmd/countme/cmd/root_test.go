package cmd

import (
	"testing"

	"countme/internal/config"

	"github.com/spf13/cobra"
)

func newFlagTestCmd() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().StringVarP(&outputFormat, "output", "o", "table", "")
	return c
}

func TestGlobalFlags_Registered(t *testing.T) {
	for _, name := range []string{"config", "output", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q", name)
		}
	}

	if f := rootCmd.PersistentFlags().Lookup("verbose"); f != nil && f.Shorthand != "v" {
		t.Errorf("verbose shorthand = %q, want %q", f.Shorthand, "v")
	}
	if f := rootCmd.PersistentFlags().Lookup("output"); f != nil && f.Shorthand != "o" {
		t.Errorf("output shorthand = %q, want %q", f.Shorthand, "o")
	}
}

func TestApplyFlagOverrides_Verbose(t *testing.T) {
	verboseMode = true
	defer func() { verboseMode = false }()

	c := config.Default()
	applyFlagOverrides(newFlagTestCmd(), c)

	if c.Log.Level != "debug" {
		t.Errorf("log level = %q, want %q", c.Log.Level, "debug")
	}
}

func TestApplyFlagOverrides_Output(t *testing.T) {
	c := config.Default()
	cmd := newFlagTestCmd()
	if err := cmd.Flags().Set("output", "json"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	applyFlagOverrides(cmd, c)

	if c.Output.Format != "json" {
		t.Errorf("output format = %q, want %q", c.Output.Format, "json")
	}
}

func TestApplyFlagOverrides_OutputUnchanged(t *testing.T) {
	c := config.Default()
	c.Output.Format = "yaml"

	// Flag left at its default: the configured format wins.
	applyFlagOverrides(newFlagTestCmd(), c)

	if c.Output.Format != "yaml" {
		t.Errorf("output format = %q, want %q", c.Output.Format, "yaml")
	}
}
