package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetCommandFlags restores every flag on the shared rootCmd tree to its
// default and clears the Changed markers, so flag values parsed by one test's
// Execute call do not leak into the next.
func resetCommandFlags(t *testing.T) {
	t.Helper()
	var reset func(cmd *cobra.Command)
	reset = func(cmd *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range cmd.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}
