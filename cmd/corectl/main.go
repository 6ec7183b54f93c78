// Command corectl is a headless driver for the path index engine,
// exercising the same Engine the Wails desktop shell binds, useful for
// scripting and for driving the engine without a GUI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pathindex/internal/engine"
)

// eng is the single Engine instance shared by every subcommand
// invocation within one process run.
var eng *engine.Engine

func fatal(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
	os.Exit(1)
}

var rootCommand = &cobra.Command{
	Use:   "corectl",
	Short: "Drive the path index engine from the command line",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		e, err := engine.New(nil)
		if err != nil {
			return err
		}
		eng = e
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if eng != nil {
			eng.Shutdown()
		}
	},
}

func init() {
	cobra.EnableCommandSorting = false

	// Treat "clear_index"-style underscored flag names (matching the
	// engine's own command names in spec §6) as aliases for their
	// hyphenated Cobra flag spelling.
	rootCommand.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCommand.AddCommand(
		indexCommand,
		clearIndexCommand,
		clearContextCommand,
		treeCommand,
		flatCommand,
		selectCommand,
		expandCommand,
		collapseCommand,
		exportCommand,
		sensitiveCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fatal(err)
	}
}
