package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func selectMain(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("select requires exactly one path")
	}
	eng.ToggleSelection(args[0])
	return nil
}

var selectCommand = &cobra.Command{
	Use:   "select <path>",
	Short: "Toggle a file's selection or a directory's tristate",
	RunE:  selectMain,
}

func expandMain(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expand requires exactly one path")
	}
	eng.SetExpansion(args[0], true)
	return nil
}

var expandCommand = &cobra.Command{
	Use:   "expand <path>",
	Short: "Explicitly expand a directory",
	RunE:  expandMain,
}

func collapseMain(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("collapse requires exactly one path")
	}
	eng.SetExpansion(args[0], false)
	return nil
}

var collapseCommand = &cobra.Command{
	Use:   "collapse <path>",
	Short: "Explicitly collapse a directory",
	RunE:  collapseMain,
}
