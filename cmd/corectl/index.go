package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func indexMain(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("index requires at least one path")
	}
	results, err := eng.Index(context.Background(), args)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Println(color.RedString("!"), r.Path, "-", r.Err)
			continue
		}
		fmt.Printf("%s %s (%d files, %d dirs)\n", color.GreenString("+"), r.Path, r.FileCount, r.DirCount)
		for _, s := range r.Skipped {
			fmt.Printf("  %s %s: %s\n", color.YellowString("skipped"), s.Path, s.Reason)
		}
	}
	return nil
}

var indexCommand = &cobra.Command{
	Use:   "index <path>...",
	Short: "Index one or more filesystem paths",
	RunE:  indexMain,
}

func clearIndexMain(cmd *cobra.Command, args []string) error {
	eng.ClearIndex()
	return nil
}

var clearIndexCommand = &cobra.Command{
	Use:   "clear-index",
	Short: "Empty the path index",
	RunE:  clearIndexMain,
}

func clearContextMain(cmd *cobra.Command, args []string) error {
	eng.ClearContext()
	return nil
}

var clearContextCommand = &cobra.Command{
	Use:   "clear-context",
	Short: "Unselect every indexed file without touching the index",
	RunE:  clearContextMain,
}
