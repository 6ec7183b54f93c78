package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pathindex/internal/overlay"
	"pathindex/internal/pathstore"
)

func selectionMark(s overlay.Selection) string {
	switch s {
	case overlay.Checked:
		return color.GreenString("[x]")
	case overlay.Indeterminate:
		return color.YellowString("[~]")
	default:
		return "[ ]"
	}
}

func printNode(n pathstore.Node, depth int) {
	e := eng.GetOverlay(n.Path)
	indent := strings.Repeat("  ", depth)
	name := n.Name
	if n.IsDir {
		name += "/"
	}
	if e.Sensitive == overlay.Marked {
		name = color.MagentaString(name)
	}
	if n.IsDir {
		fmt.Printf("%s%s %s\n", indent, selectionMark(e.Selection), name)
		return
	}
	fmt.Printf("%s%s %s (%s)\n", indent, selectionMark(e.Selection), name, humanize.Bytes(uint64(n.Size)))
}

func walkTree(n pathstore.Node, depth int) {
	printNode(n, depth)
	if !n.IsDir {
		return
	}
	if eng.GetOverlay(n.Path).Expansion != overlay.Expanded {
		return
	}
	for _, child := range eng.GetChildren(n.Path) {
		walkTree(child, depth+1)
	}
}

func treeMain(cmd *cobra.Command, args []string) error {
	for _, root := range eng.GetTreeRoots() {
		walkTree(root, 0)
	}
	return nil
}

var treeCommand = &cobra.Command{
	Use:   "tree",
	Short: "Print the hierarchical tree over expanded directories",
	RunE:  treeMain,
}

var flatConfiguration struct {
	query string
}

func flatMain(cmd *cobra.Command, args []string) error {
	for _, row := range eng.GetFlatView(flatConfiguration.query) {
		fmt.Printf("%s%s\n", strings.Repeat("  ", row.Depth), row.Path)
	}
	return nil
}

var flatCommand = &cobra.Command{
	Use:   "flat",
	Short: "Print the flattened, search-filterable row list",
	RunE:  flatMain,
}

func init() {
	flatCommand.Flags().StringVar(&flatConfiguration.query, "query", "", "Filter rows by name substring")
}
