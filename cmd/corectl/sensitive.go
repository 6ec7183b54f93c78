package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pathindex/internal/redactor"
)

var sensitiveCommand = &cobra.Command{
	Use:   "sensitive",
	Short: "Manage sensitive-content protection",
}

func sensitiveEnableMain(cmd *cobra.Command, args []string) error {
	eng.SetSensitiveDataEnabled(true)
	return nil
}

func sensitiveDisableMain(cmd *cobra.Command, args []string) error {
	eng.SetSensitiveDataEnabled(false)
	return nil
}

func sensitivePreventMain(cmd *cobra.Command, args []string) error {
	eng.SetPreventSelection(true)
	return nil
}

func sensitiveAllowMain(cmd *cobra.Command, args []string) error {
	eng.SetPreventSelection(false)
	return nil
}

func sensitiveListMain(cmd *cobra.Command, args []string) error {
	for _, p := range eng.GetSensitivePatterns() {
		kind := "custom"
		if p.Builtin {
			kind = "builtin"
		}
		status := "disabled"
		if p.Enabled {
			status = "enabled"
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", p.ID, p.Name, kind, status)
	}
	return nil
}

var addPatternConfiguration struct {
	name        string
	regex       string
	placeholder string
}

func sensitiveAddPatternMain(cmd *cobra.Command, args []string) error {
	return eng.AddCustomPattern(redactor.Pattern{
		ID:          addPatternConfiguration.name,
		Name:        addPatternConfiguration.name,
		Regex:       addPatternConfiguration.regex,
		Placeholder: addPatternConfiguration.placeholder,
		Enabled:     true,
	})
}

func init() {
	enable := &cobra.Command{Use: "enable", Short: "Enable sensitive-content scanning", RunE: sensitiveEnableMain}
	disable := &cobra.Command{Use: "disable", Short: "Disable sensitive-content scanning", RunE: sensitiveDisableMain}
	prevent := &cobra.Command{Use: "prevent-selection", Short: "Block selection of files marked sensitive", RunE: sensitivePreventMain}
	allow := &cobra.Command{Use: "allow-selection", Short: "Allow selection of files marked sensitive", RunE: sensitiveAllowMain}
	list := &cobra.Command{Use: "list", Short: "List builtin and custom patterns", RunE: sensitiveListMain}

	addPattern := &cobra.Command{Use: "add-pattern", Short: "Register a custom redaction pattern", RunE: sensitiveAddPatternMain}
	flags := addPattern.Flags()
	flags.StringVar(&addPatternConfiguration.name, "name", "", "Pattern id and display name")
	flags.StringVar(&addPatternConfiguration.regex, "regex", "", "Regular expression to match")
	flags.StringVar(&addPatternConfiguration.placeholder, "placeholder", "[REDACTED]", "Replacement text")

	sensitiveCommand.AddCommand(enable, disable, prevent, allow, list, addPattern)
}
