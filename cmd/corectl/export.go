package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pathindex/internal/export"
)

var exportConfiguration struct {
	instructions string
	out          string
}

func exportMain(cmd *cobra.Command, args []string) error {
	prompt, err := eng.BuildPromptFromFiles(export.Request{
		TemplateID:         "default",
		CustomInstructions: exportConfiguration.instructions,
		FilePaths:          args,
	})
	if err != nil {
		return err
	}
	if exportConfiguration.out == "" {
		fmt.Println(prompt)
		return nil
	}
	return os.WriteFile(exportConfiguration.out, []byte(prompt), 0644)
}

var exportCommand = &cobra.Command{
	Use:   "export <path>...",
	Short: "Build a text artifact from indexed files, with optional redaction",
	RunE:  exportMain,
}

func init() {
	flags := exportCommand.Flags()
	flags.StringVar(&exportConfiguration.instructions, "instructions", "", "Prepend custom instructions to the exported artifact")
	flags.StringVar(&exportConfiguration.out, "out", "", "Write the artifact to a file instead of stdout")
}
