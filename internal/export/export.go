// Package export assembles the text artifact a caller sends downstream
// to an AI prompt, joining file content with optional redaction
// (spec §4.8 Export Pipeline).
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"pathindex/internal/pathstore"
	"pathindex/internal/redactor"
)

// ErrEmptyRequest is returned when neither custom instructions nor file
// paths are supplied.
var ErrEmptyRequest = errors.New("empty_request")

// Request mirrors build_prompt_from_files's input shape (spec §6).
type Request struct {
	TemplateID         string
	CustomInstructions string
	FilePaths          []string
}

// Build resolves each requested path against store, reads file content,
// redacts it when sensitiveEnabled is true, and concatenates the result
// per spec §4.8. Directories in FilePaths are skipped; they are not
// exported.
func Build(store *pathstore.Store, red *redactor.Redactor, sensitiveEnabled bool, req Request) (string, error) {
	if strings.TrimSpace(req.CustomInstructions) == "" && len(req.FilePaths) == 0 {
		return "", ErrEmptyRequest
	}

	if strings.TrimSpace(req.CustomInstructions) != "" && len(req.FilePaths) == 0 {
		return req.CustomInstructions, nil
	}

	var blocks []string
	for _, path := range req.FilePaths {
		node, ok := store.Get(path)
		if !ok || node.IsDir {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", path)
		}
		body := string(content)
		if sensitiveEnabled {
			body = red.Redact(body)
		}
		blocks = append(blocks, fmt.Sprintf("--- %s ---\n%s", node.Path, body))
	}

	var out strings.Builder
	if req.CustomInstructions != "" {
		out.WriteString(req.CustomInstructions)
		out.WriteString("\n\n")
	}
	out.WriteString("---CONTEXT:\n")
	out.WriteString(strings.Join(blocks, "\n\n"))
	return out.String(), nil
}
