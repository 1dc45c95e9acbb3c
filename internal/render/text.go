package render

import (
	"fmt"
	"io"
	"strings"
)

// WriteVisual prints the panel as plain text for terminals.
func WriteVisual(w io.Writer, panel VisualPanel) error {
	if len(panel.Documents) == 0 {
		_, err := fmt.Fprintln(w, "(no documents)")
		return err
	}
	for i, doc := range panel.Documents {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		name := doc.FileName
		if name == "" {
			name = "(unnamed document)"
		}
		if _, err := fmt.Fprintf(w, "== %s ==\n", name); err != nil {
			return err
		}
		if doc.Placeholder != "" {
			if _, err := fmt.Fprintf(w, "  %s\n", doc.Placeholder); err != nil {
				return err
			}
			continue
		}
		for _, p := range doc.Pages {
			desc := strings.ReplaceAll(p.Description, "\n", "\n    ")
			if _, err := fmt.Fprintf(w, "  %s\n    %s\n", p.Heading, desc); err != nil {
				return err
			}
		}
	}
	return nil
}

func WriteRaw(w io.Writer, raw RawView) error {
	if _, err := io.WriteString(w, raw.Text); err != nil {
		return err
	}
	if raw.Truncated {
		_, err := fmt.Fprintf(w, "\n... truncated (%d bytes total)\n", raw.TotalBytes)
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
