package state

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"sigs.k8s.io/yaml"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Write renders the report in the given format
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatTable, "":
		return writeTable(w, r)
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
	}
}

func writeTable(out io.Writer, r *Report) error {
	_, _ = fmt.Fprintf(out, "Cluster:   %s\n", r.Cluster)
	_, _ = fmt.Fprintf(out, "Namespace: %s\n", r.Namespace)
	_, _ = fmt.Fprintf(out, "State:     %s\n", r.State)
	if r.URL != "" {
		_, _ = fmt.Fprintf(out, "URL:       %s\n", r.URL)
	}

	if len(r.Nodes) > 0 {
		_, _ = fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NODE\tROLE\tSTATE\tSTATUS")
		for _, n := range r.Nodes {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.Name, n.Role, n.State, n.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(r.Components) > 0 {
		_, _ = fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tREADY\tRESTARTS")
		for _, c := range r.Components {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\n", c.Name, c.Status, c.Ready, c.Total, c.Restarts)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for _, warning := range r.Warnings {
		_, _ = fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	return nil
}
