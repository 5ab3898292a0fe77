package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeOutput renders v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// writeRawOutput renders an upstream JSON document. YAML output goes
// through a generic decode, so object keys come out sorted.
func writeRawOutput(w io.Writer, format string, raw json.RawMessage) error {
	if format != outputYAML {
		return writeOutput(w, format, raw)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return eris.Wrap(err, "decode upstream payload")
	}
	return writeOutput(w, format, v)
}
