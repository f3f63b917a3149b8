// Package report renders environment descriptors for the check command.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/crpt-tools/guilaunch/internal/bootstrap"
	"github.com/crpt-tools/guilaunch/internal/version"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat checks if the given format string is valid and returns the Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format: %q (valid options: yaml, json)", s)
	}
}

// Report is the document printed by the check command
type Report struct {
	Status      string                `json:"status" yaml:"status"`
	Error       string                `json:"error,omitempty" yaml:"error,omitempty"`
	Launcher    version.Info          `json:"launcher" yaml:"launcher"`
	Environment *bootstrap.Descriptor `json:"environment" yaml:"environment"`
}

// Statuses of a Report
const (
	StatusReady      = "ready"
	StatusIncomplete = "incomplete"
	StatusError      = "error"
)

// New builds a report from a check result. A launch from a ready environment
// needs no creation or installation.
func New(d *bootstrap.Descriptor, checkErr error) Report {
	r := Report{
		Status:      StatusReady,
		Launcher:    version.Get(),
		Environment: d,
	}
	switch {
	case checkErr != nil:
		r.Status = StatusError
		r.Error = checkErr.Error()
	case !d.ToolkitPresent, d.VenvEnabled && !d.VenvActive:
		r.Status = StatusIncomplete
	}
	return r
}

// Write encodes r to w in the given format
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %q", format)
	}
}
