package common

import (
	"encoding/json"
	"io"
	"os"
)

// CIResult is the single JSON document a tool prints in --ci mode.
type CIResult struct {
	OK         bool     `json:"ok"`
	Tool       string   `json:"tool"`
	Command    string   `json:"command"`
	DurationMS int64    `json:"duration_ms"`
	Details    []string `json:"details,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func writeCIResult(w io.Writer, result CIResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printCIResult(result CIResult) {
	_ = writeCIResult(os.Stdout, result)
}
