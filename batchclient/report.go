package batchclient

import (
	"fmt"
	"strings"
)

// Report is the batch run's sole externally observable contract: given the
// same directory contents and a deterministic backend, its structure is
// reproducible.
type Report struct {
	Attempted    int       `json:"attempted"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	Associations int       `json:"associations"`
	Halted       bool      `json:"halted"`
	Failures     []Failure `json:"failures,omitempty"`
}

// Failure records one failed file/identifier pair with the server's error
// message verbatim. Identifier is empty when the whole request failed.
type Failure struct {
	File       string `json:"file"`
	Identifier string `json:"identifier,omitempty"`
	Message    string `json:"message"`
}

func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "attempted=%d succeeded=%d failed=%d skipped=%d associations=%d\n",
		r.Attempted, r.Succeeded, r.Failed, r.Skipped, r.Associations)
	if r.Halted {
		b.WriteString("run halted after first failing window\n")
	}
	for _, f := range r.Failures {
		if f.Identifier != "" {
			fmt.Fprintf(&b, "  %s [%s]: %s\n", f.File, f.Identifier, f.Message)
		} else {
			fmt.Fprintf(&b, "  %s: %s\n", f.File, f.Message)
		}
	}
	return b.String()
}
