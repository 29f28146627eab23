// Package diag defines the condition codes shared by the build, resolve and
// preview pipelines, and the non-fatal Warning value collected while a build
// or a resolution runs.
package diag

import (
	"fmt"
	"sort"
)

// Code identifies a specific condition. Codes are strings so they serialize
// naturally into build reports and HTTP error bodies.
type Code string

const (
	// Generation (per-item, non-fatal).

	// CodeScanWarning marks a path whose shape is not a recognized leaf.
	CodeScanWarning Code = "SCAN_WARNING"

	// CodeExtractionError marks a leaf with no derivable metadata.
	CodeExtractionError Code = "EXTRACTION_ERROR"

	// CodeReferentialIntegrity marks a dangling registryDependencies edge.
	CodeReferentialIntegrity Code = "REFERENTIAL_INTEGRITY"

	// Generation (fatal).

	// CodeDuplicateName marks two distinct keys deriving the same block name.
	CodeDuplicateName Code = "DUPLICATE_NAME"

	// Resolution (per-field, non-fatal).

	// CodeResolutionTimeout marks a store lookup that exceeded its deadline.
	CodeResolutionTimeout Code = "RESOLUTION_TIMEOUT"

	// CodeStoreUnavailable marks a store lookup that failed for any other reason.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"

	// CodeInvalidRecord marks a store record rejected by its content-type schema.
	CodeInvalidRecord Code = "INVALID_RECORD"

	// Request errors.

	// CodeNotFound indicates an unknown block was requested.
	CodeNotFound Code = "NOT_FOUND"

	// CodeComponentMissing indicates a registered block whose source is absent.
	CodeComponentMissing Code = "COMPONENT_MISSING"

	// CodeRenderError indicates template execution failed.
	CodeRenderError Code = "RENDER_ERROR"

	// CodeInvalidInput indicates a malformed request payload.
	CodeInvalidInput Code = "INVALID_INPUT"
)

// Warning is a non-fatal condition attached to an item.
type Warning struct {
	Code    Code   `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Subject, w.Message)
}

// Warnings is an ordered collection of warnings.
type Warnings []Warning

// Add appends a warning built from a format string.
func (ws *Warnings) Add(code Code, subject, format string, args ...any) {
	*ws = append(*ws, Warning{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of warnings carrying code.
func (ws Warnings) Count(code Code) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}

// Sorted returns a copy ordered by subject, then code, then message.
func (ws Warnings) Sorted() Warnings {
	out := make(Warnings, len(ws))
	copy(out, ws)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Message < out[j].Message
	})
	return out
}
