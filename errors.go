package kle

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeFormat            = "format"
	CodeMetadataPlacement = "metadata_placement"
	CodeRotationPlacement = "rotation_placement"
	CodeParseError        = "parse_error"
	CodeDuplicateKey      = "duplicate_key"
	CodeTruncated         = "truncated"
	// Advisory codes; reported through ParseOpt.IssueSink unless promoted by Strictness.
	CodeUnknownField  = "unknown_field"
	CodeDroppedLegend = "dropped_legend"
)

// Sentinel causes for the three structural decode failures. They are attached
// as Issue.Cause so callers can use errors.Is on the returned error.
var (
	ErrFormat            = errors.New("kle: format error")
	ErrMetadataPlacement = errors.New("kle: keyboard metadata must be the first element")
	ErrRotationPlacement = errors.New("kle: rotation can only be specified on the first key in a row")
)

// Issue represents a single decode finding.
type Issue struct {
	Path    string // JSON Pointer into the row sequence (for example: /2/0/r).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	Offset  int64 // Byte offset in the input text (-1 when unknown).
	// InputFragment is an optional JSON rendering of the offending row or item.
	InputFragment string
}

func (it Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s", it.Code, it.Path)
	if it.Message != "" {
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	if it.InputFragment != "" {
		b.WriteString(":\n  ")
		b.WriteString(it.InputFragment)
	}
	return b.String()
}

// Issues is a collection of decode errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. rotation_placement at /0/1
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is(err, ErrRotationPlacement) works.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func singleIssue(code, msg string) Issues { return AppendIssues(nil, Issue{Code: code, Message: msg, Offset: -1}) }
