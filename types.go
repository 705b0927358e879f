package kle

// Severity expresses the severity level for advisory issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures how advisory findings are treated. The zero value
// ignores all of them, which is the plain decoding behavior.
type Strictness struct {
	OnDuplicateKey  Severity // Duplicate keys inside one record (text input only).
	OnUnknownField  Severity // Patch or metadata fields the codec does not know.
	OnDroppedLegend Severity // Legends with no slot at the active alignment.
}

// ParseOpt bundles decoding options.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int   // Maximum nesting depth of text input (0 = unlimited).
	MaxBytes   int64 // Maximum size of text input (0 = unlimited).
	// IssueSink receives Warn-level issues. Error-level issues are returned
	// instead. When nil, warnings are discarded.
	IssueSink func(Issue)
}

func lastOpt(opts []ParseOpt) ParseOpt {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return opt
}

// report routes an advisory issue according to sev. It returns the issue as
// an error when sev is Error.
func (o ParseOpt) report(sev Severity, it Issue) error {
	switch sev {
	case Error:
		return AppendIssues(nil, it)
	case Warn:
		if o.IssueSink != nil {
			o.IssueSink(it)
		}
	}
	return nil
}
