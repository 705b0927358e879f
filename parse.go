package kle

import (
	"errors"
	"io"

	json "github.com/goccy/go-json"

	eng "github.com/reoring/kle/internal/engine"
	"github.com/reoring/kle/source/gojson"
	"github.com/reoring/kle/source/json5"
)

// Parse decodes layout text into a Keyboard. The text is the JSON5 form of
// the row encoding: comments, trailing commas, unquoted keys, single-quoted
// strings and JSON5 numbers are accepted.
func Parse(data []byte, opts ...ParseOpt) (*Keyboard, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, singleIssue(CodeTruncated, "max bytes exceeded")
	}
	v, err := decodeText(data, opt)
	if err != nil {
		return nil, err
	}
	rows, ok := v.([]any)
	if !ok {
		return nil, formatIssue("/", "expected an array of objects", v)
	}
	return Deserialize(rows, opt)
}

// ParseRaw decodes the editor's raw data form: the rows without the
// enclosing brackets.
func ParseRaw(data []byte, opts ...ParseOpt) (*Keyboard, error) {
	wrapped := make([]byte, 0, len(data)+3)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, '\n', ']')
	return Parse(wrapped, opts...)
}

// ParseReader reads all of r and parses it. When MaxBytes is set the size cap
// is enforced while reading.
func ParseReader(r io.Reader, opts ...ParseOpt) (*Keyboard, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 {
		r = io.LimitReader(r, opt.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, singleIssue(CodeParseError, err.Error())
	}
	return Parse(data, opts...)
}

// decodeText builds the generic tree with the duplicate key and depth
// policies applied. Strict JSON streams through go-json; anything else is
// read as JSON5.
func decodeText(data []byte, opt ParseOpt) (any, error) {
	enforce := eng.EnforceOptions{
		OnDuplicate: dupStrictness(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		IssueSink: func(si eng.SimpleIssue) {
			if opt.IssueSink != nil {
				opt.IssueSink(Issue{Path: si.Path, Code: si.Code, Message: si.Message, Offset: -1})
			}
		},
	}
	src := json5.NewBytes(data)
	if json.Valid(data) {
		src = gojson.NewBytes(data)
	}
	v, err := eng.DecodeDocument(eng.WrapWithEnforcement(src, enforce))
	if err != nil {
		var se *json5.SyntaxError
		if errors.As(err, &se) {
			return nil, AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: se.Error(), Cause: err, Offset: se.Offset})
		}
		return nil, toIssues(err)
	}
	return v, nil
}

func dupStrictness(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	}
	return eng.DupIgnore
}

// ---- error mapping ----

func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message, Offset: -1})
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: "unexpected end of input", Cause: err, Offset: -1})
	}
	return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err, Offset: -1})
}
