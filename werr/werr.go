// Package werr defines the error kinds produced by a ww2ogg-core
// conversion, as enumerated in the error handling design: FileOpen,
// Parse, Codebook, InvalidCodebookID, SizeMismatch and EndOfStream.
//
// Each kind is a distinct type so that callers can discriminate with
// errors.As instead of string matching. A higher-level caller that
// wants to retry a conversion against a different codebook library
// should match on the Codebook, InvalidCodebookID and SizeMismatch
// kinds only (see IsCodebookFamily), and must not retry on Parse or
// FileOpen.
package werr

import "fmt"

// FileOpen reports that a source file could not be opened or read.
type FileOpen struct {
	Name string
	Err  error
}

func (e *FileOpen) Error() string {
	return fmt.Sprintf("could not open %q: %s", e.Name, e.Err)
}

func (e *FileOpen) Unwrap() error { return e.Err }

// NewFileOpen builds a FileOpen error.
func NewFileOpen(name string, err error) error {
	return &FileOpen{Name: name, Err: err}
}

// Parse reports a container or bit-level structural failure: a
// truncated chunk, an unrecognized fmt layout, an inconsistent
// setup-to-audio transition, and so on.
type Parse struct {
	Reason string
}

func (e *Parse) Error() string { return "parse: " + e.Reason }

// NewParse builds a Parse error from a formatted reason.
func NewParse(format string, args ...any) error {
	return &Parse{Reason: fmt.Sprintf(format, args...)}
}

// Codebook reports that the input parsed syntactically but is
// semantically inconsistent with the codebook library in use — most
// often the symptom of converting a file against the wrong codebook
// set (e.g. aoTuV material run through the default library).
type Codebook struct {
	Reason string
}

func (e *Codebook) Error() string { return "codebook: " + e.Reason }

// NewCodebook builds a Codebook error from a formatted reason.
func NewCodebook(format string, args ...any) error {
	return &Codebook{Reason: fmt.Sprintf(format, args...)}
}

// InvalidCodebookID reports a codebook library lookup index that is
// out of range of the loaded library. It carries the offending ID so
// the CLI can surface it, and is treated as part of the Codebook
// family for retry purposes.
type InvalidCodebookID struct {
	ID int
}

func (e *InvalidCodebookID) Error() string {
	return fmt.Sprintf("invalid codebook id %d in library; try --inline-codebooks", e.ID)
}

// NewInvalidCodebookID builds an InvalidCodebookID error.
func NewInvalidCodebookID(id int) error {
	return &InvalidCodebookID{ID: id}
}

// SizeMismatch reports that a rebuilt stripped codebook consumed a
// different number of bytes than the codebook library declared for
// that entry. It is treated as a Codebook-family error.
type SizeMismatch struct {
	Expected int
	Actual   int
}

func (e *SizeMismatch) Error() string {
	return fmt.Sprintf("codebook size mismatch: expected %d bytes, rebuilt %d",
		e.Expected, e.Actual)
}

// NewSizeMismatch builds a SizeMismatch error.
func NewSizeMismatch(expected, actual int) error {
	return &SizeMismatch{Expected: expected, Actual: actual}
}

// EndOfStream reports that a bit source was exhausted mid-read.
type EndOfStream struct{}

func (e *EndOfStream) Error() string { return "end of stream" }

// ErrEndOfStream is the single shared EndOfStream value; bit readers
// never need to carry extra context for it.
var ErrEndOfStream error = &EndOfStream{}

// IsCodebookFamily reports whether err is a Codebook, InvalidCodebookID
// or SizeMismatch error — the family a caller may retry against a
// different codebook library, per the error handling policy.
func IsCodebookFamily(err error) bool {
	switch err.(type) {
	case *Codebook, *InvalidCodebookID, *SizeMismatch:
		return true
	default:
		return false
	}
}
