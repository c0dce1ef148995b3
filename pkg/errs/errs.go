// Package errs defines the closed set of failure kinds surfaced by the
// translation, execution and ingestion paths. Callers branch on Kind rather
// than on error text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindTranslation covers provider failures and empty or unusable completions.
	KindTranslation Kind = iota + 1
	// KindExecution covers every database-layer failure while running a query.
	KindExecution
	// KindIngestRecord covers a single rejected record during ingestion.
	KindIngestRecord
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindExecution:
		return "execution"
	case KindIngestRecord:
		return "ingest_record"
	default:
		return "unknown"
	}
}

// Error carries a Kind and the original cause.
type Error struct {
	Kind Kind
	// ID is the offending record id for KindIngestRecord, empty otherwise.
	ID  string
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s error (id %s): %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Translation wraps err as a translation failure.
func Translation(err error) error {
	return &Error{Kind: KindTranslation, Err: err}
}

// Execution wraps err as a database execution failure.
func Execution(err error) error {
	return &Error{Kind: KindExecution, Err: err}
}

// IngestRecord wraps err as a failure of the record identified by id.
func IngestRecord(id string, err error) error {
	return &Error{Kind: KindIngestRecord, ID: id, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
