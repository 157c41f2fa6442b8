package stopindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedRecord matches every *MalformedRecordError through errors.Is.
var ErrMalformedRecord = errors.New("malformed stop record")

// Reason enumerates why a record was left out of the index.
type Reason string

const (
	ReasonNoCoordinates    Reason = "no_coordinates"
	ReasonOutOfBounds      Reason = "out_of_bounds"
	ReasonNumericCoercion  Reason = "numeric_coercion"
	ReasonMissingID        Reason = "missing_id"
	ReasonUndecodableEntry Reason = "undecodable_entry"
)

// Reasons lists every Reason in a stable order, for metrics and reports.
var Reasons = []Reason{
	ReasonNoCoordinates,
	ReasonOutOfBounds,
	ReasonNumericCoercion,
	ReasonMissingID,
	ReasonUndecodableEntry,
}

// MalformedRecordError describes a single input line or record that yielded no
// stop. It is always recovered: the record is skipped and the run continues.
type MalformedRecordError struct {
	// Line is the 1-based line number for text input, or the 1-based record
	// position for structured input.
	Line   int
	StopID string
	Reason Reason
	Err    error
	// Source names the input the record came from when an index is fed from
	// several inputs.
	Source string
}

func (e *MalformedRecordError) MarshalJSON() ([]byte, error) {
	type entry struct {
		Source string `json:"source,omitempty"`
		Line   int    `json:"line"`
		StopID string `json:"stopId,omitempty"`
		Reason Reason `json:"reason"`
		Detail string `json:"detail,omitempty"`
	}
	out := entry{Source: e.Source, Line: e.Line, StopID: e.StopID, Reason: e.Reason}
	if e.Err != nil {
		out.Detail = e.Err.Error()
	}
	return json.Marshal(out)
}

func (e *MalformedRecordError) Error() string {
	msg := "record " + strconv.Itoa(e.Line)
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.StopID != "" {
		msg += " (stop " + e.StopID + ")"
	}
	msg += ": " + string(e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// NumericCoercionError reports a lat/lng field that could not be read as a number.
type NumericCoercionError struct {
	Field string
	Value string
	Err   error
}

func (e *NumericCoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %s: cannot use %q as a number: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("field %s: cannot use %q as a number", e.Field, e.Value)
}

func (e *NumericCoercionError) Unwrap() error { return e.Err }

// Report is what a parser hands back next to the index: the records it left
// out and the ids it saw more than once. Parsers never print; callers decide
// how to surface the report.
type Report struct {
	Omitted    []*MalformedRecordError `json:"omitted"`
	Duplicates []string                `json:"duplicates"`
}

// OmittedIDs returns the stop ids of omitted records that had one, in order.
func (r Report) OmittedIDs() []string {
	ids := make([]string, 0, len(r.Omitted))
	for _, o := range r.Omitted {
		if o.StopID != "" {
			ids = append(ids, o.StopID)
		}
	}
	return ids
}

// CountByReason tallies omissions per reason.
func (r Report) CountByReason() map[Reason]int {
	counts := make(map[Reason]int, len(Reasons))
	for _, o := range r.Omitted {
		counts[o.Reason]++
	}
	return counts
}

// Merge appends other to r, used when one index is fed from several sources.
func (r *Report) Merge(other Report) {
	r.Omitted = append(r.Omitted, other.Omitted...)
	r.Duplicates = append(r.Duplicates, other.Duplicates...)
}

func (r *Report) omit(line int, stopID string, reason Reason, err error) {
	r.Omitted = append(r.Omitted, &MalformedRecordError{
		Line:   line,
		StopID: stopID,
		Reason: reason,
		Err:    err,
	})
}
