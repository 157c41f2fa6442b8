package stopindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

// record is one entry of a structured stop listing. Ids and coordinates show
// up both as JSON numbers and as strings in the wild, so they are decoded
// lazily.
type record struct {
	StopID   json.RawMessage `json:"stopId"`
	StopName string          `json:"stopName"`
	Lat      json.RawMessage `json:"lat"`
	Lng      json.RawMessage `json:"lng"`
	Routes   []string        `json:"routes"`
}

// RecordParser reads a JSON array of stop records.
type RecordParser struct {
	Bounds geo.Bounds
	Policy MergePolicy
}

// NewRecordParser returns a parser using the default bounds and KeepLast.
func NewRecordParser() *RecordParser {
	return &RecordParser{Bounds: geo.DefaultBounds(), Policy: KeepLast}
}

// ParseRecords is a shorthand for NewRecordParser().Parse(r).
func ParseRecords(r io.Reader) (*Index, Report, error) {
	return NewRecordParser().Parse(r)
}

// Parse builds an index from a JSON array of records. A document that is not a
// JSON array is an error; individual bad records are reported and skipped.
func (p *RecordParser) Parse(r io.Reader) (*Index, Report, error) {
	b := NewBuilder(p.Bounds, p.Policy)
	report, err := p.ParseInto(b, r)
	if err != nil {
		return nil, Report{}, err
	}
	report.Duplicates = b.Duplicates()
	return b.Build(), report, nil
}

// ParseInto adds the records in r to b and returns the omitted records.
func (p *RecordParser) ParseInto(b *Builder, r io.Reader) (Report, error) {
	var report Report

	var entries []json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return report, fmt.Errorf("decoding stop records: %w", err)
	}

	for i, raw := range entries {
		pos := i + 1

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.omit(pos, "", ReasonUndecodableEntry, err)
			continue
		}

		id := rawString(rec.StopID)
		if id == "" {
			report.omit(pos, "", ReasonMissingID, nil)
			continue
		}

		lat, err := toFloat("lat", rec.Lat)
		if err != nil {
			report.omit(pos, id, ReasonNumericCoercion, err)
			continue
		}
		lng, err := toFloat("lng", rec.Lng)
		if err != nil {
			report.omit(pos, id, ReasonNumericCoercion, err)
			continue
		}

		stop := Stop{
			ID:         id,
			Coordinate: geo.Coordinate{Lat: lat, Lng: lng},
			Name:       strings.TrimSpace(rec.StopName),
			Routes:     rec.Routes,
		}
		if !b.Add(stop) {
			report.omit(pos, id, ReasonOutOfBounds,
				fmt.Errorf("%s outside %+v", stop.Coordinate, b.Bounds()))
		}
	}

	return report, nil
}

// rawString returns the textual form of a JSON string or number, "" for
// null, absent or any other kind of value.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

var errNotNumeric = errors.New("not a number")

// toFloat accepts a JSON number or a string holding one.
func toFloat(field string, raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, &NumericCoercionError{Field: field, Value: "", Err: errNotNumeric}
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, &NumericCoercionError{Field: field, Value: string(raw), Err: errNotNumeric}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &NumericCoercionError{Field: field, Value: s, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &NumericCoercionError{Field: field, Value: s, Err: errNotNumeric}
	}
	return v, nil
}
