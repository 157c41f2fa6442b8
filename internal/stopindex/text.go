package stopindex

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

// Grammar describes what a stop line looks like in free text. The defaults
// match the Erzurum stop listings: a five digit id at the start of the line and
// a "39.xxxx 41.xxxx" coordinate pair somewhere after it.
type Grammar struct {
	MinIDDigits int `yaml:"minIdDigits" json:"minIdDigits" validate:"gte=1"`

	LatMinInt int `yaml:"latMinInt" json:"latMinInt" validate:"gte=-90,lte=90,ltefield=LatMaxInt"`
	LatMaxInt int `yaml:"latMaxInt" json:"latMaxInt" validate:"gte=-90,lte=90"`
	LngMinInt int `yaml:"lngMinInt" json:"lngMinInt" validate:"gte=-180,lte=180,ltefield=LngMaxInt"`
	LngMaxInt int `yaml:"lngMaxInt" json:"lngMaxInt" validate:"gte=-180,lte=180"`

	MinFraction int `yaml:"minFraction" json:"minFraction" validate:"gte=1,ltefield=MaxFraction"`
	MaxFraction int `yaml:"maxFraction" json:"maxFraction" validate:"gte=1,lte=17"`
}

// DefaultGrammar returns the grammar of the Erzurum stop listings.
func DefaultGrammar() Grammar {
	return Grammar{
		MinIDDigits: 5,
		LatMinInt:   36,
		LatMaxInt:   39,
		LngMinInt:   40,
		LngMaxInt:   43,
		MinFraction: 4,
		MaxFraction: 8,
	}
}

// IsZero reports whether the grammar was left unset.
func (g Grammar) IsZero() bool {
	return g == Grammar{}
}

// decimal is one numeric literal found on a line.
type decimal struct {
	text     string
	intPart  string
	fraction string
	// leftBounded and rightBounded report whether the literal starts and ends
	// at a word boundary.
	leftBounded  bool
	rightBounded bool
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isWordByte follows the ASCII notion of a word character; bytes of multi-byte
// UTF-8 sequences are never word characters.
func isWordByte(c byte) bool {
	return isDigit(c) || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// LeadingID returns the identifier at the start of line, or "" when the line
// does not start with at least MinIDDigits digits followed by a word boundary.
// The second result is the offset just past the identifier.
func (g Grammar) LeadingID(line string) (string, int) {
	n := 0
	for n < len(line) && isDigit(line[n]) {
		n++
	}
	if n == 0 || n < g.MinIDDigits {
		return "", 0
	}
	if n < len(line) && isWordByte(line[n]) {
		return "", 0
	}
	return line[:n], n
}

// decimals tokenizes line[from:] into numeric literals.
func decimals(line string, from int) []decimal {
	var out []decimal
	i := from
	for i < len(line) {
		if !isDigit(line[i]) {
			i++
			continue
		}
		start := i
		for i < len(line) && isDigit(line[i]) {
			i++
		}
		d := decimal{intPart: line[start:i]}
		if i+1 < len(line) && line[i] == '.' && isDigit(line[i+1]) {
			i++
			fracStart := i
			for i < len(line) && isDigit(line[i]) {
				i++
			}
			d.fraction = line[fracStart:i]
		}
		d.text = line[start:i]
		d.leftBounded = start == 0 || !isWordByte(line[start-1])
		d.rightBounded = i == len(line) || !isWordByte(line[i])
		out = append(out, d)
	}
	return out
}

func (g Grammar) candidate(d decimal, minInt, maxInt int) bool {
	if !d.leftBounded || d.fraction == "" {
		return false
	}
	if len(d.fraction) < g.MinFraction || len(d.fraction) > g.MaxFraction {
		return false
	}
	if len(d.intPart) > 1 && d.intPart[0] == '0' {
		return false
	}
	v, err := strconv.Atoi(d.intPart)
	if err != nil {
		return false
	}
	return v >= minInt && v <= maxInt
}

// Coordinates finds the first adjacent latitude/longitude pair in line[from:].
func (g Grammar) Coordinates(line string, from int) (geo.Coordinate, bool) {
	tokens := decimals(line, from)
	for i := 0; i+1 < len(tokens); i++ {
		lat, lng := tokens[i], tokens[i+1]
		if !g.candidate(lat, g.LatMinInt, g.LatMaxInt) {
			continue
		}
		if !g.candidate(lng, g.LngMinInt, g.LngMaxInt) || !lng.rightBounded {
			continue
		}
		latVal, err := strconv.ParseFloat(lat.text, 64)
		if err != nil {
			continue
		}
		lngVal, err := strconv.ParseFloat(lng.text, 64)
		if err != nil {
			continue
		}
		return geo.Coordinate{Lat: latVal, Lng: lngVal}, true
	}
	return geo.Coordinate{}, false
}

// TextParser reads stops out of free text, one candidate stop per line.
type TextParser struct {
	Grammar Grammar
	Bounds  geo.Bounds
	Policy  MergePolicy
}

// NewTextParser returns a parser using the default grammar and bounds.
func NewTextParser() *TextParser {
	return &TextParser{
		Grammar: DefaultGrammar(),
		Bounds:  geo.DefaultBounds(),
		Policy:  KeepLast,
	}
}

// Parse builds an index from r. Lines without a leading identifier are
// skipped silently; lines with an identifier but no usable coordinates are
// listed in the report. The error is non-nil only when reading r fails.
func (p *TextParser) Parse(r io.Reader) (*Index, Report, error) {
	b := NewBuilder(p.Bounds, p.Policy)
	report, err := p.ParseInto(b, r)
	if err != nil {
		return nil, Report{}, err
	}
	report.Duplicates = b.Duplicates()
	return b.Build(), report, nil
}

// ParseInto adds the stops found in r to b and returns the omitted lines.
func (p *TextParser) ParseInto(b *Builder, r io.Reader) (Report, error) {
	var report Report

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		id, rest := p.Grammar.LeadingID(line)
		if id == "" {
			continue
		}

		coord, ok := p.Grammar.Coordinates(line, rest)
		if !ok {
			report.omit(lineNo, id, ReasonNoCoordinates, nil)
			continue
		}

		if !b.Add(Stop{ID: id, Coordinate: coord}) {
			report.omit(lineNo, id, ReasonOutOfBounds,
				fmt.Errorf("%s outside %+v", coord, b.Bounds()))
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("reading stop text at line %d: %w", lineNo+1, err)
	}
	return report, nil
}
