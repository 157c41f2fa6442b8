package routes

import "strings"

// DefaultDirectionSuffixes are the direction markers found at the end of line
// names in the mobile client sources.
var DefaultDirectionSuffixes = []string{"Dogru", "Ters", "Gidis", "Donus", "A"}

// BusLineSuffixes are the markers removed from line names in bus_lines.json.
// A trailing "A" is only a variant marker when it ends the full name, so it is
// tried first; "Ters" and "Gidis" lines keep their names.
var BusLineSuffixes = []string{"A", "Dogru", "Donus"}

// TrimDirection strips direction markers from the end of name. Suffixes are
// tried once each, in order, ignoring case; a suffix is never stripped if
// nothing would be left.
//
//	TrimDirection("K7Dogru", DefaultDirectionSuffixes)  // "K7"
//	TrimDirection("K6ADonus", DefaultDirectionSuffixes) // "K6"
func TrimDirection(name string, suffixes []string) string {
	for _, s := range suffixes {
		if s == "" || len(name) <= len(s) {
			continue
		}
		if strings.EqualFold(name[len(name)-len(s):], s) {
			name = name[:len(name)-len(s)]
		}
	}
	return name
}
