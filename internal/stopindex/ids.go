package stopindex

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ExtractIDs lists the identifier at the start of every line of r, in order
// and with repeats. It is used to prepare the explicit stop-id list of a route
// from a copied timetable.
func ExtractIDs(r io.Reader, minDigits int) ([]string, error) {
	g := Grammar{MinIDDigits: minDigits}

	var ids []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if id, _ := g.LeadingID(strings.TrimSpace(scanner.Text())); id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return ids, fmt.Errorf("reading identifiers: %w", err)
	}
	return ids, nil
}
