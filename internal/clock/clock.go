// Package clock abstracts the wall clock so export timestamps and rate
// limiting can be pinned in tests and in reproducible runs.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a settable clock, safe for concurrent use.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock by d, which may be negative.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// PinnedClock reports a time taken from an environment variable or a file,
// falling back to the system clock when neither holds a usable value. It lets
// a run stamp its exports with a fixed time, e.g. the commit time of the
// input data.
//
// Accepted values are RFC 3339 timestamps, Unix seconds, and when Location
// is set, "2006-01-02 15:04:05", "2006-01-02T15:04:05" and "2006-01-02".
type PinnedClock struct {
	EnvVar   string
	FilePath string
	Location *time.Location
}

func NewPinnedClock(envVar, filePath string, location *time.Location) *PinnedClock {
	return &PinnedClock{EnvVar: envVar, FilePath: filePath, Location: location}
}

// Now checks the environment variable first, then the file.
func (p *PinnedClock) Now() time.Time {
	if t, err := p.fromEnv(); err == nil {
		return t
	}
	if t, err := p.fromFile(); err == nil {
		return t
	}
	if p.EnvVar != "" || p.FilePath != "" {
		slog.Warn("pinned clock has no usable time, using system time",
			slog.String("component", "clock"),
			slog.String("envVar", p.EnvVar),
			slog.String("filePath", p.FilePath))
	}
	return time.Now()
}

func (p *PinnedClock) fromEnv() (time.Time, error) {
	if p.EnvVar == "" {
		return time.Time{}, errors.New("no environment variable configured")
	}
	v := os.Getenv(p.EnvVar)
	if v == "" {
		return time.Time{}, fmt.Errorf("environment variable %s is empty", p.EnvVar)
	}
	return p.Parse(v)
}

func (p *PinnedClock) fromFile() (time.Time, error) {
	if p.FilePath == "" {
		return time.Time{}, errors.New("no file configured")
	}
	data, err := os.ReadFile(p.FilePath)
	if err != nil {
		return time.Time{}, err
	}
	return p.Parse(string(data))
}

// Parse converts s to a time using the accepted formats.
func (p *PinnedClock) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}

	if p.Location == nil {
		return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC 3339 or Unix seconds", s)
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, p.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC 3339, Unix seconds, YYYY-MM-DD HH:MM:SS, YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD", s)
}
