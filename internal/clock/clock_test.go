package clock

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock_Now(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()
	after := time.Now()

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestMockClock(t *testing.T) {
	start := time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())

	c.Advance(-30 * time.Second)
	assert.Equal(t, start.Add(time.Minute), c.Now())

	later := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestMockClock_ConcurrentAccess(t *testing.T) {
	c := NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
		go func() {
			defer wg.Done()
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 50, 0, time.UTC), c.Now())
}

func TestPinnedClock_FallbackToSystemTime(t *testing.T) {
	c := NewPinnedClock("", "", nil)
	before := time.Now()
	got := c.Now()
	assert.False(t, got.Before(before))
}

func TestPinnedClock_FromEnv(t *testing.T) {
	t.Setenv("ROUTEGEOM_TEST_NOW", "2025-10-18T09:00:00Z")
	c := NewPinnedClock("ROUTEGEOM_TEST_NOW", "", nil)
	assert.Equal(t, time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC), c.Now().UTC())
}

func TestPinnedClock_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "now")
	require.NoError(t, os.WriteFile(path, []byte("1760778000\n"), 0o644))

	c := NewPinnedClock("", path, nil)
	assert.Equal(t, time.Unix(1760778000, 0).UTC(), c.Now())
}

func TestPinnedClock_EnvTakesPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "now")
	require.NoError(t, os.WriteFile(path, []byte("2020-01-01T00:00:00Z"), 0o644))
	t.Setenv("ROUTEGEOM_TEST_NOW", "2025-10-18T09:00:00Z")

	c := NewPinnedClock("ROUTEGEOM_TEST_NOW", path, nil)
	assert.Equal(t, 2025, c.Now().Year())
}

func TestPinnedClock_InvalidEnvFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "now")
	require.NoError(t, os.WriteFile(path, []byte("2020-01-01T00:00:00Z"), 0o644))
	t.Setenv("ROUTEGEOM_TEST_NOW", "yesterday")

	c := NewPinnedClock("ROUTEGEOM_TEST_NOW", path, nil)
	assert.Equal(t, 2020, c.Now().Year())
}

func TestPinnedClock_Parse(t *testing.T) {
	istanbul := time.FixedZone("+03", 3*60*60)
	c := NewPinnedClock("", "", istanbul)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-10-18T09:00:00Z", time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)},
		{"1760778000", time.Unix(1760778000, 0).UTC()},
		{"2025-10-18 12:00:00", time.Date(2025, 10, 18, 12, 0, 0, 0, istanbul)},
		{"2025-10-18T12:00:00", time.Date(2025, 10, 18, 12, 0, 0, 0, istanbul)},
		{" 2025-10-18\n", time.Date(2025, 10, 18, 0, 0, 0, 0, istanbul)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := c.Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	_, err := c.Parse("18/10/2025")
	assert.Error(t, err)

	_, err = NewPinnedClock("", "", nil).Parse("2025-10-18")
	assert.ErrorContains(t, err, "expected RFC 3339 or Unix seconds")
}
