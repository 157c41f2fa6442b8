package stopindex

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFeed zips a minimal GTFS static feed.
func buildFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testFeed(t *testing.T) []byte {
	return buildFeed(t, map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"ERZ,Erzurum Ulaşım,https://example.com,Europe/Istanbul\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,ERZ,K7,Kampüs,3\n" +
			"R2,ERZ,,Havalimanı,3\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,Yakutiye,39.9043,41.2679\n" +
			"S2,Çarşı,39.9050,41.2700\n" +
			"S3,Kampüs,39.9000,41.2400\n" +
			"S4,Uzak,10.0,10.0\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WK,1,1,1,1,1,0,0,20250101,20251231\n",
		"trips.txt": "route_id,service_id,trip_id,direction_id\n" +
			"R1,WK,T1,0\n" +
			"R1,WK,T2,0\n" +
			"R1,WK,T3,1\n" +
			"R2,WK,T4,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:10:00,08:10:00,S3,3\n" +
			"T1,08:00:00,08:00:00,S1,1\n" +
			"T1,08:05:00,08:05:00,S2,2\n" +
			"T2,09:00:00,09:00:00,S1,1\n" +
			"T2,09:05:00,09:05:00,S2,2\n" +
			"T3,10:00:00,10:00:00,S3,1\n" +
			"T3,10:05:00,10:05:00,S2,2\n" +
			"T3,10:10:00,10:10:00,S1,3\n" +
			"T4,11:00:00,11:00:00,S1,1\n" +
			"T4,11:30:00,11:30:00,S4,2\n",
	})
}

func TestParseGTFS(t *testing.T) {
	idx, seqs, report, err := ParseGTFS(testFeed(t))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"S1", "S2", "S3"}, idx.IDs())

	s1, ok := idx.Get("S1")
	require.True(t, ok)
	assert.Equal(t, "Yakutiye", s1.Name)
	assert.ElementsMatch(t, []string{"K7", "R2"}, s1.Routes, "routes without a short name use the route id")

	s3, ok := idx.Get("S3")
	require.True(t, ok)
	assert.Equal(t, []string{"K7"}, s3.Routes)

	require.Len(t, report.Omitted, 1)
	assert.Equal(t, "S4", report.Omitted[0].StopID)
	assert.Equal(t, ReasonOutOfBounds, report.Omitted[0].Reason)

	require.Len(t, seqs, 3, "one sequence per route and direction")
	byTrip := make(map[string]Sequence)
	for _, s := range seqs {
		byTrip[s.TripID] = s
	}

	require.Contains(t, byTrip, "T1", "the longest trip represents its direction")
	assert.Equal(t, "K7", byTrip["T1"].Route)
	assert.Equal(t, []string{"S1", "S2", "S3"}, byTrip["T1"].StopIDs, "stops follow stop_sequence")

	require.Contains(t, byTrip, "T3")
	assert.Equal(t, []string{"S3", "S2", "S1"}, byTrip["T3"].StopIDs)
	assert.NotEqual(t, byTrip["T1"].Direction, byTrip["T3"].Direction)

	require.Contains(t, byTrip, "T4")
	assert.Equal(t, "R2", byTrip["T4"].Route)
	assert.Equal(t, []string{"S1", "S4"}, byTrip["T4"].StopIDs)
}

func TestParseGTFS_InvalidArchive(t *testing.T) {
	_, _, _, err := ParseGTFS([]byte("not a zip file"))
	assert.Error(t, err)
}
