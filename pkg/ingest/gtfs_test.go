package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
)

func writeGTFS(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func validFeed() map[string]string {
	return map[string]string{
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
s1,Piccadilly Gardens,53.480,-2.237
s2,Market Street,53.481,-2.242
s3,St Peters Square,53.478,-2.244
`,
		"trips.txt": `route_id,service_id,trip_id
r1,weekday,t1
r1,weekday,t2
`,
		"stop_times.txt": `trip_id,stop_id,stop_sequence
t1,s1,1
t1,s2,2
t1,s3,3
t2,s1,1
t2,s2,2
`,
	}
}

func TestLoad_ValidFeed(t *testing.T) {
	dir := writeGTFS(t, validFeed())

	nodes, observations, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	require.NoError(t, err)

	require.Len(t, nodes, 3)
	assert.Equal(t, "s1", nodes[0].ID)
	assert.Equal(t, "Piccadilly Gardens", nodes[0].Name)
	assert.InDelta(t, 53.480, nodes[0].Lat, 1e-9)

	// t1 contributes s1-s2 and s2-s3; t2 contributes s1-s2 again.
	require.Len(t, observations, 3)
	for _, o := range observations {
		assert.Equal(t, 1.0, o.Weight, "each consecutive pair contributes weight 1")
	}
}

func TestLoad_TripFrequencyFoldsIntoWeight(t *testing.T) {
	dir := writeGTFS(t, validFeed())

	nodes, observations, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	require.NoError(t, err)

	g, err := graph.Build(nodes, observations)
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, "s1", edges[0].From)
	assert.Equal(t, "s2", edges[0].To)
	assert.Equal(t, 2.0, edges[0].Weight, "two trips over the same pair sum")
	assert.Equal(t, 2, edges[0].Trips)
	assert.Equal(t, 1.0, edges[1].Weight)
}

func TestLoad_UnknownTripAndStopSkipped(t *testing.T) {
	feed := validFeed()
	feed["stop_times.txt"] += "ghost,s1,1\nghost,s2,2\nt2,missing,3\n"
	dir := writeGTFS(t, feed)

	_, observations, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	require.NoError(t, err)
	assert.Len(t, observations, 3, "unreferenced rows are skipped, not fatal")
}

func TestLoad_SelfLoopPairSkipped(t *testing.T) {
	feed := validFeed()
	feed["stop_times.txt"] = `trip_id,stop_id,stop_sequence
t1,s1,1
t1,s1,2
t1,s2,3
`
	dir := writeGTFS(t, feed)

	_, observations, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "s1", observations[0].FromID)
	assert.Equal(t, "s2", observations[0].ToID)
}

func TestLoad_BadLatitudeRejected(t *testing.T) {
	feed := validFeed()
	feed["stops.txt"] = `stop_id,stop_name,stop_lat,stop_lon
s1,Bad Stop,123.0,-2.237
`
	dir := writeGTFS(t, feed)

	_, _, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestLoad_MissingFile(t *testing.T) {
	feed := validFeed()
	delete(feed, "stop_times.txt")
	dir := writeGTFS(t, feed)

	_, _, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestLoad_MissingColumn(t *testing.T) {
	feed := validFeed()
	feed["stop_times.txt"] = "trip_id,stop_id\nt1,s1\n"
	dir := writeGTFS(t, feed)

	_, _, err := NewLoader(dir, WithLogger(logging.NewNopLogger())).Load()
	assert.ErrorIs(t, err, ErrMissingColumn)
}
