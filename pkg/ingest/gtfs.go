// Package ingest loads a GTFS subset (stops, trips, stop_times) into the
// node records and edge observations the graph builder consumes. Every pair
// of consecutive stops on a scheduled trip contributes one observation of
// weight 1, so trip frequency accumulates into edge weight.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/logging"
	"github.com/dd0wney/cluso-transit/pkg/validation"
)

// Common sentinel errors
var (
	ErrMissingFile   = errors.New("required GTFS file not found")
	ErrMissingColumn = errors.New("required column not found")
)

// StopRecord is one row of stops.txt.
type StopRecord struct {
	StopID string  `validate:"required"`
	Name   string  `validate:"required"`
	Lat    float64 `validate:"latitude"`
	Lon    float64 `validate:"longitude"`
}

// stopTimeRow is one row of stop_times.txt.
type stopTimeRow struct {
	stopID   string
	sequence int
}

// Loader reads GTFS files from a directory.
type Loader struct {
	dir    string
	logger logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader creates a loader over a directory of extracted GTFS files.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:    dir,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads stops.txt, trips.txt and stop_times.txt and produces graph
// inputs. Rows referencing unknown trips or stops are skipped with a
// warning; malformed stop records fail the load.
func (l *Loader) Load() ([]graph.NodeRecord, []graph.EdgeObservation, error) {
	stops, err := l.readStops()
	if err != nil {
		return nil, nil, err
	}

	tripIDs, err := l.readTrips()
	if err != nil {
		return nil, nil, err
	}

	observations, err := l.readStopTimes(stops, tripIDs)
	if err != nil {
		return nil, nil, err
	}

	nodes := make([]graph.NodeRecord, 0, len(stops))
	for _, s := range stops {
		nodes = append(nodes, s)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	l.logger.Info("gtfs load complete",
		logging.Component("ingest"),
		logging.Int("stops", len(nodes)),
		logging.Int("observations", len(observations)),
	)
	return nodes, observations, nil
}

func (l *Loader) readStops() (map[string]graph.NodeRecord, error) {
	rows, cols, err := l.openCSV("stops.txt", "stop_id", "stop_name", "stop_lat", "stop_lon")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make(map[string]graph.NodeRecord)
	for {
		row, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stops.txt: %w", err)
		}

		lat, err := strconv.ParseFloat(row[cols["stop_lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("stops.txt stop_lat: %w", err)
		}
		lon, err := strconv.ParseFloat(row[cols["stop_lon"]], 64)
		if err != nil {
			return nil, fmt.Errorf("stops.txt stop_lon: %w", err)
		}

		rec := StopRecord{
			StopID: row[cols["stop_id"]],
			Name:   row[cols["stop_name"]],
			Lat:    lat,
			Lon:    lon,
		}
		if err := validation.Struct(rec); err != nil {
			return nil, fmt.Errorf("stops.txt stop %q: %w", rec.StopID, err)
		}

		stops[rec.StopID] = graph.NodeRecord{
			ID:   rec.StopID,
			Name: rec.Name,
			Lat:  rec.Lat,
			Lon:  rec.Lon,
		}
	}
	return stops, nil
}

func (l *Loader) readTrips() (map[string]bool, error) {
	rows, cols, err := l.openCSV("trips.txt", "trip_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make(map[string]bool)
	for {
		row, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("trips.txt: %w", err)
		}
		trips[row[cols["trip_id"]]] = true
	}
	return trips, nil
}

// readStopTimes groups rows by trip, orders by stop_sequence, and emits one
// weight-1 observation per consecutive stop pair.
func (l *Loader) readStopTimes(stops map[string]graph.NodeRecord, tripIDs map[string]bool) ([]graph.EdgeObservation, error) {
	rows, cols, err := l.openCSV("stop_times.txt", "trip_id", "stop_id", "stop_sequence")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTrip := make(map[string][]stopTimeRow)
	skippedTrips := make(map[string]bool)
	skippedStops := 0
	for {
		row, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stop_times.txt: %w", err)
		}

		tripID := row[cols["trip_id"]]
		if !tripIDs[tripID] {
			skippedTrips[tripID] = true
			continue
		}
		stopID := row[cols["stop_id"]]
		if _, ok := stops[stopID]; !ok {
			skippedStops++
			continue
		}
		seq, err := strconv.Atoi(row[cols["stop_sequence"]])
		if err != nil {
			return nil, fmt.Errorf("stop_times.txt stop_sequence: %w", err)
		}
		byTrip[tripID] = append(byTrip[tripID], stopTimeRow{stopID: stopID, sequence: seq})
	}

	if len(skippedTrips) > 0 || skippedStops > 0 {
		l.logger.Warn("skipped unreferenced stop_times rows",
			logging.Component("ingest"),
			logging.Int("unknown_trips", len(skippedTrips)),
			logging.Int("unknown_stops", skippedStops),
		)
	}

	// Sorted trip order keeps observation order, and therefore the built
	// graph, identical across runs.
	trips := make([]string, 0, len(byTrip))
	for id := range byTrip {
		trips = append(trips, id)
	}
	sort.Strings(trips)

	var observations []graph.EdgeObservation
	for _, tripID := range trips {
		sequence := byTrip[tripID]
		sort.Slice(sequence, func(i, j int) bool { return sequence[i].sequence < sequence[j].sequence })

		for i := 1; i < len(sequence); i++ {
			from, to := sequence[i-1].stopID, sequence[i].stopID
			if from == to {
				continue
			}
			observations = append(observations, graph.EdgeObservation{
				FromID: from,
				ToID:   to,
				Weight: 1.0,
			})
		}
	}
	return observations, nil
}

// csvRows wraps a csv.Reader with its backing file for deferred close.
type csvRows struct {
	file   *os.File
	reader *csv.Reader
}

func (r *csvRows) Read() ([]string, error) { return r.reader.Read() }
func (r *csvRows) Close() error            { return r.file.Close() }

// openCSV opens a GTFS file, reads its header, and resolves the required
// column indices.
func (l *Loader) openCSV(name string, required ...string) (*csvRows, map[string]int, error) {
	path := filepath.Join(l.dir, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%s header: %w", name, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			file.Close()
			return nil, nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, col, name)
		}
	}
	return &csvRows{file: file, reader: reader}, cols, nil
}
