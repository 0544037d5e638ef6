package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-transit/pkg/analysis"
	"github.com/dd0wney/cluso-transit/pkg/config"
	"github.com/dd0wney/cluso-transit/pkg/export"
	"github.com/dd0wney/cluso-transit/pkg/graph"
	"github.com/dd0wney/cluso-transit/pkg/ingest"
	"github.com/dd0wney/cluso-transit/pkg/logging"
	"github.com/dd0wney/cluso-transit/pkg/metrics"
)

func main() {
	gtfsDir := flag.String("gtfs", "", "Path to a directory of extracted GTFS files (stops.txt, trips.txt, stop_times.txt)")
	recordsPath := flag.String("records", "", "Path to a JSON file of node records and edge observations, as an alternative to --gtfs")
	configPath := flag.String("config", "", "Path to a YAML analysis config (optional, defaults apply)")
	attributesPath := flag.String("attributes", "", "Path to a JSON file of per-stop service attributes (optional)")
	output := flag.String("out", "snapshot.json", "Snapshot output path (.json or .json.sz)")
	s3Bucket := flag.String("s3-bucket", "", "Also upload the snapshot to this S3 bucket (optional)")
	s3Prefix := flag.String("s3-prefix", "snapshots", "Key prefix for S3 uploads")
	flag.Parse()

	if (*gtfsDir == "") == (*recordsPath == "") {
		fmt.Println("Usage: transit-analyze --gtfs ./feed | --records network.json [--config analysis.yaml] [--attributes attrs.json] [--out snapshot.json]")
		fmt.Println()
		fmt.Println("Runs community, centrality, vulnerability and equity analysis over a")
		fmt.Println("transit network built from a GTFS feed, then exports a JSON snapshot.")
		os.Exit(1)
	}

	logger := logging.DefaultLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", logging.Error(err), logging.Path(*configPath))
			os.Exit(1)
		}
		cfg = loaded
	}

	var (
		nodes        []graph.NodeRecord
		observations []graph.EdgeObservation
		err          error
	)
	if *gtfsDir != "" {
		logger.Info("loading gtfs feed", logging.Component("main"), logging.Path(*gtfsDir))
		nodes, observations, err = ingest.NewLoader(*gtfsDir, ingest.WithLogger(logger)).Load()
	} else {
		logger.Info("loading network records", logging.Component("main"), logging.Path(*recordsPath))
		nodes, observations, err = loadRecords(*recordsPath)
	}
	if err != nil {
		logger.Error("network load failed", logging.Error(err))
		os.Exit(1)
	}

	g, err := graph.Build(nodes, observations)
	if err != nil {
		logger.Error("graph build failed", logging.Error(err))
		os.Exit(1)
	}
	stats := g.Stats()
	logger.Info("graph built",
		logging.Component("main"),
		logging.Int("nodes", stats.NodeCount),
		logging.Int("edges", stats.EdgeCount),
	)

	runnerOpts := []analysis.RunnerOption{
		analysis.WithLogger(logger),
		analysis.WithMetrics(metrics.DefaultRegistry()),
	}
	if *attributesPath != "" {
		attributes, err := loadAttributes(*attributesPath)
		if err != nil {
			logger.Error("failed to load attributes", logging.Error(err), logging.Path(*attributesPath))
			os.Exit(1)
		}
		runnerOpts = append(runnerOpts, analysis.WithAttributes(attributes))
	}

	start := time.Now()
	snapshot, err := analysis.NewRunner(cfg, runnerOpts...).Run(ctx, g)
	if err != nil {
		// Partial snapshots are still worth exporting; a nil one is not.
		if snapshot == nil {
			logger.Error("analysis failed", logging.Error(err))
			os.Exit(1)
		}
		logger.Warn("analysis completed with errors", logging.Error(err))
	}
	logger.Info("analysis complete",
		logging.Component("main"),
		logging.RunID(snapshot.RunID),
		logging.Duration("elapsed", time.Since(start)),
	)

	exporters := []export.Exporter{newFileExporter(*output)}
	if *s3Bucket != "" {
		s3Exporter, err := export.NewS3Exporter(ctx, *s3Bucket, *s3Prefix)
		if err != nil {
			logger.Error("failed to configure s3 export", logging.Error(err))
			os.Exit(1)
		}
		exporters = append(exporters, s3Exporter)
	}

	if err := export.ExportAll(ctx, metrics.DefaultRegistry(), snapshot, exporters...); err != nil {
		logger.Error("export failed", logging.Error(err))
		os.Exit(1)
	}
}

func newFileExporter(path string) export.Exporter {
	if strings.HasSuffix(path, ".sz") {
		return export.NewCompressedFileExporter(path)
	}
	return export.NewFileExporter(path)
}

// loadRecords reads a pre-extracted network description: node records plus
// edge observations, in the same shape graph.Build consumes.
func loadRecords(path string) ([]graph.NodeRecord, []graph.EdgeObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var network struct {
		Nodes []graph.NodeRecord      `json:"nodes"`
		Edges []graph.EdgeObservation `json:"edges"`
	}
	if err := json.Unmarshal(data, &network); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return network.Nodes, network.Edges, nil
}

// loadAttributes reads per-stop service attributes, keyed stop -> attribute
// name -> value, for equity analysis.
func loadAttributes(path string) (map[string]map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var attributes map[string]map[string]float64
	if err := json.Unmarshal(data, &attributes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return attributes, nil
}
