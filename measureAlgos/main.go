package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	rootable "github.com/pxd-tools/rootable_go/pkg"
)

var configuration rootable.Configuration

var logger Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	logger = Logger{
		InfoLog:  slog.New(slog.NewTextHandler(os.Stdout, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(os.Stderr, opts)),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	modesFlag := flag.String("modes", "components,window", "Clustering modes to time")
	workersFlag := flag.String("workers", "1,2,4,8", "Worker counts to time")
	repeat := flag.Int("repeat", 3, "Runs per mode and worker count")
	compression := flag.Bool("compression", false, "Also time the writer at every compression level")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	rootable.SetConfiguration(configuration)
	rootable.SetLogger(logger)
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
	}

	modes, err := parseModes(*modesFlag)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	workers, err := parseWorkers(*workersFlag)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	catalog, err := rootable.LoadCatalog(configuration)
	if err != nil {
		logger.Error(fmt.Errorf("error loading sensor catalog: %w", err).Error())
		os.Exit(1)
	}

	events, err := readEvents(configuration.FileIn)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	fmt.Println("Total events read: ", len(events))

	start := time.Now()
	var sample []rootable.Table
	for _, mode := range modes {
		config := configuration
		config.Mode = mode
		pipeline, err := rootable.NewPipeline(catalog, config)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		for _, n := range workers {
			for i := 0; i < *repeat; i++ {
				m := measure(pipeline, events, n)
				fmt.Printf("(%s, %d workers) Time: %d ms, clusters %d, errors %d\n",
					mode, n, m.Duration.Milliseconds(), m.Clusters, m.Errors)
				sample = m.Tables
			}
		}
	}

	if *compression && configuration.FileOut != "" {
		for compressionLevel := 0; compressionLevel < 10; compressionLevel++ {
			configuration.CompressionLevel = compressionLevel
			start := time.Now()
			if err := writeSample(sample); err != nil {
				logger.Error(fmt.Sprintf("Error writing sample: %v", err))
				continue
			}
			duration := time.Since(start)
			fileInfo, err := os.Stat(configuration.FileOut)
			if err != nil {
				logger.Error(fmt.Sprintf("Error getting file info: %v", err))
				continue
			}
			fmt.Printf("(hdf5, comp %d) Time: %d ms, size %d bytes\n", compressionLevel, duration.Milliseconds(), fileInfo.Size())
		}
	}

	duration := time.Since(start)
	fmt.Printf("Total time: %d ms\n", duration.Milliseconds())
}

func readEvents(filename string) ([]rootable.EventType, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &rootable.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	reader := rootable.NewEventReader(file, configuration.Skip, configuration.MaxEvents)
	events := make([]rootable.EventType, 0)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
}

func writeSample(sample []rootable.Table) error {
	writer, err := rootable.NewWriter(configuration.FileOut, uuid.New(), configuration)
	if err != nil {
		return err
	}
	return errors.Join(processWorkerResults(sample, writer), writer.Close())
}
