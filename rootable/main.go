package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	rootable "github.com/pxd-tools/rootable_go/pkg"
)

var configuration rootable.Configuration

var (
	logger         Logger
	VerbosityLevel int
	DiscardErrors  bool
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	exportGeometry := flag.String("export-geometry", "", "Write the built-in sensor catalog to this SQLite file and exit")
	minRun := flag.Int("min-run", 0, "First run the exported geometry is valid for")
	maxRun := flag.Int("max-run", 1000000, "Last run the exported geometry is valid for")
	flag.Parse()

	if *exportGeometry != "" {
		if err := exportCatalog(*exportGeometry, *minRun, *maxRun); err != nil {
			logger.Error(fmt.Errorf("Error exporting geometry: %w", err).Error())
			os.Exit(1)
		}
		return
	}

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	rootable.SetConfiguration(configuration)
	rootable.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	DiscardErrors = configuration.Discard
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error(err.Error())
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	start := time.Now()
	runID := uuid.New()
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Run id: %s", runID)
		logger.Info(message, "main")
	}

	catalog, err := rootable.LoadCatalog(configuration)
	if err != nil {
		return fmt.Errorf("error loading sensor catalog: %w", err)
	}
	pipeline, err := rootable.NewPipeline(catalog, configuration)
	if err != nil {
		return err
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return &rootable.ErrOpenFile{Filename: configuration.FileIn, Err: err}
	}
	defer file.Close()

	var writer *rootable.Writer
	if configuration.WriteData {
		writer, err = rootable.NewWriter(configuration.FileOut, runID, configuration)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := rootable.NewEventReader(file, configuration.Skip, configuration.MaxEvents)
	events := make(chan rootable.EventType, 100)
	readErr := make(chan error, 1)
	go func() {
		readErr <- reader.Send(ctx, events)
	}()

	results := rootable.ProcessEvents(ctx, pipeline, events, configuration.NumWorkers)
	evtsProcessed, evtsDiscarded, clusters, runErr := processWorkerResults(results, writer, cancel)

	if err := <-readErr; err != nil && runErr == nil && !errors.Is(err, context.Canceled) {
		runErr = fmt.Errorf("error reading events: %w", err)
	}
	if writer != nil {
		runErr = errors.Join(runErr, writer.Close())
	}

	if VerbosityLevel > 0 {
		duration := time.Since(start)
		message := fmt.Sprintf("Events processed: %d, discarded: %d, clusters: %d in %d ms",
			evtsProcessed, evtsDiscarded, clusters, duration.Milliseconds())
		logger.Info(message, "main")
	}
	return runErr
}

// processWorkerResults writes results in event order. Data errors are
// discarded when configured; any other error cancels the run and the
// remaining results are drained without being written.
func processWorkerResults(results <-chan rootable.EventResult, writer *rootable.Writer,
	cancel context.CancelFunc) (int, int, int, error) {
	evtsProcessed, evtsDiscarded, clusters := 0, 0, 0
	var runErr error
	for result := range results {
		if runErr != nil {
			continue
		}
		if result.Err != nil {
			if DiscardErrors && errors.Is(result.Err, rootable.ErrDataIntegrity) {
				logger.Error(result.Err.Error())
				message := fmt.Sprintf("discarding event %d", result.Event)
				logger.Error(message)
				evtsDiscarded++
				continue
			}
			runErr = result.Err
			cancel()
			continue
		}
		if writer != nil {
			if err := writer.WriteEvent(result.Rows); err != nil {
				runErr = fmt.Errorf("event %d: %w", result.Event, err)
				cancel()
				continue
			}
		}
		evtsProcessed++
		clusters += len(result.Rows)
	}
	return evtsProcessed, evtsDiscarded, clusters, runErr
}

// exportCatalog seeds a local conditions database with the built-in geometry.
func exportCatalog(filename string, minRun, maxRun int) error {
	db, err := rootable.OpenGeometryDB(filename)
	if err != nil {
		return &rootable.ErrOpenFile{Filename: filename, Err: err}
	}
	defer db.Close()

	if err := rootable.CreateGeometrySchema(db); err != nil {
		return err
	}
	if err := rootable.StoreCatalog(db, rootable.ReferenceCatalog(), minRun, maxRun); err != nil {
		return err
	}
	message := fmt.Sprintf("Geometry for runs %d-%d written to %s", minRun, maxRun, filename)
	logger.Info(message, "main")
	return nil
}
