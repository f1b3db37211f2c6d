package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/airobo-data/neurotrainer/internal/api"
	"github.com/airobo-data/neurotrainer/internal/config"
	"github.com/airobo-data/neurotrainer/internal/eeg"
	"github.com/airobo-data/neurotrainer/internal/headset"
	"github.com/airobo-data/neurotrainer/internal/recorder"
	"github.com/airobo-data/neurotrainer/internal/scoring"
	"github.com/airobo-data/neurotrainer/internal/sessiondb"
	"github.com/airobo-data/neurotrainer/internal/timeutil"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode against a fixture file instead of the headset")
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "Path to a trainer config JSON file")
	fixture    = flag.String("fixture", "fixtures.txt", "Fixture file with raw sample lines (dev mode)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTrainerConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var stream headset.StreamInterface
	if *devMode {
		data, err := os.ReadFile(*fixture)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		stream = headset.NewMockStream(data, cfg.GetSamplingRateHz())
	} else {
		port, err := headset.OpenSerial(cfg.GetSerialPort(), cfg.GetBaudRate())
		if err != nil {
			log.Fatalf("failed to open headset port: %v", err)
		}
		stream = headset.NewStream(port)
	}
	defer stream.Close()

	db, err := sessiondb.NewDB(cfg.GetDatabasePath())
	if err != nil {
		log.Fatalf("failed to open session database: %v", err)
	}
	defer db.Close()

	clock := timeutil.RealClock{}
	estimator := eeg.NewBandEstimator(
		cfg.GetSamplingRateHz(),
		cfg.GetBandLowHz(), cfg.GetBandHighHz(),
		cfg.GetNotchHz(),
	)
	engine := scoring.NewEngine(cfg.GetLeaderboardPath(), clock)
	rec := recorder.NewRecorder(
		cfg.GetRecordingDir(),
		cfg.GetLeftChannel(), cfg.GetCenterChannel(), cfg.GetRightChannel(),
	)
	server := api.NewServer(estimator, engine, db, rec, clock)

	// Wait group for the stream monitor, sample feed, analysis tick and
	// HTTP server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the headset port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := stream.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor headset stream: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// subscribe to the parsed samples and feed the estimator buffers
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := stream.Subscribe()
		defer stream.Unsubscribe(id)
		for {
			select {
			case sample := <-c:
				server.FeedSample(sample)
			case <-ctx.Done():
				log.Printf("sample feed routine terminated")
				return
			}
		}
	}()

	// run the attention analysis on a fixed tick
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := clock.NewTicker(cfg.GetAnalysisInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				server.RunAnalysis()
			case <-ctx.Done():
				log.Printf("analysis routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", server.ServeMux()))

		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
