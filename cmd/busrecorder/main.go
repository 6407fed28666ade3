package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/transitlog/busrecorder/config"
	"github.com/transitlog/busrecorder/gtfsrt"
	"github.com/transitlog/busrecorder/metrics"
	"github.com/transitlog/busrecorder/poller"
	"github.com/transitlog/busrecorder/store"
)

func main() {
	configPath := flag.String("c", "config.yml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	configureLogging(cfg.Log)

	log.WithField("route_id", cfg.Feed.RouteID).Info("bus route observation recorder starting")

	// The only fatal path: without durable storage there is nothing to run.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("could not initialize store: %v", err)
	}
	defer st.Close()
	log.WithField("path", cfg.Store.Path).Info("database initialized")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logStartupStats(ctx, st, cfg.Feed.RouteID)

	var mcol *metrics.Collector
	if cfg.Metrics.Addr != "" {
		mcol = metrics.NewCollector()
		srv := mcol.Serve(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.WithField("addr", cfg.Metrics.Addr).Info("metrics server listening")
	}

	client := gtfsrt.NewClient(cfg.Feed.VehiclePositionsURL, cfg.Feed.Timeout())
	decoder := gtfsrt.NewDecoder(cfg.Feed.RouteID)

	sup := poller.New(client, decoder, st, cfg.Feed.RouteID, cfg.Feed.PollInterval(), mcol)
	sup.Run(ctx)
}

func logStartupStats(ctx context.Context, st *store.Store, routeID string) {
	total, err := st.CountTotal(ctx)
	if err != nil {
		log.WithError(err).Warn("could not read store totals")
		return
	}
	routeTotal, err := st.CountForRoute(ctx, routeID)
	if err != nil {
		log.WithError(err).Warn("could not read store totals")
		return
	}
	log.WithFields(log.Fields{
		"total_observations": total,
		"route_observations": routeTotal,
	}).Info("database initialized with existing data")
}

func configureLogging(cfg config.LogConfig) {
	log.SetLevel(cfg.ParsedLevel())
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: false})
	log.SetOutput(os.Stdout)

	if cfg.FilePath == "" {
		return
	}

	logDir := filepath.Dir(cfg.FilePath)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			log.Fatalf("could not create log directory: %v", err)
		}
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    100,
		MaxBackups: 30,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	log.AddHook(lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: lumberjackLogger,
		log.FatalLevel: lumberjackLogger,
		log.ErrorLevel: lumberjackLogger,
		log.WarnLevel:  lumberjackLogger,
		log.InfoLevel:  lumberjackLogger,
		log.DebugLevel: lumberjackLogger,
	}, fileFmt))
}
