package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/handler/appointment"
	"github.com/jwalitptl/booking-api/internal/handler/availability"
	"github.com/jwalitptl/booking-api/internal/handler/doctor"
	"github.com/jwalitptl/booking-api/internal/handler/patient"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/cache"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	"github.com/jwalitptl/booking-api/internal/router"
	appointmentService "github.com/jwalitptl/booking-api/internal/service/appointment"
	availabilityService "github.com/jwalitptl/booking-api/internal/service/availability"
	doctorService "github.com/jwalitptl/booking-api/internal/service/doctor"
	patientService "github.com/jwalitptl/booking-api/internal/service/patient"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func openStore(cfg *config.Config, log *logger.Logger) (repository.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	return postgres.NewStore(db), nil
}

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.Format == "json",
	})

	base, err := openStore(cfg, log)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer base.Close()

	store := cache.NewStore(base, cache.Config{
		DoctorTTL:       cfg.Cache.DoctorTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})

	m := metrics.New(cfg.Metrics.Namespace)

	appointmentSvc := appointmentService.NewService(store, appointmentService.Config{
		RequireMatchingSlot: cfg.Booking.RequireMatchingSlot,
	}, log, m)
	availabilitySvc := availabilityService.NewService(store, availabilityService.Config{
		MaxRange: cfg.Availability.MaxRange,
	}, log, m)
	doctorSvc := doctorService.NewService(store)
	patientSvc := patientService.NewService(store.Patients())

	routerConfig := router.RouterConfig{
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Server.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.Server.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.Server.RateLimit.Burst
		routerConfig.RateClientTTL = cfg.Server.RateLimit.ClientTTL
	}

	r := router.NewRouter(
		handler.NewHandler(store, prometheus.DefaultGatherer),
		[]router.Handler{
			appointment.NewHandler(appointmentSvc),
			doctor.NewHandler(doctorSvc),
			availability.NewHandler(availabilitySvc),
			patient.NewHandler(patientSvc),
		},
		log,
		m,
		routerConfig,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "server forced to shutdown")
	}
	log.Info("server exited")
}
