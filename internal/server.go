package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"traintrack/internal/config"
	"traintrack/internal/db"
	"traintrack/internal/gym/exercises"
	"traintrack/internal/gym/sets"
	"traintrack/internal/gym/stats"
	"traintrack/internal/gym/suggest"
	"traintrack/internal/gym/workouts"
	"traintrack/internal/middleware"
	"traintrack/internal/telemetry/metrics"
	"traintrack/internal/telemetry/tracing"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config   *config.Config
	database *db.DB

	exercisesRepo *exercises.Repo
	workoutsRepo  *workouts.Repo
	setsRepo      *sets.Repo
	statsRepo     *stats.Repo
	suggestEngine *suggest.Engine

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	database, err := db.NewDB(ctx, db.NewDBParams{
		Path: params.Config.DBPath,
	})
	if err != nil {
		return nil, fmt.Errorf("new db: %w", err)
	}

	if err := database.ApplySchema(ctx); err != nil {
		return nil, fmt.Errorf("apply db schema: %w", err)
	}

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("traintrack", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	otelShutdown, err := tracing.Setup(params.Config.TracingEnabled, "traintrack-backend")
	if err != nil {
		return nil, err
	}

	conn := database.Conn()

	return &Server{
		config:      params.Config,
		database:    database,
		versionInfo: params.VersionInfo,

		exercisesRepo: exercises.NewRepo(conn),
		workoutsRepo:  workouts.NewRepo(conn),
		setsRepo:      sets.NewRepo(conn),
		statsRepo:     stats.NewRepo(conn),
		suggestEngine: suggest.NewEngine(conn),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	exercisesHandler := exercises.NewHandler(s.exercisesRepo)
	r.HandleFunc("/exercises", exercisesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises", exercisesHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/exercises/exists", exercisesHandler.HandleExists).Methods("POST", "OPTIONS").Name("exercise-exists")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-exercise")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-exercise")
	r.HandleFunc("/exercises/{id}/count", exercisesHandler.HandleUsageCount).Methods("GET", "OPTIONS").Name("exercise-usage-count")

	workoutsHandler := workouts.NewHandler(s.workoutsRepo, s.metricsManager)
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", workoutsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
	r.HandleFunc("/workouts/{id}/note", workoutsHandler.HandleUpdateNote).Methods("PUT", "OPTIONS").Name("update-workout-note")

	setsHandler := sets.NewHandler(s.setsRepo, s.workoutsRepo, s.exercisesRepo, s.metricsManager)
	r.HandleFunc("/sets", setsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-sets")
	r.HandleFunc("/sets", setsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-set")
	r.HandleFunc("/sets/{id}", setsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-set")
	r.HandleFunc("/sets/{id}", setsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-set")
	r.HandleFunc("/sets/{id}", setsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-set")
	r.HandleFunc("/workouts/{id}/sets", setsHandler.HandleListByWorkout).Methods("GET", "OPTIONS").Name("list-workout-sets")
	r.HandleFunc("/exercises/{id}/sets", setsHandler.HandleListByExercise).Methods("GET", "OPTIONS").Name("list-exercise-sets")

	suggestHandler := suggest.NewHandler(s.suggestEngine, s.workoutsRepo, s.metricsManager)
	r.HandleFunc("/workouts/{id}/sets/suggest", suggestHandler.HandleSuggest).Methods("POST", "OPTIONS").Name("suggest-next-set")

	statsHandler := stats.NewHandler(s.statsRepo)
	r.HandleFunc("/statistics", statsHandler.HandleOverview).Methods("GET", "OPTIONS").Name("statistics-overview")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.database != nil {
		log.Debugln("closing db ...")
		if err := s.database.Close(); err != nil {
			log.Errorf("failed to close db: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
	}
	log.Warnln("server shut down")

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
