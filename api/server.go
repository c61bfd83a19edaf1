package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/fleet-health/api/handlers"
	"github.com/OldStager01/fleet-health/api/middleware"
	"github.com/OldStager01/fleet-health/api/websocket"
	"github.com/OldStager01/fleet-health/internal/metrics"
	"github.com/OldStager01/fleet-health/internal/orchestrator"
	"github.com/OldStager01/fleet-health/internal/scheduler"
	"github.com/OldStager01/fleet-health/pkg/config"
	"github.com/OldStager01/fleet-health/pkg/database"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	db         *database.DB
	orch       *orchestrator.Orchestrator
	sched      *scheduler.Scheduler
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, appMode string, db *database.DB, orch *orchestrator.Orchestrator, sched *scheduler.Scheduler) *Server {
	if appMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	wsHub := websocket.NewHub(wsCfg.BroadcastBuffer)

	s := &Server{
		router: router,
		config: cfg,
		db:     db,
		orch:   orch,
		sched:  sched,
		wsHub:  wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	// Forward orchestrator events to WebSocket clients.
	s.wsBridge = websocket.NewEventBridge(wsHub, orch.SubscribeAllEvents())
	s.wsBridge.Start()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.CORS)))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestSizeLimit(1 << 20))

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, s.config.RateBurst)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.db)
	ingestHandler := handlers.NewIngestHandler(s.orch)
	statusHandler := handlers.NewStatusHandler(s.orch)
	alertHandler := handlers.NewAlertHandler(s.orch)
	analyticsHandler := handlers.NewAnalyticsHandler(s.orch, s.sched)

	// Liveness, readiness and operational counters
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)
	s.router.GET("/metrics", gin.WrapH(metrics.Get().Handler()))

	// WebSocket stream
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Sample ingestion
	s.router.POST("/samples", ingestHandler.Push)
	s.router.POST("/samples/batch", ingestHandler.PushBatch)

	// Fleet and server status
	s.router.GET("/servers", statusHandler.ListServers)
	s.router.GET("/servers/:id/status", statusHandler.GetServer)
	s.router.GET("/servers/:id/history", statusHandler.GetHistory)
	s.router.POST("/servers/:id/override", statusHandler.SetOverride)
	s.router.DELETE("/servers/:id/override", statusHandler.ClearOverride)

	// Alert conditions and alert state
	s.router.GET("/conditions", alertHandler.ListConditions)
	s.router.POST("/conditions", alertHandler.CreateCondition)
	s.router.PUT("/conditions/:id", alertHandler.UpdateCondition)
	s.router.DELETE("/conditions/:id", alertHandler.DeleteCondition)
	s.router.GET("/servers/:id/alerts", alertHandler.GetActiveAlerts)
	s.router.GET("/servers/:id/alerts/events", alertHandler.GetAlertEvents)

	// Analytics
	s.router.GET("/servers/:id/aggregates", analyticsHandler.GetAggregates)
	s.router.POST("/servers/:id/aggregates/rebuild", analyticsHandler.RebuildAggregate)
	s.router.GET("/servers/:id/baseline", analyticsHandler.GetBaseline)
	s.router.POST("/servers/:id/baseline/rebuild", analyticsHandler.RebuildBaseline)
	s.router.GET("/servers/:id/trend", analyticsHandler.GetTrend)
	s.router.POST("/servers/:id/trend/rebuild", analyticsHandler.RebuildTrend)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event bridge first so no broadcasts race the hub teardown.
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
