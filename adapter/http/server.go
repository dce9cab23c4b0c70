package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/logger"
)

type Server struct {
	cfg          *Config
	log          *logger.Logger
	relayUseCase RelayUseCase
	router       *gin.Engine
}

type Config struct {
	Host string
	Port int
}

type RelayUseCase interface {
	Feed(data []byte)
	GetStats() entity.ProcessorStat
	GetDeviceInfo() *entity.DeviceInfo
	Uptime() time.Duration
}

type statsResponse struct {
	StreamProcessor entity.ProcessorStat `json:"stream_processor"`
	UptimeSeconds   int64                `json:"uptime_seconds"`
}

func New(cfg *Config, log *logger.Logger, relayUseCase RelayUseCase) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:          cfg,
		log:          log,
		relayUseCase: relayUseCase,
		router:       gin.Default(),
	}

	return s, s.init()
}

func (s *Server) init() error {
	s.router.POST("/api/data", s.handlerData)
	s.router.GET("/api/device/info", s.handlerDeviceInfo)
	s.router.GET("/api/system/stats", s.handlerSystemStats)
	s.router.GET("/api/connection/status", s.handlerConnectionStatus)
	s.router.GET("/api/health/heartbeat", s.handlerHeartbeat)
	s.router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
	return nil
}

func (s *Server) Start() {
	go func() {
		s.log.Info().
			Str("host", s.cfg.Host).
			Int("port", s.cfg.Port).
			Msg("starting HTTP server")

		err := s.router.Run(fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
		if err != nil {
			s.log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()
}

// handlerData is the ingestion endpoint: the raw request body is
// exactly one inbound transfer for the stream processor.
func (s *Server) handlerData(ctx *gin.Context) {
	data, err := ctx.GetRawData()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read request body")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(data) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "no data received"})
		return
	}

	s.relayUseCase.Feed(data)

	ctx.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) handlerDeviceInfo(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.relayUseCase.GetDeviceInfo())
}

func (s *Server) handlerSystemStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, &statsResponse{
		StreamProcessor: s.relayUseCase.GetStats(),
		UptimeSeconds:   int64(s.relayUseCase.Uptime().Seconds()),
	})
}

func (s *Server) handlerConnectionStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":           "connected",
		"protocol":         "HTTP",
		"mac_address":      entity.GetMACAddress(),
		"endpoints_active": true,
	})
}

func (s *Server) handlerHeartbeat(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().Unix(),
		"service":   "junction_relay",
	})
}
