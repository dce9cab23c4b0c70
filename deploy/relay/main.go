// Package main Junction Relay gateway main package
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mitchellh/mapstructure"

	"github.com/forest33/junction/adapter/display"
	rest "github.com/forest33/junction/adapter/http"
	"github.com/forest33/junction/adapter/stream"
	"github.com/forest33/junction/adapter/tcp"
	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/business/usecase"
	"github.com/forest33/junction/pkg/automaxprocs"
	"github.com/forest33/junction/pkg/codec"
	"github.com/forest33/junction/pkg/compression"
	"github.com/forest33/junction/pkg/config"
	"github.com/forest33/junction/pkg/logger"
	"github.com/forest33/junction/pkg/profiler"
)

var (
	cfg        = &entity.RelayConfig{}
	cfgHandler *config.Config
	zlog       *logger.Logger
	ctx        context.Context
	cancel     context.CancelFunc

	processorAdapter *stream.Processor
	displayAdapter   *display.Console
	tcpAdapter       *tcp.Server

	relayUseCase *usecase.RelayUseCase
)

func init() {
	var err error
	cfgHandler, err = config.New(entity.DefaultConfigFileName, "", cfg)
	if err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	zlog = logger.New(logger.Config{
		Level:             cfg.Logger.Level,
		TimeFieldFormat:   cfg.Logger.TimeFieldFormat,
		PrettyPrint:       *cfg.Logger.PrettyPrint,
		DisableSampling:   *cfg.Logger.DisableSampling,
		RedirectStdLogger: *cfg.Logger.RedirectStdLogger,
		ErrorStack:        *cfg.Logger.ErrorStack,
		ShowCaller:        *cfg.Logger.ShowCaller,
		FileName:          cfg.Logger.FileName,
	})

	if cfg.Runtime.GoMaxProcs != 0 {
		runtime.GOMAXPROCS(cfg.Runtime.GoMaxProcs)
	} else {
		automaxprocs.Init(zlog)
	}

	ctx, cancel = context.WithCancel(context.Background())
}

func main() {
	defer shutdown()

	if len(os.Args[1:]) > 0 {
		parseCommandLine()
		return
	}

	if err := cfg.Validate(); err != nil {
		zlog.Fatalf("invalid configuration: %v", err)
	}
	cfg.Normalize()

	initAdapters()
	initUseCases()

	if *cfg.Profiler.Enabled {
		profiler.Start(&profiler.Config{
			Host: cfg.Profiler.Host,
			Port: cfg.Profiler.Port,
		}, zlog)
	}

	if err := relayUseCase.Start(); err != nil {
		zlog.Fatalf("failed to start relay: %v", err)
	}

	initIngest()
	initRestServer()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func initAdapters() {
	relayCodec := codec.NewRelayCodec(zlog, &codec.Config{
		MaxPayloadSize: cfg.Stream.MaxPayloadSize,
	})

	processorAdapter = stream.New(zlog, &stream.Config{
		MaxPayloadSize: cfg.Stream.MaxPayloadSize,
		Tracing:        *cfg.Stream.Tracing,
	}, relayCodec, compression.New(&compression.Config{
		PayloadSize: cfg.Stream.MaxPayloadSize,
	}))

	displayAdapter = display.New(zlog, &display.Config{})
}

func initUseCases() {
	relayUseCase = usecase.NewRelayUseCase(ctx, zlog, cfg, processorAdapter)
	relayUseCase.SetDisplayHandler(displayAdapter.Update)
	relayUseCase.SetSystemHandler(systemHandler)
}

func initIngest() {
	if !*cfg.Ingest.Enabled {
		return
	}

	tcpAdapter = tcp.New(zlog, &tcp.Config{
		Host: cfg.Ingest.Host,
		Port: cfg.Ingest.Port,
	})
	tcpAdapter.SetReceiverHandler(relayUseCase.Feed)

	if err := tcpAdapter.Run(); err != nil {
		zlog.Fatalf("failed to start TCP ingest: %v", err)
	}
}

func initRestServer() {
	restServer, err := rest.New(&rest.Config{
		Host: cfg.Rest.Host,
		Port: cfg.Rest.Port,
	}, zlog, relayUseCase)
	if err != nil {
		zlog.Fatalf("failed to create REST server: %v", err)
	}
	restServer.Start()
}

func systemHandler(kind entity.MessageKind, payload map[string]interface{}) {
	switch kind {
	case entity.KindPreferences:
		applyPreferences(payload)
	case entity.KindSystemCommand:
		zlog.Info().Interface("payload", payload).Msg("system command received")
	case entity.KindDeviceInfo, entity.KindStats:
		zlog.Info().Str("kind", kind.String()).Msg("system message received")
	default:
		zlog.Warn().Interface("payload", payload).Msg("unknown message type")
	}
}

func applyPreferences(payload map[string]interface{}) {
	var prefs struct {
		ScreenColors []string `mapstructure:"screen_colors"`
	}
	if err := mapstructure.Decode(payload, &prefs); err != nil {
		zlog.Error().Err(err).Msg("failed to decode preferences")
		return
	}

	if len(prefs.ScreenColors) > 0 {
		cfg.Device.ScreenColors = prefs.ScreenColors
	}

	cfgHandler.Update(cfg)
	cfgHandler.Save()

	zlog.Info().Msg("preferences applied")
}

func shutdown() {
	if relayUseCase != nil {
		relayUseCase.Shutdown()
	}
	cancel()
}
