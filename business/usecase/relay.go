// Package usecase provides business logic.
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/logger"
)

var deviceCapabilities = []string{
	"epaper_display",
	"http_ingestion",
	"junction_relay_protocol",
	"onboard_screen",
}

// StreamProcessor is the reassembly/decode pipeline feeding the router.
type StreamProcessor interface {
	Feed(data []byte)
	SetReceiverHandler(f entity.MessageReceiver)
	Stat() entity.ProcessorStat
}

// RelayUseCase routes decoded messages: sensor and config payloads go
// through bounded queues drained by worker goroutines, everything else
// is dispatched synchronously to the system handler.
type RelayUseCase struct {
	ctx       context.Context
	cancel    context.CancelFunc
	log       *logger.Logger
	cfg       *entity.RelayConfig
	processor StreamProcessor
	display   entity.DisplayHandler
	system    entity.SystemHandler

	sensorQueue chan entity.DecodedMessage
	configQueue chan entity.DecodedMessage

	startedAt time.Time
	started   bool
	wg        sync.WaitGroup
}

// NewRelayUseCase creates a new RelayUseCase
func NewRelayUseCase(ctx context.Context, log *logger.Logger, cfg *entity.RelayConfig, processor StreamProcessor) *RelayUseCase {
	ctx, cancel := context.WithCancel(ctx)

	return &RelayUseCase{
		ctx:         ctx,
		cancel:      cancel,
		log:         log.Duplicate(log.With().Str("layer", "ucrelay").Logger()),
		cfg:         cfg,
		processor:   processor,
		sensorQueue: make(chan entity.DecodedMessage, cfg.Stream.SensorQueueSize),
		configQueue: make(chan entity.DecodedMessage, cfg.Stream.ConfigQueueSize),
	}
}

func (uc *RelayUseCase) SetDisplayHandler(f entity.DisplayHandler) {
	uc.display = f
}

func (uc *RelayUseCase) SetSystemHandler(f entity.SystemHandler) {
	uc.system = f
}

func (uc *RelayUseCase) Start() error {
	if uc.started {
		return entity.ErrAlreadyStarted
	}
	if uc.display == nil {
		return entity.ErrDisplayHandlerNotSet
	}
	if uc.system == nil {
		return entity.ErrSystemHandlerNotSet
	}

	uc.processor.SetReceiverHandler(uc.Route)

	uc.wg.Add(2)
	go uc.processQueue(uc.sensorQueue)
	go uc.processQueue(uc.configQueue)

	uc.started = true
	uc.startedAt = time.Now()

	uc.log.Info().
		Int("sensor_queue_size", uc.cfg.Stream.SensorQueueSize).
		Int("config_queue_size", uc.cfg.Stream.ConfigQueueSize).
		Msg("relay started with background processing")

	return nil
}

// Feed hands one inbound transfer body to the stream processor.
func (uc *RelayUseCase) Feed(data []byte) {
	uc.processor.Feed(data)
}

// Route dispatches one decoded message. Runs on the pipeline
// goroutine; it never blocks on a full queue.
func (uc *RelayUseCase) Route(m entity.DecodedMessage) {
	switch m.Kind {
	case entity.KindSensor:
		uc.enqueue(uc.sensorQueue, m)
	case entity.KindConfig:
		uc.enqueue(uc.configQueue, m)
	default:
		uc.dispatchSystem(m.Kind, m.Payload)
	}
}

// enqueue tries a non-blocking put; a full queue falls back to a
// synchronous display dispatch on the caller's goroutine. The message
// is never dropped, at the cost of ordering against messages still
// waiting in the queue.
func (uc *RelayUseCase) enqueue(q chan entity.DecodedMessage, m entity.DecodedMessage) {
	select {
	case q <- m:
	default:
		uc.log.Warn().
			Str("kind", m.Kind.String()).
			Msg("queue full, processing immediately")
		uc.dispatchDisplay(m.Kind, m.Payload)
	}
}

func (uc *RelayUseCase) processQueue(q chan entity.DecodedMessage) {
	defer uc.wg.Done()

	for {
		select {
		case m := <-q:
			uc.dispatchDisplay(m.Kind, m.Payload)
		case <-uc.ctx.Done():
			return
		}
	}
}

// dispatchDisplay shields the pipeline and the workers from handler
// panics: one bad payload must not stop a queue loop.
func (uc *RelayUseCase) dispatchDisplay(kind entity.MessageKind, payload map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error().
				Interface("panic", r).
				Str("kind", kind.String()).
				Msg("display handler failed")
		}
	}()

	uc.display(kind, payload)
}

func (uc *RelayUseCase) dispatchSystem(kind entity.MessageKind, payload map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error().
				Interface("panic", r).
				Str("kind", kind.String()).
				Msg("system handler failed")
		}
	}()

	uc.system(kind, payload)
}

// GetStats returns a point-in-time snapshot, not a consistent
// transaction. Safe to call from any goroutine.
func (uc *RelayUseCase) GetStats() entity.ProcessorStat {
	stat := uc.processor.Stat()
	stat.SensorQueueDepth = len(uc.sensorQueue)
	stat.ConfigQueueDepth = len(uc.configQueue)
	return stat
}

func (uc *RelayUseCase) GetDeviceInfo() *entity.DeviceInfo {
	return &entity.DeviceInfo{
		MACAddress:      entity.GetMACAddress(),
		DeviceID:        uc.cfg.Device.DeviceID,
		DeviceType:      uc.cfg.Device.DeviceType,
		FirmwareVersion: uc.cfg.Device.FirmwareVersion,
		Capabilities:    deviceCapabilities,
		Screen: entity.ScreenInfo{
			Type:   "epaper",
			Width:  uc.cfg.Device.ScreenWidth,
			Height: uc.cfg.Device.ScreenHeight,
			Colors: uc.cfg.Device.ScreenColors,
			Active: true,
		},
	}
}

func (uc *RelayUseCase) Uptime() time.Duration {
	if !uc.started {
		return 0
	}
	return time.Since(uc.startedAt)
}

// Shutdown signals the worker loops to stop. Idempotent; pending queue
// items are not drained.
func (uc *RelayUseCase) Shutdown() {
	uc.cancel()
	uc.wg.Wait()
	uc.log.Info().Msg("relay shutdown complete")
}
