// Package display provides a console sink for routed display
// payloads: it keeps the last-seen sensor readings and logs every
// update in place of a physical e-paper panel.
package display

import (
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/logger"
)

const defaultScreenName = "onboard_screen"

type Console struct {
	log *logger.Logger
	cfg *Config

	mu         sync.Mutex
	readings   map[string]Reading
	lastUpdate time.Time
}

type Config struct {
	ScreenName string
}

// Reading is the latest value reported for one sensor.
type Reading struct {
	Value interface{}
	Unit  string
}

type sensorPayload struct {
	Screen   string                    `mapstructure:"screen"`
	ScreenID string                    `mapstructure:"screenId"`
	Sensors  map[string][]sensorSample `mapstructure:"sensors"`
}

type sensorSample struct {
	Value interface{} `mapstructure:"Value"`
	Unit  string      `mapstructure:"Unit"`
}

func New(log *logger.Logger, cfg *Config) *Console {
	if cfg.ScreenName == "" {
		cfg.ScreenName = defaultScreenName
	}

	return &Console{
		log:      log.Duplicate(log.With().Str("layer", "display").Logger()),
		cfg:      cfg,
		readings: make(map[string]Reading),
	}
}

// Update implements the display handler contract. It is called from a
// queue worker or, on overflow, from the pipeline goroutine.
func (c *Console) Update(kind entity.MessageKind, payload map[string]interface{}) {
	switch kind {
	case entity.KindSensor:
		if err := c.updateSensors(payload); err != nil {
			c.log.Error().Err(err).Msg("failed to apply sensor payload")
		}
	case entity.KindConfig:
		c.log.Info().Interface("payload", payload).Msg("display config update received")
	default:
		c.log.Warn().Str("kind", kind.String()).Msg("unexpected display payload kind")
	}
}

func (c *Console) updateSensors(payload map[string]interface{}) error {
	var p sensorPayload
	if err := mapstructure.Decode(payload, &p); err != nil {
		return errors.Wrap(err, "failed to decode sensor payload")
	}

	target := p.Screen
	if target == "" {
		target = p.ScreenID
	}
	if target != "" && target != c.cfg.ScreenName {
		c.log.Debug().
			Str("target", target).
			Str("screen", c.cfg.ScreenName).
			Msg("payload targeted at another screen, ignoring")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, samples := range p.Sensors {
		if len(samples) == 0 {
			continue
		}
		c.readings[name] = Reading{
			Value: samples[0].Value,
			Unit:  samples[0].Unit,
		}
	}
	c.lastUpdate = time.Now()

	c.log.Info().
		Int("sensors", len(p.Sensors)).
		Int("total", len(c.readings)).
		Msg("sensor readings updated")

	return nil
}

// Readings returns a snapshot of the last-seen values.
func (c *Console) Readings() map[string]Reading {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Reading, len(c.readings))
	for k, v := range c.readings {
		out[k] = v
	}
	return out
}

func (c *Console) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdate
}
