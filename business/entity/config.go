// Package entity provides entities for business logic.
package entity

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/forest33/junction/pkg/structs"
)

const (
	DefaultConfigFileName = "junction-relay.yaml"

	DefaultMaxPayloadSize  = 8192
	DefaultSensorQueueSize = 30
	DefaultConfigQueueSize = 3
)

// RelayConfig relay daemon configuration
type RelayConfig struct {
	Logger   *LoggerConfig   `yaml:"Logger"`
	Runtime  *RuntimeConfig  `yaml:"Runtime"`
	Stream   *StreamConfig   `yaml:"Stream"`
	Ingest   *IngestConfig   `yaml:"Ingest"`
	Device   *DeviceConfig   `yaml:"Device"`
	Rest     *RestConfig     `yaml:"Rest"`
	Profiler *ProfilerConfig `yaml:"Profiler"`
}

// LoggerConfig logger settings
type LoggerConfig struct {
	Level             string `yaml:"level" default:"info"`
	TimeFieldFormat   string `yaml:"timeFieldFormat" default:"2006-01-02T15:04:05.000000"`
	PrettyPrint       *bool  `yaml:"prettyPrint" default:"false"`
	DisableSampling   *bool  `yaml:"disableSampling" default:"true"`
	RedirectStdLogger *bool  `yaml:"redirectStdLogger" default:"true"`
	ErrorStack        *bool  `yaml:"errorStack" default:"true"`
	ShowCaller        *bool  `yaml:"showCaller" default:"false"`
	FileName          string `yaml:"fileName,omitempty" default:""`
}

// RuntimeConfig runtime settings
type RuntimeConfig struct {
	GoMaxProcs int `yaml:"goMaxProcs" default:"0"`
}

// StreamConfig stream processor settings
type StreamConfig struct {
	MaxPayloadSize  int   `yaml:"maxPayloadSize" default:"8192"`
	SensorQueueSize int   `yaml:"sensorQueueSize" default:"30"`
	ConfigQueueSize int   `yaml:"configQueueSize" default:"3"`
	Tracing         *bool `yaml:"tracing,omitempty" default:"false"`
}

// IngestConfig raw TCP ingestion settings
type IngestConfig struct {
	Enabled *bool  `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:""`
	Port    int    `yaml:"port" default:"5080"`
}

// DeviceConfig identity and screen geometry reported on the REST surface
type DeviceConfig struct {
	DeviceID        string   `yaml:"deviceId,omitempty" default:""`
	DeviceType      string   `yaml:"deviceType" default:"EPaperJunctionRelay"`
	FirmwareVersion string   `yaml:"firmwareVersion" default:"1.0.0"`
	ScreenWidth     int      `yaml:"screenWidth" default:"792"`
	ScreenHeight    int      `yaml:"screenHeight" default:"272"`
	ScreenColors    []string `yaml:"screenColors"`
}

// ProfilerConfig pprof configuration
type ProfilerConfig struct {
	Enabled *bool  `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:"localhost"`
	Port    int    `yaml:"port" default:"8888"`
}

// RestConfig REST server configuration
type RestConfig struct {
	Host string `yaml:"host" default:""`
	Port int    `yaml:"port" default:"8080"`
}

func (c *RelayConfig) Validate() error {
	if err := validation.ValidateStruct(c.Stream,
		validation.Field(&c.Stream.MaxPayloadSize, validation.Required, validation.Min(PrefixSize+1)),
		validation.Field(&c.Stream.SensorQueueSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Stream.ConfigQueueSize, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(c.Rest,
		validation.Field(&c.Rest.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func (c *RelayConfig) Normalize() {
	c.Device.DeviceID = structs.If(c.Device.DeviceID == "", uuid.New().String(), c.Device.DeviceID)
	if len(c.Device.ScreenColors) == 0 {
		c.Device.ScreenColors = []string{"black", "white", "red", "yellow"}
	}
}
