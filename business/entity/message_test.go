package entity

import (
	"testing"
)

func TestGetMessageKind(t *testing.T) {
	testData := map[string]MessageKind{
		"sensor":         KindSensor,
		"config":         KindConfig,
		"device_info":    KindDeviceInfo,
		"preferences":    KindPreferences,
		"system_command": KindSystemCommand,
		"stats":          KindStats,
		"telemetry":      KindUnknown,
		"":               KindUnknown,
	}

	for s, want := range testData {
		if got := GetMessageKind(s); got != want {
			t.Errorf("[%s] unexpected kind: %s", s, got)
		}
		if got := GetMessageKind(s); got.Queued() != (want == KindSensor || want == KindConfig) {
			t.Errorf("[%s] unexpected queued flag", s)
		}
	}
}

func TestPrefixFieldsEncoding(t *testing.T) {
	testData := map[string]struct {
		fields   PrefixFields
		encoding FrameEncoding
		valid    bool
	}{
		"uncompressed": {PrefixFields{TypeField: 0}, FramePrefixedUncompressed, true},
		"compressed":   {PrefixFields{TypeField: 1}, FramePrefixedCompressed, true},
		"unknown":      {PrefixFields{TypeField: 5}, FramePrefixedUncompressed, false},
	}

	for k, v := range testData {
		if got := v.fields.Encoding(); got != v.encoding {
			t.Errorf("[%s] unexpected encoding: %s", k, got)
		}
		if got := v.fields.ValidTypeField(); got != v.valid {
			t.Errorf("[%s] unexpected validity: %v", k, got)
		}
	}
}
