package entity

const (
	PrefixSize = 8

	FrameRawJSON FrameEncoding = iota + 1
	FrameRawCompressed
	// FramePrefixed is the classifier result before the prefix type
	// digit is known; it resolves to one of the two prefixed encodings.
	FramePrefixed
	FramePrefixedUncompressed
	FramePrefixedCompressed
)

const (
	KindSensor MessageKind = iota + 1
	KindConfig
	KindDeviceInfo
	KindPreferences
	KindSystemCommand
	KindStats
	KindUnknown
)

const (
	prefixTypeUncompressed = 0
	prefixTypeCompressed   = 1
)

type FrameEncoding uint8
type MessageKind uint8

var messageKinds = map[string]MessageKind{
	"sensor":         KindSensor,
	"config":         KindConfig,
	"device_info":    KindDeviceInfo,
	"preferences":    KindPreferences,
	"system_command": KindSystemCommand,
	"stats":          KindStats,
}

func (f FrameEncoding) String() string {
	switch f {
	case FrameRawJSON:
		return "raw-json"
	case FrameRawCompressed:
		return "raw-compressed"
	case FramePrefixed:
		return "prefixed"
	case FramePrefixedUncompressed:
		return "prefixed-uncompressed"
	case FramePrefixedCompressed:
		return "prefixed-compressed"
	default:
		return "unknown"
	}
}

// Compressed reports whether the frame payload is gzip data.
func (f FrameEncoding) Compressed() bool {
	return f == FrameRawCompressed || f == FramePrefixedCompressed
}

// GetMessageKind maps the decoded "type" field to a message kind.
// Unrecognized or missing values route as KindUnknown.
func GetMessageKind(s string) MessageKind {
	if k, ok := messageKinds[s]; ok {
		return k
	}
	return KindUnknown
}

func (k MessageKind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindConfig:
		return "config"
	case KindDeviceInfo:
		return "device_info"
	case KindPreferences:
		return "preferences"
	case KindSystemCommand:
		return "system_command"
	case KindStats:
		return "stats"
	default:
		return "unknown"
	}
}

// Queued reports whether messages of this kind go through a bounded
// queue instead of a synchronous system dispatch.
func (k MessageKind) Queued() bool {
	return k == KindSensor || k == KindConfig
}

// PrefixFields parsed from the 8-byte LLLLTTRR control prefix.
type PrefixFields struct {
	LengthHint int
	TypeField  int
	RouteField int
}

// Encoding returns the frame encoding selected by the type field.
func (p *PrefixFields) Encoding() FrameEncoding {
	if p.TypeField == prefixTypeCompressed {
		return FramePrefixedCompressed
	}
	return FramePrefixedUncompressed
}

// ValidTypeField reports whether the type digit is a known encoding.
func (p *PrefixFields) ValidTypeField() bool {
	return p.TypeField == prefixTypeUncompressed || p.TypeField == prefixTypeCompressed
}

// DecodedMessage is the structured result of decoding one complete
// payload. It is handed to the router by value and never mutated
// afterwards.
type DecodedMessage struct {
	Kind        MessageKind
	Encoding    FrameEncoding
	Route       int
	Destination string
	Payload     map[string]interface{}
}

// MessageReceiver receives every successfully decoded message from the
// stream processor, on the goroutine that called Feed.
type MessageReceiver func(m DecodedMessage)

// DisplayHandler is invoked with sensor and config payloads, from a
// worker goroutine or, on queue overflow, from the pipeline goroutine.
type DisplayHandler func(kind MessageKind, payload map[string]interface{})

// SystemHandler is invoked synchronously on the pipeline goroutine.
type SystemHandler func(kind MessageKind, payload map[string]interface{})
