package codec

import (
	"fmt"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/logger"
)

const (
	prefixPositionLength = 0
	prefixPositionType   = 4
	prefixPositionRoute  = 6

	maxLengthHint = 9999
	maxRouteField = 99

	jsonOpeningBrace = '{'
	gzipMagicFirst   = 0x1f
	gzipMagicSecond  = 0x8b
)

// Relay implements the Junction Relay wire framing: raw JSON frames,
// raw gzip frames and 8-byte LLLLTTRR prefixed frames.
type Relay struct {
	log *logger.Logger
	cfg *Config
}

func NewRelayCodec(log *logger.Logger, cfg *Config) *Relay {
	return &Relay{
		log: log,
		cfg: cfg,
	}
}

// Classify inspects the first bytes of a chunk and picks the frame
// encoding. It is only meaningful when the processor is idle; a
// continuation chunk never reaches it.
func (c *Relay) Classify(chunk []byte) entity.FrameEncoding {
	if len(chunk) > 0 && chunk[0] == jsonOpeningBrace {
		return entity.FrameRawJSON
	}
	if len(chunk) >= 2 && chunk[0] == gzipMagicFirst && chunk[1] == gzipMagicSecond {
		return entity.FrameRawCompressed
	}
	return entity.FramePrefixed
}

// UnmarshalPrefix parses the accumulated 8-byte prefix. All bytes must
// be ASCII decimal digits and the type digit must select a known
// payload encoding.
func (c *Relay) UnmarshalPrefix(data []byte, f *entity.PrefixFields) error {
	if len(data) != entity.PrefixSize {
		return entity.ErrWrongPrefixSize
	}

	for _, b := range data {
		if b < '0' || b > '9' {
			return entity.ErrMalformedPrefix
		}
	}

	f.LengthHint = atoi(data[prefixPositionLength:prefixPositionType])
	f.TypeField = atoi(data[prefixPositionType:prefixPositionRoute])
	f.RouteField = atoi(data[prefixPositionRoute:])

	if !f.ValidTypeField() {
		return entity.ErrUnsupportedTypeField
	}

	return nil
}

// PayloadLength resolves the target payload size for a parsed prefix.
// A zero length hint switches to auto-detection: the payload is
// assumed to fill the whole buffer, there is no terminator.
func (c *Relay) PayloadLength(f *entity.PrefixFields) int {
	if f.LengthHint > 0 {
		return f.LengthHint
	}

	c.log.Warn().
		Int("max_payload_size", c.cfg.MaxPayloadSize).
		Msg("length hint is 0000, using auto-detection")

	return c.cfg.MaxPayloadSize
}

// MarshalPrefix renders prefix fields back to the 8-byte wire form.
func (c *Relay) MarshalPrefix(f *entity.PrefixFields) ([]byte, error) {
	if f.LengthHint < 0 || f.LengthHint > maxLengthHint ||
		f.RouteField < 0 || f.RouteField > maxRouteField {
		return nil, entity.ErrMalformedPrefix
	}
	if !f.ValidTypeField() {
		return nil, entity.ErrUnsupportedTypeField
	}

	return []byte(fmt.Sprintf("%04d%02d%02d", f.LengthHint, f.TypeField, f.RouteField)), nil
}

func atoi(digits []byte) int {
	n := 0
	for _, b := range digits {
		n = n*10 + int(b-'0')
	}
	return n
}
