// Package stream implements the Junction Relay stream processor: it
// classifies incoming chunks, reassembles prefixed payloads across
// deliveries, decompresses and decodes them and hands every decoded
// message to the receiver handler.
package stream

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/codec"
	"github.com/forest33/junction/pkg/compression"
	"github.com/forest33/junction/pkg/logger"
)

type mode uint8

const (
	modeAwaitingPrefix mode = iota
	modeAwaitingPayload
)

type Processor struct {
	log      *logger.Logger
	cfg      *Config
	codec    codec.Codec
	cmp      *compression.Compressor
	receiver entity.MessageReceiver

	// reassembly state, serialized by mu: Feed may be called from
	// several ingestion goroutines at once
	mu            sync.Mutex
	mode          mode
	bytesRead     int
	payloadLength int
	prefixBuffer  [entity.PrefixSize]byte
	payloadBuffer []byte
	fields        entity.PrefixFields

	processed atomic.Uint64
	errors    atomic.Uint64
}

type Config struct {
	MaxPayloadSize int
	Tracing        bool
}

func New(log *logger.Logger, cfg *Config, c codec.Codec, cmp *compression.Compressor) *Processor {
	return &Processor{
		log:           log.Duplicate(log.With().Str("layer", "stream").Logger()),
		cfg:           cfg,
		codec:         c,
		cmp:           cmp,
		payloadBuffer: make([]byte, cfg.MaxPayloadSize),
	}
}

func (p *Processor) SetReceiverHandler(f entity.MessageReceiver) {
	p.receiver = f
}

// Feed consumes the raw body of one inbound transfer. Empty input is
// a no-op. All errors are message-level: they are counted, logged and
// the reassembly state is reset, the processor keeps accepting data.
func (p *Processor) Feed(data []byte) {
	if len(data) == 0 {
		return
	}
	if p.receiver == nil {
		p.log.Error().Msg(entity.ErrReceiverHandlerNotSet.Error())
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode == modeAwaitingPrefix && p.bytesRead == 0 {
		switch p.codec.Classify(data) {
		case entity.FrameRawJSON:
			p.decode(data, entity.FrameRawJSON, nil)
			return
		case entity.FrameRawCompressed:
			p.decode(data, entity.FrameRawCompressed, nil)
			return
		}
	}

	p.feedPrefixed(data)
}

// feedPrefixed advances the prefix and payload stages, consuming all
// bytes of the chunk in one pass: a single call may finish the prefix
// and start (or finish) the payload.
func (p *Processor) feedPrefixed(data []byte) {
	offset := 0

	if p.mode == modeAwaitingPrefix {
		n := min(len(data), entity.PrefixSize-p.bytesRead)
		copy(p.prefixBuffer[p.bytesRead:], data[:n])
		p.bytesRead += n
		offset = n

		if p.bytesRead < entity.PrefixSize {
			return
		}

		if err := p.codec.UnmarshalPrefix(p.prefixBuffer[:], &p.fields); err != nil {
			p.fail(err, "failed to parse prefix")
			return
		}

		p.payloadLength = p.codec.PayloadLength(&p.fields)
		p.mode = modeAwaitingPayload
		p.bytesRead = 0
	}

	if p.mode == modeAwaitingPayload && offset < len(data) {
		n := min(len(data)-offset, p.payloadLength-p.bytesRead)
		if p.bytesRead+n > p.cfg.MaxPayloadSize {
			p.fail(entity.ErrPayloadTooLarge, "payload buffer overflow")
			return
		}
		copy(p.payloadBuffer[p.bytesRead:], data[offset:offset+n])
		p.bytesRead += n
	}

	if p.mode == modeAwaitingPayload && p.bytesRead >= p.payloadLength {
		payload := make([]byte, p.payloadLength)
		copy(payload, p.payloadBuffer[:p.payloadLength])
		fields := p.fields

		// the state resets before decoding, whatever the outcome:
		// the next Feed call starts a fresh message
		p.reset()
		p.decode(payload, fields.Encoding(), &fields)
	}
}

func (p *Processor) decode(data []byte, enc entity.FrameEncoding, fields *entity.PrefixFields) {
	var err error

	if p.cfg.Tracing {
		p.log.Debug().
			Str("encoding", enc.String()).
			Int("size", len(data)).
			Msg("processing frame")
	}

	if enc.Compressed() {
		if data, err = p.cmp.DecompressGzip(data); err != nil {
			p.errors.Add(1)
			p.log.Error().Err(err).
				Str("encoding", enc.String()).
				Msg(entity.ErrDecompression.Error())
			return
		}
	}

	if len(data) == 0 {
		p.errors.Add(1)
		p.log.Error().
			Str("encoding", enc.String()).
			Msg(entity.ErrEmptyPayload.Error())
		return
	}

	if !utf8.Valid(data) {
		p.errors.Add(1)
		p.log.Error().
			Str("encoding", enc.String()).
			Msg("payload is not valid UTF-8")
		return
	}

	var payload map[string]interface{}
	if err = json.Unmarshal(data, &payload); err != nil || payload == nil {
		p.errors.Add(1)
		p.log.Error().Err(err).
			Str("encoding", enc.String()).
			Msg(entity.ErrDecode.Error())
		return
	}

	m := entity.DecodedMessage{
		Kind:     entity.KindUnknown,
		Encoding: enc,
		Payload:  payload,
	}
	if fields != nil {
		m.Route = fields.RouteField
	}
	if t, ok := payload["type"].(string); ok {
		m.Kind = entity.GetMessageKind(t)
	}
	if d, ok := payload["destination"].(string); ok {
		// forwarding is out of scope, destinations are only observed
		m.Destination = d
		p.log.Debug().Str("destination", d).Msg("message carries a destination, routing locally")
	}

	p.processed.Add(1)
	p.receiver(m)
}

func (p *Processor) fail(err error, msg string) {
	p.errors.Add(1)
	p.log.Error().Err(err).
		Int("bytes_read", p.bytesRead).
		Int("payload_length", p.payloadLength).
		Msg(msg)
	p.reset()
}

// reset returns the state machine to AwaitingPrefix. mode and
// bytesRead always change together, never independently.
func (p *Processor) reset() {
	p.mode = modeAwaitingPrefix
	p.bytesRead = 0
	p.payloadLength = 0
	p.fields = entity.PrefixFields{}
}

// Stat returns the processing counters. Queue depths are filled in by
// the routing layer.
func (p *Processor) Stat() entity.ProcessorStat {
	return entity.ProcessorStat{
		MessagesProcessed: p.processed.Load(),
		ErrorCount:        p.errors.Load(),
		MaxPayloadSize:    p.cfg.MaxPayloadSize,
	}
}
