package stream

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/codec"
	"github.com/forest33/junction/pkg/compression"
	"github.com/forest33/junction/pkg/logger"
)

const testMaxPayloadSize = 8192

type receivedMessages struct {
	messages []entity.DecodedMessage
}

func (r *receivedMessages) receive(m entity.DecodedMessage) {
	r.messages = append(r.messages, m)
}

func newTestProcessor(maxPayloadSize int) (*Processor, *receivedMessages) {
	log := logger.NewDefault()
	p := New(log,
		&Config{MaxPayloadSize: maxPayloadSize},
		codec.NewRelayCodec(log, &codec.Config{MaxPayloadSize: maxPayloadSize}),
		compression.New(&compression.Config{PayloadSize: maxPayloadSize}))

	r := &receivedMessages{}
	p.SetReceiverHandler(r.receive)

	return p, r
}

func makePrefixed(t testing.TB, payload []byte, typeField, routeField int) []byte {
	t.Helper()
	prefix := []byte(fmt.Sprintf("%04d%02d%02d", len(payload), typeField, routeField))
	return append(prefix, payload...)
}

func TestFeedRawJSON(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed([]byte(`{"type":"sensor","value":22.5}`))

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	m := r.messages[0]
	if m.Kind != entity.KindSensor {
		t.Errorf("unexpected kind: %s", m.Kind)
	}
	if m.Encoding != entity.FrameRawJSON {
		t.Errorf("unexpected encoding: %s", m.Encoding)
	}
	if m.Payload["value"] != 22.5 {
		t.Errorf("unexpected payload: %+v", m.Payload)
	}

	stat := p.Stat()
	if stat.MessagesProcessed != 1 || stat.ErrorCount != 0 {
		t.Errorf("unexpected counters: %+v", stat)
	}
}

func TestFeedRawGzip(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	compressed, err := p.cmp.CompressGzip([]byte(`{"type":"device_info"}`))
	if err != nil {
		t.Fatal(err)
	}
	p.Feed(compressed)

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	if r.messages[0].Kind != entity.KindDeviceInfo {
		t.Errorf("unexpected kind: %s", r.messages[0].Kind)
	}
	if r.messages[0].Encoding != entity.FrameRawCompressed {
		t.Errorf("unexpected encoding: %s", r.messages[0].Encoding)
	}
}

func TestFeedPrefixedSingleChunk(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed(makePrefixed(t, []byte(`{"type":"config","brightness":80}`), 0, 7))

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	m := r.messages[0]
	if m.Kind != entity.KindConfig {
		t.Errorf("unexpected kind: %s", m.Kind)
	}
	if m.Encoding != entity.FramePrefixedUncompressed {
		t.Errorf("unexpected encoding: %s", m.Encoding)
	}
	if m.Route != 7 {
		t.Errorf("unexpected route: %d", m.Route)
	}
}

// TestFeedPrefixedSplitAtEveryBoundary reassembles the same frame from
// two chunks split at every possible byte offset, including splits
// inside the prefix.
func TestFeedPrefixedSplitAtEveryBoundary(t *testing.T) {
	payload := []byte(`{"type":"sensor","sensors":{"temperature":[{"Value":"22.5","Unit":"C"}]}}`)
	frame := makePrefixed(t, payload, 0, 1)

	var want map[string]interface{}
	p, r := newTestProcessor(testMaxPayloadSize)
	p.Feed(frame)
	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	want = r.messages[0].Payload

	for split := 1; split < len(frame); split++ {
		p, r := newTestProcessor(testMaxPayloadSize)
		p.Feed(frame[:split])
		if len(r.messages) != 0 {
			t.Fatalf("[split=%d] premature message", split)
		}
		p.Feed(frame[split:])
		if len(r.messages) != 1 {
			t.Fatalf("[split=%d] unexpected message count: %d", split, len(r.messages))
		}
		if !reflect.DeepEqual(r.messages[0].Payload, want) {
			t.Fatalf("[split=%d] payload mismatch", split)
		}
	}
}

func TestFeedPrefixedByteByByte(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)
	frame := makePrefixed(t, []byte(`{"type":"sensor","value":1}`), 0, 1)

	for i := range frame {
		p.Feed(frame[i : i+1])
	}

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	if p.Stat().MessagesProcessed != 1 {
		t.Errorf("unexpected counters: %+v", p.Stat())
	}
}

func TestFeedPrefixedCompressed(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	compressed, err := p.cmp.CompressGzip([]byte(`{"type":"config","mode":"night"}`))
	if err != nil {
		t.Fatal(err)
	}
	p.Feed(makePrefixed(t, compressed, 1, 2))

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	m := r.messages[0]
	if m.Encoding != entity.FramePrefixedCompressed {
		t.Errorf("unexpected encoding: %s", m.Encoding)
	}
	if m.Payload["mode"] != "night" {
		t.Errorf("unexpected payload: %+v", m.Payload)
	}
}

// TestFeedAutoDetectLength exercises a 0000 length hint: the payload is
// assumed to fill the whole buffer.
func TestFeedAutoDetectLength(t *testing.T) {
	const maxPayloadSize = 32

	p, r := newTestProcessor(maxPayloadSize)

	payload := []byte(`{"type":"sensor"}`)
	for len(payload) < maxPayloadSize {
		payload = append(payload, ' ')
	}

	p.Feed([]byte("00000001"))
	if len(r.messages) != 0 {
		t.Fatal("premature message")
	}
	p.Feed(payload)

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	if r.messages[0].Kind != entity.KindSensor {
		t.Errorf("unexpected kind: %s", r.messages[0].Kind)
	}
}

// TestFeedRecoveryAfterMalformedPrefix checks that a bad prefix is
// counted, dropped and does not poison the next message.
func TestFeedRecoveryAfterMalformedPrefix(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed([]byte("ABCDEF01"))
	if len(r.messages) != 0 {
		t.Fatal("malformed prefix must not produce a message")
	}
	if stat := p.Stat(); stat.ErrorCount != 1 || stat.MessagesProcessed != 0 {
		t.Fatalf("unexpected counters: %+v", stat)
	}

	p.Feed(makePrefixed(t, []byte(`{"type":"stats"}`), 0, 0))
	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	if stat := p.Stat(); stat.ErrorCount != 1 || stat.MessagesProcessed != 1 {
		t.Fatalf("unexpected counters: %+v", stat)
	}
}

func TestFeedUnsupportedTypeField(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed([]byte("00200501"))
	if len(r.messages) != 0 {
		t.Fatal("unsupported type field must not produce a message")
	}
	if p.Stat().ErrorCount != 1 {
		t.Fatalf("unexpected counters: %+v", p.Stat())
	}
}

func TestFeedPayloadTooLarge(t *testing.T) {
	const maxPayloadSize = 64

	p, r := newTestProcessor(maxPayloadSize)

	p.Feed([]byte("01000001"))
	p.Feed(make([]byte, 70))

	if len(r.messages) != 0 {
		t.Fatal("oversized payload must not produce a message")
	}
	if p.Stat().ErrorCount != 1 {
		t.Fatalf("unexpected counters: %+v", p.Stat())
	}

	p.Feed([]byte(`{"type":"sensor"}`))
	if len(r.messages) != 1 {
		t.Fatal("processor did not recover after overflow")
	}
}

func TestFeedInvalidJSON(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	emptyGzip, err := p.cmp.CompressGzip(nil)
	if err != nil {
		t.Fatal(err)
	}

	testData := map[string][]byte{
		"truncated":    []byte(`{"type":"sensor"`),
		"null":         makePrefixed(t, []byte("null"), 0, 0),
		"invalid-utf8": makePrefixed(t, []byte{'{', 0xff, 0xfe, '}'}, 0, 0),
		"empty-gzip":   emptyGzip,
	}

	var wantErrors uint64
	for k, chunk := range testData {
		p.Feed(chunk)
		wantErrors++
		if len(r.messages) != 0 {
			t.Fatalf("[%s] invalid payload must not produce a message", k)
		}
		if stat := p.Stat(); stat.ErrorCount != wantErrors || stat.MessagesProcessed != 0 {
			t.Fatalf("[%s] unexpected counters: %+v", k, stat)
		}
	}
}

func TestFeedUnknownKind(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed([]byte(`{"type":"telemetry"}`))
	p.Feed([]byte(`{"value":1}`))

	if len(r.messages) != 2 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	for i, m := range r.messages {
		if m.Kind != entity.KindUnknown {
			t.Errorf("[%d] unexpected kind: %s", i, m.Kind)
		}
	}
}

func TestFeedDestination(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed([]byte(`{"type":"sensor","destination":"desk-display"}`))

	if len(r.messages) != 1 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	if r.messages[0].Destination != "desk-display" {
		t.Errorf("unexpected destination: %s", r.messages[0].Destination)
	}
}

func TestFeedEmptyChunk(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed(nil)
	p.Feed([]byte{})

	if len(r.messages) != 0 {
		t.Fatal("empty chunk must be a no-op")
	}
	if stat := p.Stat(); stat.ErrorCount != 0 || stat.MessagesProcessed != 0 {
		t.Fatalf("unexpected counters: %+v", stat)
	}
}

func TestFeedBackToBackFrames(t *testing.T) {
	p, r := newTestProcessor(testMaxPayloadSize)

	p.Feed(makePrefixed(t, []byte(`{"type":"sensor","n":1}`), 0, 1))
	p.Feed([]byte(`{"type":"config","n":2}`))
	p.Feed(makePrefixed(t, []byte(`{"type":"sensor","n":3}`), 0, 1))

	if len(r.messages) != 3 {
		t.Fatalf("unexpected message count: %d", len(r.messages))
	}
	for i, m := range r.messages {
		if m.Payload["n"] != float64(i+1) {
			t.Errorf("[%d] order violated: %+v", i, m.Payload)
		}
	}
}
