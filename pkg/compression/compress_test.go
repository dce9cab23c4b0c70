package compression

import (
	"bytes"
	"math/rand"
	"testing"
)

const testPayloadSize = 8192

var testCompressor = New(&Config{PayloadSize: testPayloadSize})

func getTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + rand.Intn(16))
	}
	return data
}

func TestGzipRoundTrip(t *testing.T) {
	in := getTestData(testPayloadSize)

	compressed, err := testCompressor.CompressGzip(in)
	if err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if len(compressed) == 0 {
		t.Fatal("empty compressed data")
	}

	out, err := testCompressor.DecompressGzip(compressed)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatal("decompressed data mismatch")
	}
}

func TestGzipMagic(t *testing.T) {
	compressed, err := testCompressor.CompressGzip([]byte(`{"type":"sensor"}`))
	if err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if compressed[0] != 0x1f || compressed[1] != 0x8b {
		t.Fatalf("unexpected gzip magic: %x %x", compressed[0], compressed[1])
	}
}

func TestDecompressInvalidData(t *testing.T) {
	if _, err := testCompressor.DecompressGzip([]byte("not a gzip stream")); err == nil {
		t.Fatal("expected error on invalid data")
	}
	if _, err := testCompressor.DecompressGzip([]byte{0x1f, 0x8b, 0x08, 0x00}); err == nil {
		t.Fatal("expected error on truncated stream")
	}
}

func BenchmarkCompressGzip(b *testing.B) {
	in := getTestData(testPayloadSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := testCompressor.CompressGzip(in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecompressGzip(b *testing.B) {
	in, err := testCompressor.CompressGzip(getTestData(testPayloadSize))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := testCompressor.DecompressGzip(in); err != nil {
			b.Fatal(err)
		}
	}
}
