package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Compressor handles the single wire compression algorithm, gzip.
type Compressor struct {
	cfg *Config
}

type Config struct {
	PayloadSize int
}

func New(cfg *Config) *Compressor {
	return &Compressor{cfg: cfg}
}

func (c *Compressor) CompressGzip(in []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(in)))

	w := gzip.NewWriter(buf)
	if _, err := w.Write(in); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (c *Compressor) DecompressGzip(in []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()

	out := bytes.NewBuffer(make([]byte, 0, c.cfg.PayloadSize))
	if _, err := io.Copy(out, r); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
