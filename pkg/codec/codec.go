package codec

import (
	"github.com/forest33/junction/business/entity"
)

type Classifier interface {
	Classify(chunk []byte) entity.FrameEncoding
}

type Decoder interface {
	UnmarshalPrefix(data []byte, f *entity.PrefixFields) error
	PayloadLength(f *entity.PrefixFields) int
}

type Encoder interface {
	MarshalPrefix(f *entity.PrefixFields) ([]byte, error)
}

type Codec interface {
	Classifier
	Decoder
	Encoder
}

type Config struct {
	MaxPayloadSize int
}
