package entity

import (
	"errors"
	"io"
	"net"
)

var (
	ErrMalformedPrefix       = errors.New("malformed prefix")
	ErrUnsupportedTypeField  = errors.New("unsupported prefix type field")
	ErrWrongPrefixSize       = errors.New("wrong prefix size")
	ErrPayloadTooLarge       = errors.New("payload exceeds maximum buffer capacity")
	ErrDecompression         = errors.New("invalid gzip data")
	ErrDecode                = errors.New("invalid message structure")
	ErrEmptyPayload          = errors.New("empty message payload")
	ErrReceiverHandlerNotSet = errors.New("receiver handler is not set")
	ErrDisplayHandlerNotSet  = errors.New("display handler is not set")
	ErrSystemHandlerNotSet   = errors.New("system handler is not set")
	ErrAlreadyStarted        = errors.New("already started")
	ErrValidation            = errors.New("validation error")
)

func IsErrorInterruptingNetwork(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout() || errors.Is(opErr, net.ErrClosed)
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
