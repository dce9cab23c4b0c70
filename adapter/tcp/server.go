// Package tcp accepts raw Junction Relay byte streams and forwards
// every inbound chunk, in order, to the receiver handler.
package tcp

import (
	"fmt"
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/forest33/junction/business/entity"
	"github.com/forest33/junction/pkg/logger"
	"github.com/forest33/junction/pkg/structs"
)

type Server struct {
	log      *logger.Logger
	cfg      *Config
	receiver ReceiverHandler
}

type Config struct {
	Host string
	Port int
}

// ReceiverHandler consumes one inbound chunk. Called on the event
// loop goroutine; the chunk is only valid for the duration of the
// call.
type ReceiverHandler func(data []byte)

func New(log *logger.Logger, cfg *Config) *Server {
	return &Server{
		log: log.Duplicate(log.With().Str("layer", "tcp").Logger()),
		cfg: cfg,
	}
}

func (s *Server) SetReceiverHandler(f ReceiverHandler) {
	s.receiver = f
}

func (s *Server) Run() error {
	if s.receiver == nil {
		return entity.ErrReceiverHandlerNotSet
	}

	host := structs.If(s.cfg.Host != "", s.cfg.Host, "0.0.0.0")

	go func() {
		s.log.Info().
			Str("host", host).
			Int("port", s.cfg.Port).
			Msg("starting TCP ingest server")

		err := gnet.Run(&server{srv: s}, fmt.Sprintf("tcp://%s:%d", host, s.cfg.Port),
			gnet.WithReuseAddr(true))
		if err != nil {
			s.log.Fatalf("failed to start TCP ingest server: %v", err)
		}
	}()

	return nil
}

type server struct {
	srv *Server
}

func (srv *server) OnTraffic(conn gnet.Conn) (action gnet.Action) {
	s := srv.srv

	data, err := conn.Next(-1)
	if err != nil {
		if entity.IsErrorInterruptingNetwork(err) {
			return gnet.Close
		}
		s.log.Error().Err(err).Msg("failed to read from socket")
		return gnet.None
	}

	s.receiver(data)

	return gnet.None
}

func (srv *server) OnBoot(eng gnet.Engine) (action gnet.Action) {
	return gnet.None
}

func (srv *server) OnShutdown(eng gnet.Engine) {
}

func (srv *server) OnOpen(conn gnet.Conn) (out []byte, action gnet.Action) {
	srv.srv.log.Debug().Str("addr", conn.RemoteAddr().String()).Msg("connection accepted")
	return nil, gnet.None
}

func (srv *server) OnClose(conn gnet.Conn, err error) (action gnet.Action) {
	srv.srv.log.Debug().Str("addr", conn.RemoteAddr().String()).Msg("connection closed")
	return gnet.Close
}

func (srv *server) OnTick() (delay time.Duration, action gnet.Action) {
	return
}
