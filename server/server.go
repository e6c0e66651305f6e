package server

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/sinp-protocol/sinp/core"
)

// Server is a SINP server: a bound listener, a capability registry, and
// the decision thresholds/transport limits every connection's state
// machine is built from.
type Server struct {
	config    Config
	registry  *core.CapabilityRegistry
	logger    core.Logger
	telemetry core.Telemetry
	tlsConfig *tls.Config

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New creates a Server from config and registry. If config.TLS is set, the
// certificate/key pair is loaded immediately so misconfiguration surfaces
// before Run is called.
func New(config Config, registry *core.CapabilityRegistry, logger core.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("sinp/server")
	}

	s := &Server{config: config, registry: registry, logger: logger, telemetry: &core.NoOpTelemetry{}}

	if config.TLS != nil {
		tlsConfig, err := loadTLSConfig(config.TLS)
		if err != nil {
			return nil, err
		}
		s.tlsConfig = tlsConfig
	}

	return s, nil
}

// WithTelemetry attaches a tracer used for per-connection pipeline spans.
// A nil telemetry is ignored, leaving the no-op default in place.
func (s *Server) WithTelemetry(telemetry core.Telemetry) *Server {
	if telemetry != nil {
		s.telemetry = telemetry
	}
	return s
}

// Run binds config.BindAddr and accepts connections until Stop is called
// or Listen fails. Each connection is handled in its own goroutine.
func (s *Server) Run() error {
	var listener net.Listener
	var err error

	if s.tlsConfig != nil {
		listener, err = tls.Listen("tcp", s.config.BindAddr, s.tlsConfig)
	} else {
		listener, err = net.Listen("tcp", s.config.BindAddr)
	}
	if err != nil {
		return &core.FrameworkError{Op: "Server.Run", Kind: "transport", Message: fmt.Sprintf("failed to bind %s", s.config.BindAddr), Err: err}
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("sinp server listening", map[string]interface{}{
		"address":      s.config.BindAddr,
		"tls":          s.tlsConfig != nil,
		"capabilities": s.registry.CapabilityIDs(),
	})

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isStopped() {
				return nil
			}
			return &core.FrameworkError{Op: "Server.Run", Kind: "transport", Message: "accept failed", Err: err}
		}

		s.logger.Debug("connection accepted", map[string]interface{}{"remote": conn.RemoteAddr().String()})

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConnection(conn, s.config, s.registry, s.logger, s.telemetry)
		}()
	}
}

// Addr returns the listener's bound address. It returns nil until Run has
// successfully bound a listener.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener == nil
}

// Stop closes the listener, preventing new connections, and waits for every
// connection goroutine to return. Open connections are not closed by Stop; a
// goroutine returns when its client disconnects or a read or write fails.
func (s *Server) Stop() error {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener == nil {
		return nil
	}

	err := listener.Close()
	s.wg.Wait()
	return err
}
