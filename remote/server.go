package remote

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/litebridge/litebridge/internal/channel"
	"github.com/litebridge/litebridge/internal/executor"
	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/internal/protocol"
)

// DefaultPath is the channel endpoint path when none is configured.
const DefaultPath = "/v1/channel"

// Config contains remote executor server settings.
type Config struct {
	// Path is the route the channel endpoint is mounted at.
	// Defaults to DefaultPath.
	Path string `yaml:"path"`

	// AllowedOrigin, when set, is the only HTTP Origin accepted, both at
	// upgrade time and per message inside the executor. Empty allows any.
	AllowedOrigin string `yaml:"allowed_origin"`

	// Logging configures the server's structured logger. Each session's
	// executor logs through it with a per-session id.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains logging settings for the server.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	Output         string `yaml:"output"`
	FilterSQLTrace bool   `yaml:"filter_sql_trace"`
}

// Server hosts executors for remote controllers. Each accepted websocket
// connection gets a fresh executor with its own connection state.
type Server struct {
	cfg      Config
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a remote executor server.
func NewServer(cfg Config) *Server {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	logger := logging.New(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		Output:         cfg.Logging.Output,
		FilterSQLTrace: cfg.Logging.FilterSQLTrace,
	}).With("component", "remote")

	return &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
}

// Router returns the HTTP handler exposing the channel endpoint. Mount it
// on an existing server or pass it to http.ListenAndServe directly.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get(s.cfg.Path, s.handleChannel)
	return r
}

// handleChannel upgrades a connection and bridges it to a fresh executor:
// socket frames in, executor responses out, both in order.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	origin := r.Header.Get("Origin")
	logger := s.logger.With("session", uuid.NewString())
	logger.Info("channel connected", "origin", origin, "remote", r.RemoteAddr)

	peer, host := channel.NewPipe()
	go executor.New(host, executor.Options{
		Logger: logger,
		Origin: s.cfg.AllowedOrigin,
	}).Run()

	// Writer: executor responses back over the socket. Exits on teardown.
	go func() {
		for {
			select {
			case res := <-peer.Responses():
				if err := conn.WriteJSON(res); err != nil {
					peer.Close() //nolint:errcheck // Teardown is best effort
					return
				}
			case <-peer.Done():
				return
			}
		}
	}()

	// Reader: socket frames into the executor. The message origin is
	// stamped here, server-side; whatever a client put in the field is
	// overwritten.
	for {
		var req protocol.Request
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		req.Origin = origin
		if err := peer.Send(req); err != nil {
			break
		}
	}

	peer.Close() //nolint:errcheck // Teardown is best effort
	conn.Close() //nolint:errcheck // Teardown is best effort
	logger.Info("channel disconnected")
}
