package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rfxcom2mqtt/backend/internal/discovery"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
	"github.com/rfxcom2mqtt/backend/internal/store"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Action is an admin action targeting the bridge or a single device entity.
type Action struct {
	Type     string `json:"type"`
	Action   string `json:"action"`
	DeviceID string `json:"deviceId,omitempty"`
	EntityID string `json:"entityId,omitempty"`
}

// Deps holds the dependencies required by the API server. BridgeInfo,
// Action and Rename are supplied by the controller so mutations go through
// its dispatch path.
type Deps struct {
	Config     config.FrontendConfig
	Settings   *config.Service
	Devices    *store.DeviceStore
	State      *store.StateStore
	Logger     *logging.Logger
	Stream     *logging.Stream
	Version    string
	BridgeInfo func() discovery.BridgeInfo
	Action     func(action Action) error
	Rename     func(deviceID, name string, unitCode int) error
}

// Server is the admin HTTP server.
//
// It manages the HTTP listener, routes, middleware and the log WebSocket.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.FrontendConfig
	settings   *config.Service
	devices    *store.DeviceStore
	state      *store.StateStore
	logger     *logging.Logger
	stream     *logging.Stream
	version    string
	bridgeInfo func() discovery.BridgeInfo
	action     func(action Action) error
	rename     func(deviceID, name string, unitCode int) error

	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the API server. It is not started until Start() is called.
func New(deps Deps) *Server {
	return &Server{
		ctx:        context.Background(),
		cfg:        deps.Config,
		settings:   deps.Settings,
		devices:    deps.Devices,
		state:      deps.State,
		logger:     deps.Logger,
		stream:     deps.Stream,
		version:    deps.Version,
		bridgeInfo: deps.BridgeInfo,
		action:     deps.Action,
		rename:     deps.Rename,
	}
}

// Start begins listening for HTTP connections in a background goroutine.
// TLS is enabled when both a certificate and key are configured.
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop WebSocket write loops
	// independently of the parent context.
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if s.cfg.SSLCert != "" && s.cfg.SSLKey != "" {
			s.logger.Info("admin server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.SSLCert,
			)
			err = s.server.ListenAndServeTLS(s.cfg.SSLCert, s.cfg.SSLKey)
		} else {
			s.logger.Info("admin server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("admin server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down admin server: %w", err)
	}
	return nil
}
