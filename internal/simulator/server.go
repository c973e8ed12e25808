package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	AccessKey    string
	PushInterval time.Duration
	Logger       logger.Logger

	// StrictChannel puts /cgi/state behind the session key check, so a
	// stale console gets 403 on upgrade and exhausts its retry budget
	// instead of learning about the restart from checkSessionKey.
	StrictChannel bool
}

// Server imitates the local drone server: the /dmz authorization endpoint,
// the /cgi commands and the /cgi/state telemetry channel.
type Server struct {
	accessKey string
	strict    bool
	interval  time.Duration
	log       logger.Logger
	states    *states
	upgrader  websocket.Upgrader

	mu    sync.Mutex
	conns map[*channel]struct{}

	terminated chan struct{}
	termOnce   sync.Once
}

func New(opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = consts.DefaultPushInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Log
	}
	if opts.AccessKey == "" {
		opts.AccessKey = uuid.NewString()
	}
	s := &Server{
		accessKey:  opts.AccessKey,
		strict:     opts.StrictChannel,
		interval:   opts.PushInterval,
		log:        opts.Logger.With("component", "simulator"),
		states:     newStates(),
		conns:      make(map[*channel]struct{}),
		terminated: make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) AccessKey() string  { return s.accessKey }
func (s *Server) SessionKey() string { return s.states.SessionKey() }

// Terminated is closed once a console asked the server to terminate.
func (s *Server) Terminated() <-chan struct{} { return s.terminated }

// Restart behaves like a server process restart: every open channel is
// dropped and a new session key is issued. Channels go first so no push
// carries the new key on an old channel.
func (s *Server) Restart() {
	s.dropChannels()
	s.states.rotate()
	s.log.Info("Simulated restart")
}

// SetDroneHealth overrides the telemetry pushed on the channel.
func (s *Server) SetDroneHealth(health consts.DroneHealthState, battery int) {
	s.states.setHealth(protocol.DroneHealth{Health: int(health), BatteryLevel: battery})
}

func (s *Server) SetDroneState(state consts.DroneState) bool {
	return s.states.setDrone(state)
}

func (s *Server) Handler() http.Handler {
	root := mux.NewRouter()

	dmz := root.PathPrefix("/dmz").Subrouter()
	dmz.HandleFunc("/startUsingApplication", s.startUsingApplication).Methods(http.MethodGet)

	// By default the channel is reachable with any key: a console bound to
	// a stale key learns about it through the checkSessionKey exchange.
	if !s.strict {
		root.HandleFunc(consts.DefaultStatePath, s.state)
	}

	cgi := root.PathPrefix(consts.DefaultCGIPrefix).Subrouter()
	cgi.Use(s.checkSessionKey)
	if s.strict {
		cgi.HandleFunc(strings.TrimPrefix(consts.DefaultStatePath, consts.DefaultCGIPrefix), s.state)
	}
	s.handleJSON(cgi, consts.PathApplicationState, s.checkApplicationStates).Methods(http.MethodGet)
	s.handleJSON(cgi, consts.PathGenerateKey, s.generateKey).Methods(http.MethodGet)
	s.handleJSON(cgi, consts.PathStartApp, s.startApp).Methods(http.MethodPost)
	s.handleJSON(cgi, consts.PathStopApp, s.stopApp).Methods(http.MethodPost)
	s.handleJSON(cgi, consts.PathTakeOff, s.droneCommand(consts.DroneTakeOff)).Methods(http.MethodPost)
	s.handleJSON(cgi, consts.PathLand, s.droneCommand(consts.DroneLand)).Methods(http.MethodPost)
	s.handleJSON(cgi, consts.PathTerminate, s.terminate).Methods(http.MethodPost)
	s.handleJSON(cgi, consts.PathUpdateToken, s.updateAccessToken).Methods(http.MethodPost)
	s.handleJSON(cgi, consts.PathDeleteToken, s.deleteAccessToken).Methods(http.MethodDelete)

	return root
}

// Run serves on addr until ctx is done or a console terminates the server.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("Simulator listening", "addr", addr, "accessKey", s.accessKey)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.terminated:
			// Let the terminate response reach the console first.
			time.Sleep(100 * time.Millisecond)
		}
		s.dropChannels()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type jsonHandler func(r *http.Request) (any, int)

func (s *Server) handleJSON(router *mux.Router, path string, h jsonHandler) *mux.Route {
	return router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("Request", "method", r.Method, "path", r.URL.Path)
		body, status := h(r)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			s.log.Warn("Request failed", "path", r.URL.Path, "status", status)
			w.WriteHeader(status)
			return
		}
		if body == nil {
			body = struct{}{}
		}
		json.NewEncoder(w).Encode(body)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	s.log.Warn("Invalid origin", "origin", origin)
	return false
}

func (s *Server) checkSessionKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(consts.SessionKeyHeader)
		if key == "" {
			key = r.URL.Query().Get(consts.SessionKeyQuery)
		}
		if key != s.states.SessionKey() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) startUsingApplication(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(consts.AccessKeyHeader) != s.accessKey {
		s.log.Warn("Invalid access key")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	key := s.states.rotate()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.AuthorizeResponse{SessionKey: key})
}

func (s *Server) checkApplicationStates(r *http.Request) (any, int) {
	return s.states.snapshot(), http.StatusOK
}

func (s *Server) generateKey(r *http.Request) (any, int) {
	return protocol.StartKeyBody{StartKey: uuid.NewString()}, http.StatusOK
}

func (s *Server) startApp(r *http.Request) (any, int) {
	var body protocol.StartKeyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.StartKey == "" {
		return nil, http.StatusBadRequest
	}
	if !s.states.start(body.StartKey) {
		s.log.Info("Application has already been started")
	}
	return nil, http.StatusOK
}

func (s *Server) stopApp(r *http.Request) (any, int) {
	s.states.stop()
	return nil, http.StatusOK
}

func (s *Server) droneCommand(state consts.DroneState) jsonHandler {
	return func(r *http.Request) (any, int) {
		if !s.states.setDrone(state) {
			return nil, http.StatusConflict
		}
		return nil, http.StatusOK
	}
}

func (s *Server) terminate(r *http.Request) (any, int) {
	s.termOnce.Do(func() {
		s.log.Info("Terminate requested")
		close(s.terminated)
	})
	return nil, http.StatusOK
}

func (s *Server) updateAccessToken(r *http.Request) (any, int) {
	var body protocol.AccessTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return nil, http.StatusBadRequest
	}
	return protocol.AccessTokenResponse{AccessTokenDesc: s.states.setToken(body.AccessToken)}, http.StatusOK
}

func (s *Server) deleteAccessToken(r *http.Request) (any, int) {
	s.states.setToken("")
	return nil, http.StatusOK
}

// Personal.AI order the ending
