// Package server exposes the agent over HTTP: the OAuth flow, the
// command endpoints, and read access to the memory layers. Sessions are
// carried in a signed JWT; Google credentials never leave the server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"github.com/corelabsai/driveagent/agent"
	"github.com/corelabsai/driveagent/auth"
	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/drive"
	"github.com/corelabsai/driveagent/engine"
	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
	"github.com/corelabsai/driveagent/memory"
	"github.com/corelabsai/driveagent/tool"
)

type (
	// Engine is the slice of the model engine the server needs.
	// Satisfied by *engine.Engine.
	Engine interface {
		Run(ctx context.Context, req *engine.RunRequest) (*engine.RunResponse, error)
		Summarize(ctx context.Context, text string, maxWords int) (string, error)
		Research(ctx context.Context, topic string) (string, error)
		PlanActions(ctx context.Context, command, memoryContext string, tools []engine.ToolDefinition) (string, error)
	}

	Server struct {
		logger  *mylog.Logger
		conf    *config.ServerConfig
		memConf *config.MemoryConfig
		oauth   *auth.OAuth
		engine  Engine
		pending *agent.PendingStore

		// newDrive builds the per-user drive service. Swappable so tests
		// can run against the in-memory backend.
		newDrive func(ctx context.Context, ts oauth2.TokenSource) (drive.Service, error)

		// systemPrompt overrides the agent's default system prompt when a
		// persona file is configured.
		systemPrompt string
	}

	// session bundles the per-request services resolved for one user.
	session struct {
		agent  *agent.Agent
		memory memory.Service
		tools  *tool.Manager
	}
)

func NewServer(
	logger *mylog.Logger,
	conf *config.ServerConfig,
	memConf *config.MemoryConfig,
	oauthSvc *auth.OAuth,
	eng Engine,
) *Server {
	return &Server{
		logger:  logger,
		conf:    conf,
		memConf: memConf,
		oauth:   oauthSvc,
		engine:  eng,
		pending: agent.NewPendingStore(time.Duration(conf.PendingActionTTLMinutes) * time.Minute),
		newDrive: func(ctx context.Context, ts oauth2.TokenSource) (drive.Service, error) {
			return drive.NewGoogleService(ctx, ts)
		},
	}
}

// newSession resolves the user's Google credentials and builds the
// per-request agent stack on top of them.
func (s *Server) newSession(ctx context.Context, userID string) (*session, error) {
	ts, err := s.oauth.TokenSource(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "google credentials expired, please re-authenticate")
	}

	driveSvc, err := s.newDrive(ctx, ts)
	if err != nil {
		return nil, err
	}

	memorySvc := memory.NewService(driveSvc, s.memConf, s.logger)
	tools := tool.NewManager(s.logger, driveSvc, memorySvc, s.engine)

	a := agent.New(s.logger, memorySvc, s.engine, tools, s.pending, userID)
	if s.systemPrompt != "" {
		a.SetSystemPrompt(s.systemPrompt)
	}

	return &session{
		agent:  a,
		memory: memorySvc,
		tools:  tools,
	}, nil
}

// SetPersona composes the persona into the system prompt used for
// every agent session.
func (s *Server) SetPersona(persona *config.PersonaConfig) {
	s.systemPrompt = persona.Compose(agent.SystemPrompt)
}

// Handler builds the full HTTP handler: routes wrapped in CORS and
// panic recovery.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.registerRoutes(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
	)

	return cors(recovery(router))
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.conf.Host, s.conf.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped unexpectedly")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down server")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "failed to shut down server")
}
