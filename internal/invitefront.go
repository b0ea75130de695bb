package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dgellow/invite-front/internal/agent"
	"github.com/dgellow/invite-front/internal/config"
	"github.com/dgellow/invite-front/internal/crypto"
	"github.com/dgellow/invite-front/internal/log"
	"github.com/dgellow/invite-front/internal/server"
	"github.com/dgellow/invite-front/internal/session"
)

// csrfTokenTTL bounds how long a rendered page's form token stays valid.
const csrfTokenTTL = 4 * time.Hour

// InviteFront is the complete invitation console application.
type InviteFront struct {
	config     config.Config
	httpServer *server.HTTPServer
	sessions   *session.Store
}

// NewInviteFront builds the application with all dependencies wired.
func NewInviteFront(ctx context.Context, cfg config.Config) (*InviteFront, error) {
	log.LogInfoWithFields("invitefront", "Building invitation console", map[string]any{
		"baseURL": cfg.Server.BaseURL,
		"channel": cfg.Invite.Channel,
	})

	sessions := buildSessionStore(cfg)

	// The CSRF signing key is per-process. Tokens signed before a restart
	// fail validation and the operator resubmits from a fresh page, which is
	// acceptable for an internal tool with no persistence anyway.
	signingKey, err := crypto.GenerateSecureToken()
	if err != nil {
		sessions.Shutdown()
		return nil, fmt.Errorf("failed to generate CSRF signing key: %w", err)
	}
	csrf := crypto.NewCSRFProtection([]byte(signingKey), csrfTokenTTL)

	invoker := agent.NewClient(cfg.Agent.Endpoint, cfg.Agent.AgentID, string(cfg.Agent.APIKey))
	handlers := server.NewHandlers(invoker, sessions, csrf, cfg.Invite.Channel, cfg.Invite.DefaultContext)

	router := buildRouter(cfg, handlers)
	httpServer := server.NewHTTPServer(router, cfg.Server.Addr)

	return &InviteFront{
		config:     cfg,
		httpServer: httpServer,
		sessions:   sessions,
	}, nil
}

// Run starts the application and blocks until shutdown.
func (a *InviteFront) Run() error {
	log.LogInfoWithFields("invitefront", "Starting invitation console", map[string]any{
		"addr": a.config.Server.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to signal errors that should trigger shutdown
	errChan := make(chan error, 1)

	go func() {
		if err := a.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("invitefront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("invitefront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
		log.LogInfoWithFields("invitefront", "Context cancelled, shutting down", nil)
	}

	// The drain window covers in-flight agent calls, which can be slow: the
	// agent retries Slack rate limits on its own schedule.
	log.LogInfoWithFields("invitefront", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("invitefront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	a.sessions.Shutdown()

	log.LogInfoWithFields("invitefront", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

func buildSessionStore(cfg config.Config) *session.Store {
	var opts []session.StoreOption
	if sessions := cfg.Sessions; sessions != nil {
		if sessions.TTL > 0 {
			log.LogInfoWithFields("invitefront", "Using configured session TTL", map[string]any{
				"ttl": sessions.TTL.String(),
			})
			opts = append(opts, session.WithTTL(sessions.TTL))
		}
		if sessions.CleanupInterval > 0 {
			opts = append(opts, session.WithCleanupInterval(sessions.CleanupInterval))
		}
		if sessions.MaxSessions > 0 {
			opts = append(opts, session.WithMaxSessions(sessions.MaxSessions))
		}
	}
	return session.NewStore(opts...)
}

func buildRouter(cfg config.Config, handlers *server.Handlers) http.Handler {
	logger := server.NewLoggerMiddleware("http")
	recoverer := server.NewRecoverMiddleware("http")
	cors := server.NewCORSMiddleware(cfg.Server.AllowedOrigins)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(logger)
	r.Use(recoverer)

	r.Method(http.MethodGet, "/health", server.NewHealthHandler())

	r.Get("/", handlers.Index)
	r.Post("/invites", handlers.SubmitInvites)

	r.Route("/api", func(api chi.Router) {
		api.Use(cors)
		api.Post("/emails/parse", handlers.ParseEmails)
		api.Post("/emails/remove", handlers.RemoveEmail)
		api.Post("/invites", handlers.SubmitJSON)
		api.Get("/state", handlers.State)
	})

	log.LogInfoWithFields("invitefront", "Router initialized", nil)
	return r
}
