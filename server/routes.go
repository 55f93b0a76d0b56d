package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/corelabsai/driveagent/engine"
	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
	"github.com/corelabsai/driveagent/memory"
)

const maxRecentContext = 10

type (
	commandRequest struct {
		Command     string           `json:"command"`
		ChatHistory []engine.Message `json:"chat_history"`
	}

	confirmRequest struct {
		ActionID string `json:"action_id"`
	}
)

func (s *Server) registerRoutes(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":  "healthy",
			"app":     "driveagent",
			"version": "1.0.0",
		})
	}).Methods("GET")

	s.registerAuthRoutes(router)
	s.registerAgentRoutes(router)
	s.registerMemoryRoutes(router)
}

func (s *Server) registerAuthRoutes(router *mux.Router) {
	// Returns the Google consent URL the client should redirect to. An
	// optional redirect value is carried through the OAuth state.
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		url, state := s.oauth.AuthorizationURL(r.URL.Query().Get("redirect"))
		writeJSON(w, map[string]any{
			"authorization_url": url,
			"state":             state,
		})
	}).Methods("GET")

	// Exchanges the authorization code for tokens and returns a session
	// JWT.
	router.HandleFunc("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		info, err := s.oauth.HandleCallback(r.Context(), code)
		if err != nil {
			s.httpError(w, errors.Wrap(err, "oauth callback failed"))
			return
		}

		token, err := s.issueToken(info.UserID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"user":         info,
		})
	}).Methods("GET")

	router.HandleFunc("/auth/status", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		writeJSON(w, map[string]any{
			"authenticated": s.oauth.Authenticated(userID),
			"user_id":       userID,
		})
	})).Methods("GET")

	router.HandleFunc("/auth/logout", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		s.oauth.Revoke(r.Context(), userID)
		writeJSON(w, map[string]any{"message": "Logged out successfully"})
	})).Methods("POST")
}

func (s *Server) registerAgentRoutes(router *mux.Router) {
	// Execute a natural-language command via the autonomous agent.
	router.HandleFunc("/agent/command", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
			http.Error(w, "request must carry a command", http.StatusBadRequest)
			return
		}

		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, sess.agent.Execute(r.Context(), req.Command, req.ChatHistory))
	})).Methods("POST")

	// Preview the action plan without executing any Drive operation.
	router.HandleFunc("/agent/preview", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
			http.Error(w, "request must carry a command", http.StatusBadRequest)
			return
		}

		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		memoryContext, err := sess.memory.ContextForAgent(r.Context(), maxRecentContext)
		if err != nil {
			s.httpError(w, err)
			return
		}

		plan, err := s.engine.PlanActions(r.Context(), req.Command, memoryContext, sess.tools.Definitions())
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"status":  "preview",
			"result":  plan,
			"message": "This is a preview. No actions were taken.",
		})
	})).Methods("POST")

	// Confirm and execute a previously staged destructive action.
	router.HandleFunc("/agent/confirm", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActionID == "" {
			http.Error(w, "request must carry an action_id", http.StatusBadRequest)
			return
		}

		action, ok := s.pending.Confirm(req.ActionID, userID)
		if !ok {
			http.Error(w, "pending action not found or expired", http.StatusNotFound)
			return
		}

		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, sess.agent.Execute(r.Context(), action.Command, nil))
	})).Methods("POST")

	// Reject and discard a previously staged destructive action.
	router.HandleFunc("/agent/reject", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActionID == "" {
			http.Error(w, "request must carry an action_id", http.StatusBadRequest)
			return
		}

		if !s.pending.Reject(req.ActionID, userID) {
			http.Error(w, "pending action not found", http.StatusNotFound)
			return
		}

		writeJSON(w, map[string]any{"message": "Action rejected and discarded"})
	})).Methods("POST")

	router.HandleFunc("/agent/history", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		log, err := sess.memory.LoadConversationLog(r.Context())
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"history": log,
			"count":   len(log),
		})
	})).Methods("GET")
}

func (s *Server) registerMemoryRoutes(router *mux.Router) {
	router.HandleFunc("/agent/memory/profile", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		profile, err := sess.memory.LoadProfile(r.Context())
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, profile)
	})).Methods("GET")

	router.HandleFunc("/agent/memory/recall", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		query := r.URL.Query().Get("query")
		if query == "" {
			http.Error(w, "missing query parameter", http.StatusBadRequest)
			return
		}

		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		result, err := sess.memory.Recall(r.Context(), query)
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, result)
	})).Methods("GET")

	router.HandleFunc("/agent/memory/context", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		memoryContext, err := sess.memory.ContextForAgent(r.Context(), maxRecentContext)
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, map[string]any{"context": memoryContext})
	})).Methods("GET")

	// Trigger a deep LLM consolidation of the archived memory.
	router.HandleFunc("/agent/memory/consolidate", s.authenticated(func(w http.ResponseWriter, r *http.Request, userID string) {
		sess, err := s.newSession(r.Context(), userID)
		if err != nil {
			s.httpError(w, err)
			return
		}

		summary, err := sess.memory.DeepConsolidate(r.Context(), s.summarizeFunc())
		if err != nil {
			s.httpError(w, err)
			return
		}

		writeJSON(w, map[string]any{"summary": summary})
	})).Methods("POST")
}

// summarizeFunc adapts the engine to the memory package's summarizer
// signature.
func (s *Server) summarizeFunc() memory.SummarizeFunc {
	return func(ctx context.Context, text string) (string, error) {
		return s.engine.Summarize(ctx, text, 0)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// httpError maps domain errors onto HTTP status codes.
func (s *Server) httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidParams):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", mylog.Err(err))
	}
	http.Error(w, err.Error(), status)
}
