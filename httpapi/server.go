// Package httpapi exposes the conversation engine over HTTP. One endpoint
// accepts inbound messages; a second one inspects session state.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/engine"
	"github.com/movetics/transflow/session"
)

// Conversation is the engine surface the server needs; tests plug in stubs.
type Conversation interface {
	HandleMessage(ctx context.Context, sessionID, senderID, text string) (*engine.Result, error)
	StartSession(ctx context.Context, senderID string, prefill []byte) (*session.Session, error)
}

type Server struct {
	router *chi.Mux
	conv   Conversation
	store  session.Store
}

func New(conv Conversation, store session.Store) *Server {
	s := &Server{
		router: chi.NewRouter(),
		conv:   conv,
		store:  store,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Get("/sessions/{sessionID}", s.handleGetSession)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type messageRequest struct {
	SessionID string `json:"session_id,omitempty"`
	SenderID  string `json:"sender_id"`
	Message   string `json:"message"`

	// Prefill optionally seeds a brand-new session's record with an
	// RFC 7386 merge patch of already-known sender data.
	Prefill json.RawMessage `json:"prefill,omitempty"`
}

type messageResponse struct {
	*engine.Result
	Error *apiError `json:"error,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		handleError(w, r, goerr.Wrap(err, "read request body"))
		return
	}
	var req messageRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		badRequest(w, goerr.Wrap(err, "decode request body"))
		return
	}
	if req.SenderID == "" || req.Message == "" {
		badRequest(w, goerr.New("sender_id and message are required"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" && len(req.Prefill) > 0 {
		sess, err := s.conv.StartSession(r.Context(), req.SenderID, req.Prefill)
		if err != nil {
			handleError(w, r, err)
			return
		}
		sessionID = sess.ID
	}

	result, err := s.conv.HandleMessage(r.Context(), sessionID, req.SenderID, req.Message)
	if err != nil && result == nil {
		handleError(w, r, err)
		return
	}

	resp := messageResponse{Result: result}
	if err != nil {
		// Summarization failures still carry a complete result; report both.
		resp.Error = toAPIError(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

var _ Conversation = (*engine.Engine)(nil)
