package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/movetics/transflow/engine"
	"github.com/movetics/transflow/errs"
	"github.com/movetics/transflow/httpapi"
	"github.com/movetics/transflow/session"
)

type stubConversation struct {
	handle func(ctx context.Context, sessionID, senderID, text string) (*engine.Result, error)
	start  func(ctx context.Context, senderID string, prefill []byte) (*session.Session, error)
}

func (s *stubConversation) HandleMessage(ctx context.Context, sessionID, senderID, text string) (*engine.Result, error) {
	return s.handle(ctx, sessionID, senderID, text)
}

func (s *stubConversation) StartSession(ctx context.Context, senderID string, prefill []byte) (*session.Session, error) {
	return s.start(ctx, senderID, prefill)
}

func postMessage(t *testing.T, srv *httpapi.Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestPostMessage(t *testing.T) {
	conv := &stubConversation{
		handle: func(_ context.Context, sessionID, senderID, text string) (*engine.Result, error) {
			gt.V(t, sessionID).Equal("s1")
			gt.V(t, senderID).Equal("u1")
			gt.V(t, text).Equal("hola")
			return &engine.Result{
				Status:        engine.StatusWaitingForResponse,
				SessionID:     sessionID,
				Question:      "¿cómo te llamas?",
				MissingFields: []string{"nombre_solicitante"},
			}, nil
		},
	}
	srv := httpapi.New(conv, session.NewMemoryStore())

	rec := postMessage(t, srv, `{"session_id":"s1","sender_id":"u1","message":"hola"}`)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.V(t, rec.Header().Get("Content-Type")).Equal("application/json")

	var resp struct {
		Status    string `json:"status"`
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}
	gt.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	gt.V(t, resp.Status).Equal("waiting_for_response")
	gt.V(t, resp.SessionID).Equal("s1")
	gt.V(t, resp.Question).Equal("¿cómo te llamas?")
}

func TestPostMessageValidation(t *testing.T) {
	conv := &stubConversation{
		handle: func(context.Context, string, string, string) (*engine.Result, error) {
			t.Fatal("engine must not be reached")
			return nil, nil
		},
	}
	srv := httpapi.New(conv, session.NewMemoryStore())

	for _, body := range []string{
		`{"sender_id":"u1"}`,
		`{"message":"hola"}`,
		`{not json`,
	} {
		rec := postMessage(t, srv, body)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
		gt.S(t, rec.Body.String()).Contains("invalid_request")
	}
}

func TestPostMessageErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		tag  goerr.Option
		code int
		kind string
	}{
		{"busy", goerr.Tag(errs.TagSessionBusy), http.StatusTooManyRequests, "session_busy"},
		{"timeout", goerr.Tag(errs.TagCollaboratorTimeout), http.StatusGatewayTimeout, "collaborator_timeout"},
		{"extraction", goerr.Tag(errs.TagExtractionFailed), http.StatusBadGateway, "extraction_failed"},
		{"exhausted", goerr.Tag(errs.TagAttemptsExhausted), http.StatusConflict, "attempts_exhausted"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv := &stubConversation{
				handle: func(context.Context, string, string, string) (*engine.Result, error) {
					return nil, goerr.New("boom", tc.tag)
				},
			}
			srv := httpapi.New(conv, session.NewMemoryStore())

			rec := postMessage(t, srv, `{"session_id":"s1","sender_id":"u1","message":"hola"}`)
			gt.V(t, rec.Code).Equal(tc.code)
			gt.S(t, rec.Body.String()).Contains(tc.kind)
		})
	}
}

func TestPostMessagePartialFailure(t *testing.T) {
	// A summarizer failure returns the completed record alongside the error.
	conv := &stubConversation{
		handle: func(context.Context, string, string, string) (*engine.Result, error) {
			return &engine.Result{Status: engine.StatusComplete, SessionID: "s1"},
				goerr.New("summarizer down", goerr.Tag(errs.TagSummarizationFailed))
		},
	}
	srv := httpapi.New(conv, session.NewMemoryStore())

	rec := postMessage(t, srv, `{"session_id":"s1","sender_id":"u1","message":"hola"}`)
	gt.V(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Status string `json:"status"`
		Error  *struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	gt.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	gt.V(t, resp.Status).Equal("complete")
	gt.V(t, resp.Error).NotNil()
	gt.V(t, resp.Error.Kind).Equal("summarization_failed")
}

func TestPostMessagePrefill(t *testing.T) {
	started := false
	conv := &stubConversation{
		start: func(_ context.Context, senderID string, prefill []byte) (*session.Session, error) {
			started = true
			gt.V(t, senderID).Equal("u1")
			gt.S(t, string(prefill)).Contains("Ana")
			return session.New("fresh-id", senderID), nil
		},
		handle: func(_ context.Context, sessionID, _, _ string) (*engine.Result, error) {
			gt.V(t, sessionID).Equal("fresh-id")
			return &engine.Result{Status: engine.StatusWaitingForResponse, SessionID: sessionID}, nil
		},
	}
	srv := httpapi.New(conv, session.NewMemoryStore())

	rec := postMessage(t, srv,
		`{"sender_id":"u1","message":"hola","prefill":{"nombre_solicitante":"Ana"}}`)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.True(t, started)
	gt.S(t, rec.Body.String()).Contains("fresh-id")
}

func TestGetSession(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	sess, err := store.Create(ctx, "s1", "u1")
	gt.NoError(t, err)
	_, err = sess.ApplyPartial(map[string]any{"nombre_solicitante": "Ana"})
	gt.NoError(t, err)
	gt.NoError(t, store.Save(ctx, sess))

	conv := &stubConversation{}
	srv := httpapi.New(conv, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.S(t, rec.Body.String()).Contains(`"nombre_solicitante":"Ana"`)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.V(t, rec.Code).Equal(http.StatusNotFound)
	gt.S(t, rec.Body.String()).Contains("session_not_found")
}
