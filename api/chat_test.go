package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dapurkita/chefchimi/internal/chat"
	"github.com/dapurkita/chefchimi/internal/log"
)

// fakeResponder scripts pipeline behavior for handler tests.
type fakeResponder struct {
	answer    string
	err       error
	fragments []string
	streamErr error
	calls     int
}

func (f *fakeResponder) Respond(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeResponder) RespondStream(ctx context.Context, _, _ string, fn chat.StreamFunc) (string, error) {
	f.calls++
	if f.streamErr != nil && len(f.fragments) == 0 {
		return "", f.streamErr
	}
	var sent strings.Builder
	for _, frag := range f.fragments {
		if err := fn(ctx, frag); err != nil {
			return sent.String(), err
		}
		sent.WriteString(frag)
	}
	return sent.String(), f.streamErr
}

func newTestServer(responder Responder, initErr error) *Server {
	logger := log.NewNop()
	return NewServer(
		NewHealthHandler(nil, logger),
		NewChatHandler(responder, initErr, logger),
		logger,
	)
}

func postChat(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	responder := &fakeResponder{answer: "Ini resep ayam goreng..."}
	srv := newTestServer(responder, nil)

	rec := postChat(t, srv.Handler(), "/api/chat", `{"question":"carikan resep ayam goreng","session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Ini resep ayam goreng..." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestChat_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing question", `{"session_id":"s1"}`},
		{"missing session_id", `{"question":"halo"}`},
		{"empty body", `{}`},
		{"malformed json", `{"question":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := &fakeResponder{answer: "unused"}
			srv := newTestServer(responder, nil)

			rec := postChat(t, srv.Handler(), "/api/chat", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if !strings.Contains(resp.Message, "question") || !strings.Contains(resp.Message, "session_id") {
				t.Errorf("message = %q, want it to name both required fields", resp.Message)
			}
			if responder.calls != 0 {
				t.Errorf("responder calls = %d, want 0 for invalid requests", responder.calls)
			}
		})
	}
}

func TestChat_PipelineError(t *testing.T) {
	responder := &fakeResponder{err: errors.New("model unavailable")}
	srv := newTestServer(responder, nil)

	rec := postChat(t, srv.Handler(), "/api/chat", `{"question":"resep soto","session_id":"s1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "model unavailable") {
		t.Error("internal error detail leaked into the response body")
	}
}

func TestChat_DegradedService(t *testing.T) {
	responder := &fakeResponder{answer: "unused"}
	srv := newTestServer(responder, errors.New("missing GEMINI_API_KEY"))

	for _, path := range []string{"/api/chat", "/api/chat/stream"} {
		rec := postChat(t, srv.Handler(), path, `{"question":"halo","session_id":"s1"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s status = %d, want 500 in degraded mode", path, rec.Code)
		}
		if responder.calls != 0 {
			t.Fatalf("responder calls = %d, want 0 in degraded mode", responder.calls)
		}
	}
}

func TestChatStream_Fragments(t *testing.T) {
	responder := &fakeResponder{fragments: []string{"Resep ", "soto ", "ayam."}}
	srv := newTestServer(responder, nil)

	rec := postChat(t, srv.Handler(), "/api/chat/stream", `{"question":"resep soto","session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body, _ := io.ReadAll(rec.Body)
	if string(body) != "Resep soto ayam." {
		t.Errorf("body = %q, want the raw concatenated fragments", body)
	}
}

func TestChatStream_ErrorBeforeFirstFragment(t *testing.T) {
	responder := &fakeResponder{streamErr: errors.New("retriever down")}
	srv := newTestServer(responder, nil)

	rec := postChat(t, srv.Handler(), "/api/chat/stream", `{"question":"resep soto","session_id":"s1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when nothing was streamed yet", rec.Code)
	}
}

func TestChatStream_ErrorMidStreamEndsEarly(t *testing.T) {
	responder := &fakeResponder{fragments: []string{"Resep "}, streamErr: errors.New("model hiccup")}
	srv := newTestServer(responder, nil)

	rec := postChat(t, srv.Handler(), "/api/chat/stream", `{"question":"resep soto","session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; headers were already committed", rec.Code)
	}
	if rec.Body.String() != "Resep " {
		t.Errorf("body = %q, want only the fragments sent before the failure", rec.Body.String())
	}
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(&fakeResponder{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeResponder{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", rec.Code)
	}

	// No pool configured: ready must report unavailable.
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/ready status = %d, want 503 without a pool", rec.Code)
	}
}
