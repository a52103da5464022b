package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dapurkita/chefchimi/internal/chat"
	"github.com/dapurkita/chefchimi/internal/log"
)

// errMissingFields is the message returned when the request body lacks a
// question or session id.
const errMissingFields = "Mohon sertakan 'question' dan 'session_id'."

// Responder answers one question within a session, either in one shot or
// as a fragment stream.
type Responder interface {
	Respond(ctx context.Context, sessionID, question string) (string, error)
	RespondStream(ctx context.Context, sessionID, question string, fn chat.StreamFunc) (string, error)
}

// ChatHandler serves the chat endpoints. When initErr is non-nil the
// service runs degraded: every chat request answers 500 with the captured
// startup failure, but the process stays up so probes keep working.
type ChatHandler struct {
	responder Responder
	initErr   error
	logger    log.Logger
}

// NewChatHandler creates the chat handler. Pass the error from startup as
// initErr to serve degraded; pass nil when initialization succeeded.
func NewChatHandler(responder Responder, initErr error, logger log.Logger) *ChatHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ChatHandler{responder: responder, initErr: initErr, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("POST /api/chat/stream", h.handleChatStream)
}

// ChatRequest is the inbound request body.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the single-shot answer body.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// decodeChatRequest parses and validates the request body. It writes the
// error response itself and returns false when the request is unusable.
func (h *ChatHandler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", errMissingFields)
		return ChatRequest{}, false
	}
	if req.Question == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errMissingFields)
		return ChatRequest{}, false
	}
	return req, true
}

// serviceReady reports whether chat traffic can be served, writing the
// degraded-mode error when it cannot.
func (h *ChatHandler) serviceReady(w http.ResponseWriter) bool {
	if h.initErr == nil {
		return true
	}
	h.logger.Error("request rejected, service degraded", "error", h.initErr)
	writeError(w, http.StatusInternalServerError, "initialization_failed",
		"Layanan sedang tidak tersedia. Silakan coba lagi nanti.")
	return false
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if !h.serviceReady(w) {
		return
	}
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	answer, err := h.responder.Respond(r.Context(), req.SessionID, req.Question)
	if err != nil {
		h.logger.Error("chat request failed",
			"session_id", req.SessionID,
			"request_id", RequestID(r.Context()),
			"error", err)
		writeError(w, http.StatusInternalServerError, "chat_failed",
			"Maaf, terjadi kesalahan saat memproses pertanyaan Anda.")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Answer: answer})
}

// handleChatStream streams raw answer fragments. Headers commit on the
// first fragment; a failure after that can only end the stream early.
func (h *ChatHandler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if !h.serviceReady(w) {
		return
	}
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported",
			"Streaming tidak didukung oleh koneksi ini.")
		return
	}

	started := false
	_, err := h.responder.RespondStream(r.Context(), req.SessionID, req.Question,
		func(_ context.Context, text string) error {
			if !started {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.WriteHeader(http.StatusOK)
				started = true
			}
			if _, werr := w.Write([]byte(text)); werr != nil {
				return werr
			}
			flusher.Flush()
			return nil
		})
	if err != nil {
		if !started {
			h.logger.Error("stream request failed",
				"session_id", req.SessionID,
				"request_id", RequestID(r.Context()),
				"error", err)
			writeError(w, http.StatusInternalServerError, "chat_failed",
				"Maaf, terjadi kesalahan saat memproses pertanyaan Anda.")
			return
		}
		// Headers are committed, the stream just ends here.
		if !errors.Is(err, context.Canceled) {
			h.logger.Warn("stream ended early",
				"session_id", req.SessionID,
				"request_id", RequestID(r.Context()),
				"error", err)
		}
	}
}
