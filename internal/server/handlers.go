package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

// maxWebhookBody bounds the size of an inbound webhook payload.
const maxWebhookBody = 1 << 16

// WebhookHandler receives inbound SMS webhooks.
type WebhookHandler struct {
	relay  Relayer
	logger *log.Logger
}

// NewWebhookHandler creates a [WebhookHandler].
func NewWebhookHandler(relayer Relayer, logger *log.Logger) *WebhookHandler {
	return &WebhookHandler{relay: relayer, logger: logger}
}

func (h *WebhookHandler) Routes() []string {
	return []string{"POST /webhook/sms"}
}

// ServeHTTP answers 200 "OK" once the message was handled, including when an apology was sent.
// A payload without From or Body, or a failure to reach the sender, answers 500.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), h.logger)

	msg, err := parseInbound(r)
	if err != nil {
		logger.Error("rejected webhook payload", "error", err)
		internalError(w)
		return
	}

	outcome, err := h.relay.Handle(r.Context(), msg)
	if err != nil {
		logger.Error("failed to process webhook", "error", err)
		internalError(w)
		return
	}

	logger.Info("webhook handled", "outcome", outcome)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

// parseInbound reads From and Body from a form-encoded or JSON webhook payload.
func parseInbound(r *http.Request) (models.InboundMessage, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxWebhookBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var payload struct {
			From *string `json:"From"`
			Body *string `json:"Body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return models.InboundMessage{}, shared.ErrMalformedRequest
		}
		if payload.From == nil || payload.Body == nil {
			return models.InboundMessage{}, shared.ErrMalformedRequest
		}
		return models.InboundMessage{From: *payload.From, Body: *payload.Body}, nil
	}

	if err := r.ParseForm(); err != nil {
		return models.InboundMessage{}, shared.ErrMalformedRequest
	}

	body, ok := r.PostForm["Body"]
	if !ok || len(body) == 0 {
		return models.InboundMessage{}, shared.ErrMalformedRequest
	}

	from := strings.TrimSpace(r.PostForm.Get("From"))
	if from == "" {
		return models.InboundMessage{}, shared.ErrMalformedRequest
	}

	return models.InboundMessage{From: from, Body: body[0]}, nil
}

func internalError(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// DiagnosticsHandler exposes the catalog lookup and the full resolution as JSON.
type DiagnosticsHandler struct {
	relay  Relayer
	logger *log.Logger
}

// NewDiagnosticsHandler creates a [DiagnosticsHandler].
func NewDiagnosticsHandler(relayer Relayer, logger *log.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{relay: relayer, logger: logger}
}

func (h *DiagnosticsHandler) Routes() []string {
	return []string{
		"GET /test-catalog/{trackId}",
		"GET /test-spotify/{trackId}",
		"GET /test-full/{trackId}",
	}
}

func (h *DiagnosticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), h.logger)
	trackID := r.PathValue("trackId")

	if strings.HasPrefix(r.URL.Path, "/test-full/") {
		res, err := h.relay.ResolveFresh(r.Context(), trackID)
		if err != nil {
			logger.Warn("diagnostic resolution failed", "track_id", trackID, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, fullResponse{Success: true, Track: res.Track, Video: res.Video})
		return
	}

	track, err := h.relay.Track(r.Context(), trackID)
	if err != nil {
		logger.Warn("diagnostic catalog lookup failed", "track_id", trackID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, trackResponse{Success: true, Track: track})
}

type trackResponse struct {
	Success bool                  `json:"success"`
	Track   *models.TrackMetadata `json:"track"`
}

type fullResponse struct {
	Success bool                  `json:"success"`
	Track   *models.TrackMetadata `json:"track"`
	Video   *models.VideoResult   `json:"video"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "songshare is running!",
		"status":  "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		internalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
