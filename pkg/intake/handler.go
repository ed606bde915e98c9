package intake

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jrcode-ui/alchemy-discord-bot/pkg/alchemy"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/metrics"
)

// maxBodyBytes caps inbound request bodies. Real payloads are a few
// kilobytes; anything near the cap is garbage.
const maxBodyBytes = 4 << 20

// statusResponse is the uniform JSON body for intake responses.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server exposes the HTTP intake surface: the webhook endpoint, the
// liveness probe and the metrics scrape handler.
type Server struct {
	queue *Queue
}

func NewServer(q *Queue) *Server {
	return &Server{queue: q}
}

// Routes assembles the intake mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook-intake", s.handleWebhook)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /", s.handleHealth)
	return logRequests(mux)
}

// handleWebhook validates and queues one payload. The response is
// written before any background processing happens; the caller never
// sees downstream outcomes.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	metrics.PayloadsReceived.Inc()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		metrics.PayloadsRejected.WithLabelValues("unreadable").Inc()
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Empty or invalid payload"})
		return
	}

	payload, err := alchemy.Parse(body)
	if err != nil {
		metrics.PayloadsRejected.WithLabelValues("unparseable").Inc()
		log.Debug("Rejected unparseable payload", "err", err)
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Empty or invalid payload"})
		return
	}
	if payload.Empty() {
		metrics.PayloadsRejected.WithLabelValues("empty").Inc()
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Empty or invalid payload"})
		return
	}

	d := Delivery{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		Payload:    payload,
	}
	if !s.queue.Submit(d) {
		metrics.PayloadsRejected.WithLabelValues("queue_full").Inc()
		log.Warn("Processing queue is full, rejecting payload", "depth", s.queue.Depth())
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "error", Message: "Processing queue is full"})
		return
	}

	log.Debug("Payload queued", "id", d.ID, "queued", s.queue.Pending())
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Webhook received and queued"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Webhook receiver is alive! Items in queue: %d", s.queue.Pending())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Debug("Request handled", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}
