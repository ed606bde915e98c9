package intake

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const validBody = `{
	"webhookId": "wh_1",
	"id": "whevt_1",
	"createdAt": "2024-03-01T00:00:00.000Z",
	"type": "GRAPHQL",
	"event": {"network": "ETH_MAINNET", "activity": []}
}`

func postWebhook(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook-intake", strings.NewReader(body)))
	return rec
}

func TestWebhook_Accepted(t *testing.T) {
	got := make(chan Delivery, 1)
	q := NewQueue(4, 1, func(ctx context.Context, d Delivery) {
		got <- d
	})
	h := NewServer(q).Routes()

	rec := postWebhook(h, validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp statusResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Webhook received and queued", resp.Message)

	select {
	case d := <-got:
		assert.NotEmpty(t, d.ID)
		assert.Equal(t, "wh_1", d.Payload.WebhookID)
		assert.Equal(t, "ETH_MAINNET", d.Payload.Event.Network)
	case <-time.After(time.Second):
		t.Fatal("Accepted payload never reached the queue handler")
	}

	// The upstream shape is open; a body of unrecognized keys is still
	// a payload and must be acked, not rejected
	rec = postWebhook(h, `{"foo": "bar"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Webhook received and queued", resp.Message)

	select {
	case d := <-got:
		assert.NotNil(t, d.Payload)
	case <-time.After(time.Second):
		t.Fatal("Unrecognized-shape payload never reached the queue handler")
	}
	q.Close()
}

func TestWebhook_Rejected(t *testing.T) {
	q := NewQueue(4, 1, func(ctx context.Context, d Delivery) {
		t.Error("No background work may start for rejected payloads")
	})
	defer q.Close()
	h := NewServer(q).Routes()

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", "{not json"},
		{"empty object", "{}"},
		{"null payload", "null"},
		{"trailing garbage", `{"webhookId": "wh_1"}garbage`},
		{"non-object body", `[1, 2]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postWebhook(h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp statusResponse
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, "Empty or invalid payload", resp.Message)
		})
	}
}

func TestWebhook_QueueFull(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	q := NewQueue(1, 1, func(ctx context.Context, d Delivery) {
		started <- struct{}{}
		<-release
	})
	h := NewServer(q).Routes()

	// First delivery occupies the worker, second fills the buffer
	assert.Equal(t, http.StatusOK, postWebhook(h, validBody).Code)
	<-started
	assert.Equal(t, http.StatusOK, postWebhook(h, validBody).Code)

	rec := postWebhook(h, validBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp statusResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Processing queue is full", resp.Message)

	close(release)
	q.Close()
}

func TestWebhook_AckLatency(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue(4, 1, func(ctx context.Context, d Delivery) {
		<-release
	})
	h := NewServer(q).Routes()

	// The ack must not wait for the slow processing behind it
	start := time.Now()
	rec := postWebhook(h, validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	q.Close()
}

func TestHealth(t *testing.T) {
	q := NewQueue(4, 1, func(ctx context.Context, d Delivery) {})
	defer q.Close()
	h := NewServer(q).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Webhook receiver is alive! Items in queue: 0", rec.Body.String())
}

func TestHealth_ReportsPending(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	q := NewQueue(2, 1, func(ctx context.Context, d Delivery) {
		started <- struct{}{}
		<-release
	})
	h := NewServer(q).Routes()

	assert.Equal(t, http.StatusOK, postWebhook(h, validBody).Code)
	<-started
	assert.Equal(t, http.StatusOK, postWebhook(h, validBody).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "Webhook receiver is alive! Items in queue: 1", rec.Body.String())

	close(release)
	q.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	q := NewQueue(4, 1, func(ctx context.Context, d Delivery) {})
	defer q.Close()
	h := NewServer(q).Routes()

	// Register at least one observation
	postWebhook(h, validBody)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "relay_payloads_received_total")
}
