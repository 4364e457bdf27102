package dispatcher

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stampflow/stampflow/config"
)

func TestEnqueueBeforeStartIsNoOp(t *testing.T) {
	events = nil

	// Must not panic or block when the worker was never started.
	Enqueue(AccrualEvent{CardInstanceID: 1})
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	events = make(chan AccrualEvent, 2)
	t.Cleanup(func() { events = nil })

	// No worker draining; the third event is dropped, not blocked on.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			Enqueue(AccrualEvent{CardInstanceID: uint(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	assert.Len(t, events, 2)
}

func TestWorkerPostsWalletWebhook(t *testing.T) {
	received := make(chan AccrualEvent, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event AccrualEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	Start(&config.Config{WalletWebhookURL: server.URL})
	t.Cleanup(func() { close(events); events = nil })

	Enqueue(AccrualEvent{
		CardInstanceID: 42,
		CustomerID:     7,
		StampsGranted:  1,
		CurrentStage:   3,
	})

	select {
	case event := <-received:
		assert.Equal(t, uint(42), event.CardInstanceID)
		assert.Equal(t, uint(3), event.CurrentStage)
	case <-time.After(2 * time.Second):
		t.Fatal("wallet webhook was never delivered")
	}
}
