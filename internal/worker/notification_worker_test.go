package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/service"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordEvent(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[eventType]++
}

func TestNotificationWorker_DeliversQueuedEvents(t *testing.T) {
	inbox := service.NewMemoryInbox(10)
	recorder := &countingRecorder{counts: map[string]int{}}
	w := NewNotificationWorker(service.NewNotificationService(inbox, nil), recorder, nil, 4)
	dispatcher := events.NewInMemoryDispatcher(nil)
	w.Register(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventPaymentRecorded, "u1", "c1", "u1",
		events.PaymentRecordedPayload{PaymentID: "p1", Amount: 25, Currency: "USD"})))

	require.Eventually(t, func() bool {
		got, _ := inbox.List(context.Background(), "u1", 0)
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-w.Done()
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, 1, recorder.counts[string(events.EventPaymentRecorded)])
}

func TestNotificationWorker_DrainsOnShutdown(t *testing.T) {
	inbox := service.NewMemoryInbox(10)
	w := NewNotificationWorker(service.NewNotificationService(inbox, nil), nil, nil, 2)

	event := events.New(events.EventUserStatusChanged, "u1", "u1", "admin",
		events.UserStatusChangedPayload{Action: "suspend"})
	require.NoError(t, w.Enqueue(context.Background(), event))
	require.NoError(t, w.Enqueue(context.Background(), event))
	require.NoError(t, w.Enqueue(context.Background(), event))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	got, err := inbox.List(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
