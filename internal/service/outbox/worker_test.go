package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/memory"
)

type stubPublisher struct {
	mu       sync.Mutex
	failBy   map[string]int
	calls    int
	received []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failBy != nil && s.failBy[event.ID] > 0 {
		s.failBy[event.ID]--
		return errors.New("broker unavailable")
	}
	s.received = append(s.received, event)
	return nil
}

func (s *stubPublisher) publishedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.received))
	for _, msg := range s.received {
		ids = append(ids, msg.ID)
	}
	return ids
}

func enqueue(t *testing.T, repo domain.OutboxRepository, id, eventType string) domain.OutboxMessage {
	t.Helper()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		ID:            id,
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     eventType,
		Payload:       []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestWorker_ProcessOnce_PublishesAndMarksSent(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{}

	enqueue(t, repo, "msg-1", "order.created")
	enqueue(t, repo, "msg-2", "order.cancelled")

	worker := NewWorker(repo, publisher,
		WithLogger(log.New().WithField("test", t.Name())),
		WithRetryBaseDelay(0),
	)
	worker.ProcessOnce(context.Background())

	ids := publisher.publishedIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(ids))
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}
}

func TestWorker_ProcessOnce_RetriesTransientFailure(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{failBy: map[string]int{"msg-1": 2}}

	enqueue(t, repo, "msg-1", "order.created")

	worker := NewWorker(repo, publisher,
		WithLogger(log.New().WithField("test", t.Name())),
		WithMaxAttempts(3),
		WithRetryBaseDelay(0),
	)
	worker.ProcessOnce(context.Background())

	// Две неудачи, третья попытка успешна.
	if publisher.calls != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", publisher.calls)
	}
	if len(publisher.publishedIDs()) != 1 {
		t.Fatalf("expected message published after retries")
	}
}

func TestWorker_ProcessOnce_ExhaustedGoesToDLQ(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{failBy: map[string]int{"msg-1": 100}}
	dlq := &stubPublisher{}

	enqueue(t, repo, "msg-1", "order.created")

	worker := NewWorker(repo, publisher,
		WithLogger(log.New().WithField("test", t.Name())),
		WithDLQPublisher(dlq),
		WithMaxAttempts(2),
		WithRetryBaseDelay(0),
	)
	worker.ProcessOnce(context.Background())

	if len(dlq.publishedIDs()) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.publishedIDs()))
	}

	// Сообщение помечено failed и не возвращается в выборку.
	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending after failure, got %d", len(pending))
	}
}

func TestWorker_ProcessOnce_CancelledContext(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{}

	enqueue(t, repo, "msg-1", "order.created")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(repo, publisher, WithLogger(log.New().WithField("test", t.Name())))
	worker.ProcessOnce(ctx)

	if publisher.calls != 0 {
		t.Fatalf("expected no publish on cancelled context, got %d", publisher.calls)
	}
}

func TestWorker_DefaultsApplied(t *testing.T) {
	worker := NewWorker(memory.NewOutboxRepository(), &stubPublisher{},
		WithBatchSize(-5),
		WithMaxAttempts(0),
		WithPollInterval(0),
	)

	if worker.batchSize != defaultBatchSize {
		t.Fatalf("batch size = %d, want default %d", worker.batchSize, defaultBatchSize)
	}
	if worker.maxAttempts != defaultMaxAttempts {
		t.Fatalf("max attempts = %d, want default %d", worker.maxAttempts, defaultMaxAttempts)
	}
	if worker.pollInterval != defaultPollInterval {
		t.Fatalf("poll interval = %v, want default %v", worker.pollInterval, defaultPollInterval)
	}
}
