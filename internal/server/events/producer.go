package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed    = errors.New("producer closed")
	// ErrQueueFull is returned when the writer is behind and the buffer is full.
	ErrQueueFull = errors.New("event queue full")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers envelopes in memory and writes them from a single
// goroutine. Delivery is best effort: write errors are logged, not retried,
// and Publish drops the event instead of waiting when the buffer is full.
type Producer struct {
	w        messageWriter
	service  string
	logger   logging.Logger
	inbox    chan kafka.Message
	closeCh  chan struct{}
	mu       sync.RWMutex
	closed   bool
	writeTTL time.Duration
}

func NewProducer(brokers []string, topic, service string, buf int, logger logging.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, service, buf, logger)
}

func newProducer(w messageWriter, service string, buf int, logger logging.Logger) *Producer {
	return &Producer{
		w:        w,
		service:  service,
		logger:   logger,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
		writeTTL: 10 * time.Second,
	}
}

// Start runs the writer loop until Close is called or ctx is done.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.Close()
	}()

	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			wctx, cancel := context.WithTimeout(context.Background(), p.writeTTL)
			if err := p.w.WriteMessages(wctx, m); err != nil {
				p.logger.Error(wctx, "event write failed", "key", string(m.Key), "error", err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.logger.Warn(context.Background(), "kafka writer close", "error", err)
		}
	}()
}

// Publish wraps payload in an envelope keyed by key and queues it.
// The request id on ctx, if any, becomes the trace id. It never waits on
// the writer: a full buffer drops the event and returns ErrQueueFull.
func (p *Producer) Publish(ctx context.Context, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EnvelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: key,
		Payload:       body,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(EnvelopeVersion))},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		p.logger.Warn(ctx, "event dropped, queue full", "event", eventType, "key", key)
		return ErrQueueFull
	}
}

// Close stops accepting events; queued ones are still flushed.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the queue is flushed and the writer closed.
func (p *Producer) WaitClosed() { <-p.closeCh }
