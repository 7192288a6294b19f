package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("kafka producer closed")
	ErrProducerFull   = errors.New("kafka producer buffer full")
)

const writeTimeout = 10 * time.Second

// messageWriter часть kafka.Writer, которой пользуется Producer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer складывает сообщения в буферизованный канал, одна горутина пишет их в kafka.
// Ошибки записи только логируются: вызывающий к этому моменту уже ответил пользователю.
type Producer struct {
	log   *slog.Logger
	w     messageWriter
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(log *slog.Logger, brokers []string, topic string, buf int) *Producer {
	return newProducer(log, &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, buf)
}

func newProducer(log *slog.Logger, w messageWriter, buf int) *Producer {
	return &Producer{
		log:   log.With(slog.String("component", "kafka.Producer")),
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

// Start запускает горутину записи. Она выходит после Close, дописав остаток канала.
func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.log.Error("failed to write message", slog.String("key", string(m.Key)), slog.Any("error", err))
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.Error("failed to close writer", slog.Any("error", err))
		}
	}()
}

// Publish не блокирует запрос: если буфер заполнен, сообщение отбрасывается с ошибкой
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return nil
	default:
		return ErrProducerFull
	}
}

// Close закрывает канал и ждёт, пока горутина допишет оставшиеся сообщения
func (p *Producer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.done
}
