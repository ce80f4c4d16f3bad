package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SaimonDevStore/SJOFERTAS/config"
	"github.com/SaimonDevStore/SJOFERTAS/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrPipelineCloseTimeout is returned when workers do not drain in time.
	ErrPipelineCloseTimeout = errors.New("pipeline: close timed out")
)

// drainTimeout bounds how long Close waits for in-flight messages.
var drainTimeout = 30 * time.Second

// Handler processes a single chat message.
type Handler interface {
	Handle(ctx context.Context, msg models.Message) error
}

// Pipeline drops repeated updates and fans chat messages out to a fixed
// number of workers.
type Pipeline struct {
	ctx     context.Context
	handler Handler
	msgCh   chan models.Message

	wg sync.WaitGroup

	seen *lru.Cache[int, struct{}]

	metrics metrics

	mu     sync.Mutex // guards closed
	closed bool

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline sized from cfg.
func NewPipeline(ctx context.Context, handler Handler, cfg *config.Config) (*Pipeline, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	seen, err := lru.New[int, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Pipeline{
		ctx:      ctx,
		handler:  handler,
		msgCh:    make(chan models.Message, cfg.QueueSize),
		seen:     seen,
		metrics:  newMetrics(),
		shutdown: make(chan struct{}),
	}, nil
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues a message. Updates already seen are dropped silently.
func (p *Pipeline) Process(msg models.Message) error {
	if p.isClosed() {
		return ErrPipelineClosed
	}

	if strings.TrimSpace(msg.Text) == "" && msg.Command == "" {
		p.metrics.addSkipped("empty_message")
		return nil
	}
	if found, _ := p.seen.ContainsOrAdd(msg.UpdateID, struct{}{}); found {
		p.metrics.addSkipped("duplicate_update")
		slog.Debug("duplicate update dropped", slog.Int("update_id", msg.UpdateID))
		return nil
	}

	return p.enqueue(msg)
}

// Close stops accepting messages and waits for in-flight ones to finish.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.msgCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(drainTimeout):
		return fmt.Errorf("%w after %s", ErrPipelineCloseTimeout, drainTimeout)
	}
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				slog.Info("pipeline progress",
					slog.Int64("handled", metrics["handled_messages"].(int64)),
					slog.Int64("failed", metrics["failed_messages"].(int64)),
					slog.Any("skipped", metrics["skipped_messages"]),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	for msg := range p.msgCh {
		p.handle(msg)
	}
}

func (p *Pipeline) handle(msg models.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.incrementFailed()
			slog.Error("handler panic",
				slog.Int("update_id", msg.UpdateID),
				slog.Any("panic", r),
			)
		}
	}()

	if err := p.handler.Handle(p.ctx, msg); err != nil {
		p.metrics.incrementFailed()
		slog.Error("handle message",
			slog.Int("update_id", msg.UpdateID),
			slog.Int64("chat_id", msg.ChatID),
			slog.Any("error", err),
		)
		return
	}
	p.metrics.incrementHandled()
}

func (p *Pipeline) enqueue(msg models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.msgCh <- msg:
		return nil
	}
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu      sync.Mutex
	handled int64
	failed  int64
	skipped map[string]int
}

func newMetrics() metrics {
	return metrics{
		skipped: make(map[string]int),
	}
}

func (m *metrics) incrementHandled() {
	m.mu.Lock()
	m.handled++
	m.mu.Unlock()
}

func (m *metrics) incrementFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *metrics) addSkipped(kind string) {
	m.mu.Lock()
	m.skipped[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copySkipped := make(map[string]int, len(m.skipped))
	for k, v := range m.skipped {
		copySkipped[k] = v
	}

	return map[string]interface{}{
		"handled_messages": m.handled,
		"failed_messages":  m.failed,
		"skipped_messages": copySkipped,
	}
}
