package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus is the in-process transport: a bounded queue drained by one worker.
type Bus struct {
	handlers  *Handlers
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewBus(handlers *Handlers, size int, logger *zap.Logger) *Bus {
	if size <= 0 {
		size = 1000
	}
	b := &Bus{
		handlers:  handlers,
		events:    make(chan Event, size),
		logger:    logger.Named("event_bus"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}

	go b.eventLoop()
	return b
}

// Publish queues the event. When the queue is full the event is dropped.
func (b *Bus) Publish(event Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Uint("company_id", event.companyID()),
		)
	}
}

func (b *Bus) eventLoop() {
	defer close(b.done)
	for {
		select {
		case event := <-b.events:
			b.handle(event)
		case <-b.closeChan:
			b.drain()
			return
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case event := <-b.events:
			b.handle(event)
		default:
			return
		}
	}
}

func (b *Bus) handle(event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.Any("panic", r),
				zap.String("event_type", string(event.Type)),
			)
		}
	}()
	_ = b.handlers.Dispatch(context.Background(), event)
}

// Close stops accepting work, handles what is already queued and waits for
// the worker to exit.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.closeChan)
	})
	<-b.done
}
