// Package eventbus dispatches in-process events from the request path (HTTP,
// GraphQL and repository calls) to observers such as the logger and tracer.
// Handlers run synchronously on the publishing goroutine.
package eventbus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type entry struct {
	id uint64
	fn func(context.Context, any)
}

// Bus is an in-process event dispatcher keyed by the event's dynamic type.
type Bus struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[reflect.Type][]entry
}

// New creates a new Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]entry)} }

func (b *Bus) subscribe(t reflect.Type, fn func(context.Context, any)) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.handlers[t] = append(b.handlers[t], entry{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			hs := b.handlers[t]
			for i, e := range hs {
				if e.id == id {
					hs = append(hs[:i:i], hs[i+1:]...)
					break
				}
			}
			if len(hs) == 0 {
				delete(b.handlers, t)
			} else {
				b.handlers[t] = hs
			}
		})
	}
}

func (b *Bus) emit(ctx context.Context, e any) {
	if b == nil {
		return
	}
	t := reflect.TypeOf(e)
	b.mu.RLock()
	hs := b.handlers[t]
	b.mu.RUnlock()
	// Subscribers never mutate a published slice in place, so hs is stable.
	for _, h := range hs {
		dispatch(ctx, t, h.fn, e)
	}
}

// dispatch keeps a panicking observer from failing the request it observes.
func dispatch(ctx context.Context, t reflect.Type, fn func(context.Context, any), e any) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().
				Str("event", t.String()).
				Str("panic", fmt.Sprint(r)).
				Msg("event handler panicked")
		}
	}()
	fn(ctx, e)
}

// On registers h on b.
func On[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.subscribe(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Emit sends e to the handlers b holds for T.
func Emit[T any](ctx context.Context, b *Bus, e T) { b.emit(ctx, e) }

var global atomic.Pointer[Bus]

// Use sets the global bus. Passing nil disables event publishing.
func Use(b *Bus) { global.Store(b) }

// Subscribe registers h with the global bus. It is a no-op while no bus is
// installed.
func Subscribe[T any](h Handler[T]) (unsubscribe func()) {
	if b := global.Load(); b != nil {
		return On(b, h)
	}
	return func() {}
}

// Publish sends e through the global bus.
func Publish[T any](ctx context.Context, e T) {
	if b := global.Load(); b != nil {
		b.emit(ctx, e)
	}
}
