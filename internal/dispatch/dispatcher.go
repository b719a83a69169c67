// Package dispatch entrega eventos produzidos nas goroutines de leitura
// serial a um único consumidor.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"telemetria_go/internal/models"
	"telemetria_go/pkg/logger"
)

// DefaultQueueSize é o tamanho padrão da fila
const DefaultQueueSize = 1024

// ErrClosed é retornado por Post e Call depois do encerramento
var ErrClosed = errors.New("despachante encerrado")

// Event é qualquer valor entregue ao consumidor
type Event interface{}

// Handler processa eventos; é sempre chamado na goroutine do consumidor
type Handler func(channel models.ChannelID, event Event)

type envelope struct {
	channel models.ChannelID
	event   Event
	call    func()
	done    chan struct{}
}

// Dispatcher é uma fila limitada com um único consumidor. Eventos postados
// pelo mesmo canal são entregues na ordem de Post; não há garantia de ordem
// entre canais diferentes.
type Dispatcher struct {
	queue   chan envelope
	handler Handler

	mu     sync.RWMutex
	closed bool

	delivered atomic.Int64
	panics    atomic.Int64

	stopped chan struct{}
}

// New cria um despachante; handler recebe todos os eventos postados
func New(queueSize int, handler Handler) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		queue:   make(chan envelope, queueSize),
		handler: handler,
		stopped: make(chan struct{}),
	}
}

// Post enfileira um evento. Bloqueia enquanto a fila estiver cheia.
func (d *Dispatcher) Post(channel models.ChannelID, event Event) error {
	return d.enqueue(context.Background(), envelope{channel: channel, event: event})
}

// Call executa fn na goroutine do consumidor e espera o término. É a forma de
// ler o estado do consumidor a partir de outras goroutines.
func (d *Dispatcher) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := d.enqueue(ctx, envelope{call: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-d.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, env envelope) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrClosed
	}
}

// Run consome a fila até ctx ser cancelado ou Close ser chamado.
// Deve haver apenas uma chamada de Run.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.stopped)

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case env, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(env)
		}
	}
}

// drain entrega o que já estava na fila sem esperar por novos eventos
func (d *Dispatcher) drain() {
	for {
		select {
		case env, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(env)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Inc()
			logger.Errorf("Pânico no consumidor do despachante (canal %q): %v", env.channel, r)
		}
		if env.done != nil {
			close(env.done)
		}
	}()

	if env.call != nil {
		env.call()
		return
	}
	if d.handler != nil {
		d.handler(env.channel, env.event)
	}
	d.delivered.Inc()
}

// Close impede novos eventos e encerra Run depois de entregar os pendentes
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

// Done é fechado quando Run termina
func (d *Dispatcher) Done() <-chan struct{} {
	return d.stopped
}

// Stats retorna contadores para diagnóstico
func (d *Dispatcher) Stats() map[string]interface{} {
	return map[string]interface{}{
		"queued":    len(d.queue),
		"capacity":  cap(d.queue),
		"delivered": d.delivered.Load(),
		"panics":    d.panics.Load(),
	}
}

// String descreve o despachante
func (d *Dispatcher) String() string {
	return fmt.Sprintf("dispatcher(%d/%d)", len(d.queue), cap(d.queue))
}
