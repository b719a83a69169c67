package monitor

import (
	"context"

	"telemetria_go/internal/models"
)

// Caller executa fn na goroutine do consumidor (ver dispatch.Dispatcher.Call)
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// View dá acesso seguro ao Monitor a partir de outras goroutines
// (handlers HTTP, hub WebSocket)
type View struct {
	monitor *Monitor
	caller  Caller
}

// NewView cria a visão sobre o monitor
func NewView(m *Monitor, caller Caller) *View {
	return &View{monitor: m, caller: caller}
}

// LiveLines retorna as linhas ao vivo do canal
func (v *View) LiveLines(ctx context.Context, channel models.ChannelID) ([]string, bool, error) {
	var lines []string
	var ok bool
	err := v.caller.Call(ctx, func() {
		lines, ok = v.monitor.LiveLines(channel)
	})
	return lines, ok, err
}

// ClearLive apaga a visão ao vivo do canal
func (v *View) ClearLive(ctx context.Context, channel models.ChannelID) (bool, error) {
	var ok bool
	err := v.caller.Call(ctx, func() {
		ok = v.monitor.ClearLive(channel)
	})
	return ok, err
}

// Chart retorna a cópia de uma série do gráfico
func (v *View) Chart(ctx context.Context, name string) (models.ChartSnapshot, bool, error) {
	var snap models.ChartSnapshot
	var ok bool
	err := v.caller.Call(ctx, func() {
		snap, ok = v.monitor.Chart(name)
	})
	return snap, ok, err
}

// Statuses retorna o status dos canais e o último texto de status
func (v *View) Statuses(ctx context.Context) ([]models.ChannelStatus, string, error) {
	var statuses []models.ChannelStatus
	var text string
	err := v.caller.Call(ctx, func() {
		statuses, text = v.monitor.Statuses()
	})
	return statuses, text, err
}

// LastSample retorna a última amostra de vento
func (v *View) LastSample(ctx context.Context) (models.WindSample, bool, error) {
	var s models.WindSample
	var ok bool
	err := v.caller.Call(ctx, func() {
		s, ok = v.monitor.LastSample()
	})
	return s, ok, err
}

// Counters retorna os contadores de eventos
func (v *View) Counters(ctx context.Context) (map[string]int64, error) {
	var c map[string]int64
	err := v.caller.Call(ctx, func() {
		c = v.monitor.Counters()
	})
	return c, err
}
