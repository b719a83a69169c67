package sink

import (
	"time"

	"telemetria_go/internal/models"
)

// ChartSeries é uma série temporal de capacidade fixa. A janela visível vai
// do ponto mais antigo ao mais novo retido.
type ChartSeries struct {
	name   string
	points *Ring[models.HistoryPoint]
}

// NewChartSeries cria uma série
func NewChartSeries(name string, capacity int) *ChartSeries {
	return &ChartSeries{name: name, points: NewRing[models.HistoryPoint](capacity)}
}

// Add acrescenta um ponto
func (s *ChartSeries) Add(ts time.Time, value float64) {
	s.points.Push(models.HistoryPoint{Timestamp: ts, Value: value})
}

// Window retorna o intervalo visível, ou false se a série está vazia
func (s *ChartSeries) Window() (min, max time.Time, ok bool) {
	oldest, ok := s.points.Oldest()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	newest, _ := s.points.Newest()
	return oldest.Timestamp, newest.Timestamp, true
}

// Len retorna o número de pontos
func (s *ChartSeries) Len() int {
	return s.points.Len()
}

// Snapshot copia a série para envio
func (s *ChartSeries) Snapshot() models.ChartSnapshot {
	snap := models.ChartSnapshot{Series: s.name, Points: s.points.Snapshot()}
	if min, max, ok := s.Window(); ok {
		snap.Window = &models.ChartWindow{Min: min, Max: max}
	}
	return snap
}
