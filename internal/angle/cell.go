// Package angle guarda o último ângulo reportado pelo motor, compartilhado
// entre o pipeline do canal B (escrita) e o do canal A (leitura).
package angle

import (
	"go.uber.org/atomic"

	"telemetria_go/internal/models"
)

// Cell é um slot único, último a escrever vence
type Cell struct {
	v atomic.Pointer[models.AngleReport]
}

// NewCell cria uma célula sem valor
func NewCell() *Cell {
	return &Cell{}
}

// Store substitui o valor inteiro
func (c *Cell) Store(r models.AngleReport) {
	c.v.Store(&r)
}

// Load retorna o ângulo atual, ou false se nenhum foi reportado
func (c *Cell) Load() (float64, bool) {
	r := c.v.Load()
	if r == nil {
		return 0, false
	}
	return r.Angle, true
}

// Report retorna o relato completo mais recente
func (c *Cell) Report() (models.AngleReport, bool) {
	r := c.v.Load()
	if r == nil {
		return models.AngleReport{}, false
	}
	return *r, true
}
