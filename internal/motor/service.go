// Package motor é o pipeline do canal B: procura relatos "now at <ângulo>"
// no texto livre do controlador do motor, atualiza a célula compartilhada de
// ângulo e envia comandos ao motor.
package motor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"

	"telemetria_go/internal/angle"
	"telemetria_go/internal/apperr"
	"telemetria_go/internal/config"
	"telemetria_go/internal/dispatch"
	"telemetria_go/internal/frame"
	"telemetria_go/internal/models"
	"telemetria_go/internal/serial"
	"telemetria_go/pkg/logger"
)

// Poster entrega eventos ao consumidor
type Poster interface {
	Post(channel models.ChannelID, event dispatch.Event) error
}

// PortUser informa a porta ocupada por outro canal ("" se nenhuma)
type PortUser interface {
	PortName() string
}

// StartOptions sobrescreve a configuração do canal numa conexão
type StartOptions struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

// Service gerencia o canal B
type Service struct {
	cfg      config.SerialConfig
	capacity int
	cell     *angle.Cell
	poster   Poster
	opener   serial.Opener
	peer     PortUser
	log      *logger.Scoped
	now      func() time.Time
	mutex    sync.RWMutex
	running  bool
	channel  *serial.Channel
	status   models.ChannelStatus

	chunks  atomic.Int64
	reports atomic.Int64
}

// NewService cria o serviço do canal B. peer é o canal A, usado para recusar
// a mesma porta.
func NewService(cfg config.SerialConfig, pattern config.PatternConfig, cell *angle.Cell, poster Poster, opener serial.Opener, peer PortUser) *Service {
	return &Service{
		cfg:      cfg,
		capacity: pattern.BufferCapacity,
		cell:     cell,
		poster:   poster,
		opener:   opener,
		peer:     peer,
		log:      logger.WithPrefix(string(models.ChannelB)),
		now:      time.Now,
		status: models.ChannelStatus{
			Channel:   models.ChannelB,
			State:     models.StateClosed,
			Text:      "B: Disconnected.",
			Timestamp: time.Now(),
		},
	}
}

// Start conecta ao controlador do motor
func (s *Service) Start(opts StartOptions) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	scfg := serial.FromConfig(s.cfg)
	if opts.Port != "" {
		scfg.Port = opts.Port
	}
	if opts.Baud != 0 {
		scfg.Baud = opts.Baud
	}
	if err := scfg.Validate(); err != nil {
		return err
	}
	if s.peer != nil && strings.EqualFold(s.peer.PortName(), scfg.Port) {
		return apperr.Configf("motor.Start", "Port B is the same as Port A. Port B is intended for a second device.")
	}

	ch := serial.NewChannel(models.ChannelB, scfg, s.opener)
	asm := frame.NewPatternAssembler(s.capacity)
	ch.Subscribe(func(chunk []byte) { s.handleChunk(asm, chunk) })
	ch.OnError(s.handleIOError)

	if err := ch.Open(); err != nil {
		return err
	}

	s.channel = ch
	s.running = true
	s.setStatusLocked(models.StateOpen, fmt.Sprintf("B: Connected on %s @ %d", scfg.Port, scfg.Baud), nil)
	s.status.Port = scfg.Port
	s.status.Baud = scfg.Baud
	s.publishStatusLocked()
	return nil
}

// Stop desconecta o canal
func (s *Service) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	ch := s.channel
	s.channel = nil
	s.running = false
	s.mutex.Unlock()

	if err := ch.Close(); err != nil {
		s.log.Warnf("Erro ao fechar porta: %v", err)
	}
	s.log.Infof("Desconectado após %d blocos e %d ângulos", s.chunks.Load(), s.reports.Load())

	s.updateStatus(models.StateClosed, "B: Disconnected.", nil)
}

// IsRunning verifica se o canal está conectado
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// Status retorna o status atual do canal
func (s *Service) Status() models.ChannelStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.status
}

// PortName retorna a porta aberta, ou vazio se desconectado
func (s *Service) PortName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.running {
		return ""
	}
	return s.channel.PortName()
}

// SendCommand valida e envia um comando. Valores fora de faixa são
// rejeitados antes de qualquer escrita.
func (s *Service) SendCommand(cmd Command) error {
	s.mutex.RLock()
	ch := s.channel
	running := s.running
	s.mutex.RUnlock()

	if !running {
		s.updateStatus(s.Status().State, "B: Not connected - press Connect B first.", nil)
		return apperr.Configf("motor.SendCommand", "canal B não está conectado")
	}

	payload, echo, err := cmd.Encode()
	if err != nil {
		return err
	}

	if err := ch.Write(payload); err != nil {
		if apperr.IsKind(err, apperr.Timeout) {
			s.updateStatus(models.StateOpen, "B: Write timed out.", err)
		} else {
			s.updateStatus(s.Status().State, fmt.Sprintf("B: Send failed: %v", err), err)
		}
		return err
	}

	if s.cfg.Echo {
		s.post(models.EchoEvent{Channel: models.ChannelB, Timestamp: s.now(), Line: echo})
	}
	return nil
}

// Zero envia o comando de zeragem
func (s *Service) Zero() error {
	return s.SendCommand(Command{Mode: ModeZero})
}

// handleChunk roda na goroutine de leitura do canal; asm pertence a esta
// sessão do canal
func (s *Service) handleChunk(asm *frame.PatternAssembler, chunk []byte) {
	s.chunks.Inc()
	s.post(models.TextEvent{Channel: models.ChannelB, Text: string(chunk)})

	for _, report := range asm.Push(chunk) {
		s.cell.Store(report)
		s.reports.Inc()
		s.log.Debugf("Ângulo %v", report.Angle)
		s.post(models.AngleEvent{Report: report})
	}
}

func (s *Service) handleIOError(err error) {
	s.updateStatus(models.StateErrored, "B: I/O error (device removed?).", err)
}

func (s *Service) post(event dispatch.Event) {
	if s.poster == nil {
		return
	}
	if err := s.poster.Post(models.ChannelB, event); err != nil {
		s.log.Debugf("Evento descartado: %v", err)
	}
}

func (s *Service) updateStatus(state models.ChannelState, text string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.setStatusLocked(state, text, err)
	s.publishStatusLocked()
}

func (s *Service) setStatusLocked(state models.ChannelState, text string, err error) {
	s.status.State = state
	s.status.Text = text
	s.status.Timestamp = s.now()
	if err != nil {
		s.status.LastError = err.Error()
		s.status.ErrorKind = apperr.KindOf(err).String()
		s.status.ErrorCount++
	}
	if state == models.StateClosed {
		s.status.Port = ""
		s.status.Baud = 0
	}
}

func (s *Service) publishStatusLocked() {
	s.post(models.StatusEvent{Status: s.status})
}

// Stats retorna contadores do pipeline
func (s *Service) Stats() map[string]int64 {
	return map[string]int64{
		"chunks":  s.chunks.Load(),
		"reports": s.reports.Load(),
	}
}
