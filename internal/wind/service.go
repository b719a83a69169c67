// Package wind é o pipeline do canal A: lê linhas ",<vel>,<dir>" do
// anemômetro, grava cada amostra no CSV junto com o último ângulo do motor e
// publica os eventos para o consumidor.
package wind

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"telemetria_go/internal/angle"
	"telemetria_go/internal/apperr"
	"telemetria_go/internal/config"
	"telemetria_go/internal/dispatch"
	"telemetria_go/internal/frame"
	"telemetria_go/internal/models"
	"telemetria_go/internal/recorder"
	"telemetria_go/internal/serial"
	"telemetria_go/pkg/logger"
)

// Poster entrega eventos ao consumidor
type Poster interface {
	Post(channel models.ChannelID, event dispatch.Event) error
}

// StartOptions sobrescreve a configuração do canal numa partida
type StartOptions struct {
	Port    string `json:"port"`
	Baud    int    `json:"baud"`
	CSVPath string `json:"csvPath"`
}

// Service gerencia o canal A
type Service struct {
	cfg      config.SerialConfig
	recCfg   config.RecorderConfig
	cell     *angle.Cell
	poster   Poster
	opener   serial.Opener
	log      *logger.Scoped
	now      func() time.Time
	mutex    sync.RWMutex
	running  bool
	channel  *serial.Channel
	recorder *recorder.Recorder
	status   models.ChannelStatus

	lines     atomic.Int64
	samples   atomic.Int64
	malformed atomic.Int64
	writeErrs atomic.Int64
}

// NewService cria o serviço do canal A. opener nil usa o driver configurado.
func NewService(cfg config.SerialConfig, recCfg config.RecorderConfig, cell *angle.Cell, poster Poster, opener serial.Opener) *Service {
	return &Service{
		cfg:    cfg,
		recCfg: recCfg,
		cell:   cell,
		poster: poster,
		opener: opener,
		log:    logger.WithPrefix(string(models.ChannelA)),
		now:    time.Now,
		status: models.ChannelStatus{
			Channel:   models.ChannelA,
			State:     models.StateClosed,
			Text:      "A: Stopped.",
			Timestamp: time.Now(),
		},
	}
}

// Start abre o CSV e a porta e começa a registrar
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

	path := opts.CSVPath
	if path == "" {
		path = s.recCfg.Path
	}
	if path == "" {
		path = recorder.DefaultPath(s.recCfg.Dir, s.recCfg.Prefix, s.now())
	}

	rec, err := recorder.Open(path, recorder.Options{Fsync: s.recCfg.Fsync})
	if err != nil {
		return err
	}

	ch := serial.NewChannel(models.ChannelA, scfg, s.opener)
	asm := frame.NewLineAssembler()
	ch.Subscribe(func(chunk []byte) { s.handleChunk(asm, rec, chunk) })
	ch.OnError(s.handleIOError)

	if err := ch.Open(); err != nil {
		rec.Close()
		return err
	}

	s.channel = ch
	s.recorder = rec
	s.running = true
	s.setStatusLocked(models.StateOpen,
		fmt.Sprintf("A: Logging on %s @ %d → %s", scfg.Port, scfg.Baud, path), nil)
	s.status.Port = scfg.Port
	s.status.Baud = scfg.Baud
	s.status.CSVPath = path
	s.publishStatusLocked()

	s.log.Infof("Registrando em %s", rec)
	return nil
}

// Stop fecha a porta (cancelando a assinatura antes) e depois o CSV
func (s *Service) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	ch, rec := s.channel, s.recorder
	s.channel = nil
	s.recorder = nil
	s.running = false
	s.mutex.Unlock()

	// Fora do lock: um bloco em processamento pode precisar atualizar o status
	if err := ch.Close(); err != nil {
		s.log.Warnf("Erro ao fechar porta: %v", err)
	}
	if err := rec.Close(); err != nil {
		s.log.Warnf("Erro ao fechar CSV: %v", err)
	}
	s.log.Infof("Parado após %d amostras (%d linhas inválidas)", s.samples.Load(), s.malformed.Load())

	s.updateStatus(models.StateClosed, "A: Stopped.", nil)
}

// IsRunning verifica se o canal está registrando
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

// PortName retorna a porta aberta, ou vazio se parado
func (s *Service) PortName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.running {
		return ""
	}
	return s.channel.PortName()
}

// Send escreve texto seguido do terminador. Texto vazio não envia nada.
func (s *Service) Send(text string, term serial.Terminator) error {
	s.mutex.RLock()
	ch := s.channel
	running := s.running
	s.mutex.RUnlock()

	if !running {
		s.updateStatus(s.Status().State, "A: Not connected - press Start first.", nil)
		return apperr.Configf("wind.Send", "canal A não está conectado")
	}
	if text == "" {
		return nil
	}

	if err := ch.Write([]byte(text + term.Suffix())); err != nil {
		if apperr.IsKind(err, apperr.Timeout) {
			s.updateStatus(models.StateOpen, "A: Write timed out.", err)
		} else {
			s.updateStatus(s.Status().State, fmt.Sprintf("A: Send failed: %v", err), err)
		}
		return err
	}

	if s.cfg.Echo {
		now := s.now()
		s.post(models.EchoEvent{
			Channel:   models.ChannelA,
			Timestamp: now,
			Line:      fmt.Sprintf(">>A %s%s", text, term.Note()),
		})
	}
	return nil
}

// handleChunk roda na goroutine de leitura do canal. asm e rec pertencem a
// esta sessão do canal.
func (s *Service) handleChunk(asm *frame.LineAssembler, rec *recorder.Recorder, chunk []byte) {
	for _, line := range asm.Push(chunk) {
		s.lines.Inc()
		now := s.now()

		sample, err := ParseLine(line, now)
		if err != nil {
			s.malformed.Inc()
			s.log.Debugf("Linha ignorada: %v", err)
			s.post(models.MalformedEvent{Timestamp: now, Raw: line})
			continue
		}

		value, known := s.cell.Load()
		persisted := true
		if err := rec.Record(sample, value, known); err != nil {
			persisted = false
			if !apperr.IsKind(err, apperr.ClosedHandle) {
				s.writeErrs.Inc()
				s.log.Errorf("Falha ao gravar CSV: %v", err)
				s.updateStatus(models.StateOpen, fmt.Sprintf("A: Log write failed: %v", errors.Unwrap(err)), err)
			}
		}

		s.samples.Inc()
		s.post(models.SampleEvent{Sample: sample, Angle: value, AngleKnown: known, Persisted: persisted})
	}
}

// handleIOError é chamado pelo canal quando a porta falha
func (s *Service) handleIOError(err error) {
	s.updateStatus(models.StateErrored, "A: I/O error (device removed?).", err)
}

func (s *Service) post(event dispatch.Event) {
	if s.poster == nil {
		return
	}
	if err := s.poster.Post(models.ChannelA, event); err != nil {
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
		s.status.CSVPath = ""
	}
}

func (s *Service) publishStatusLocked() {
	s.post(models.StatusEvent{Status: s.status})
}

// Stats retorna contadores do pipeline
func (s *Service) Stats() map[string]int64 {
	return map[string]int64{
		"lines":       s.lines.Load(),
		"samples":     s.samples.Load(),
		"malformed":   s.malformed.Load(),
		"writeErrors": s.writeErrs.Load(),
	}
}
