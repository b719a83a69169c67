package plc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"telemetria_go/internal/config"
	"telemetria_go/internal/models"
	"telemetria_go/pkg/logger"
)

// blockWriter é a parte do S7Client usada pelo serviço
type blockWriter interface {
	Connect() error
	Disconnect()
	IsConnected() bool
	WriteDataBlock(dbNumber int, startOffset int, data []byte) error
	GetLastError() error
}

// PLCService espelha os últimos valores de vento e ângulo num DB do PLC.
// Os publicadores só enfileiram atualizações; a escrita acontece no ciclo
// de UpdateRate.
type PLCService struct {
	client  blockWriter
	config  config.PLCConfig
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	updates chan func(*Snapshot)
	mutex   sync.RWMutex
	running bool

	lastWritten *Snapshot
	writes      atomic.Int64
	dropped     atomic.Int64
}

// NewPLCService cria um novo serviço de PLC
func NewPLCService(cfg config.PLCConfig) *PLCService {
	return newPLCService(cfg, NewS7Client(cfg))
}

func newPLCService(cfg config.PLCConfig, client blockWriter) *PLCService {
	if cfg.UpdateRate <= 0 {
		cfg.UpdateRate = 500 * time.Millisecond
	}
	return &PLCService{
		client:  client,
		config:  cfg,
		updates: make(chan func(*Snapshot), 64),
	}
}

// Start inicia o serviço. Uma falha na primeira conexão não impede o
// início: o ciclo tenta reconectar.
func (s *PLCService) Start() error {
	if !s.config.Enabled {
		logger.Info("Serviço PLC desabilitado por configuração")
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		logger.Warnf("PLC indisponível, tentando novamente a cada ciclo: %v", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})
	go s.runUpdateLoop(s.ctx, s.done)

	s.running = true
	logger.Infof("Serviço PLC iniciado (DB%d, ciclo %v)", s.config.DBNumber, s.config.UpdateRate)
	return nil
}

// Stop para o serviço de comunicação com o PLC
func (s *PLCService) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mutex.Unlock()

	<-done
	s.client.Disconnect()
	logger.Info("Serviço PLC parado")
}

// IsRunning verifica se o serviço está em execução
func (s *PLCService) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// PublishSample implementa monitor.SamplePublisher
func (s *PLCService) PublishSample(ev models.SampleEvent) {
	s.enqueue(func(snap *Snapshot) {
		snap.Speed = ev.Sample.Speed
		snap.Direction = ev.Sample.Direction
		snap.Samples++
	})
}

// PublishAngle implementa monitor.AnglePublisher
func (s *PLCService) PublishAngle(r models.AngleReport) {
	s.enqueue(func(snap *Snapshot) {
		snap.Angle = r.Angle
		snap.AngleKnown = true
		snap.Angles++
	})
}

// PublishStatus implementa monitor.StatusPublisher
func (s *PLCService) PublishStatus(st models.ChannelStatus) {
	open := st.State == models.StateOpen
	s.enqueue(func(snap *Snapshot) {
		switch st.Channel {
		case models.ChannelA:
			snap.ChannelA = open
		case models.ChannelB:
			snap.ChannelB = open
		}
	})
}

func (s *PLCService) enqueue(update func(*Snapshot)) {
	if !s.config.Enabled || !s.IsRunning() {
		return
	}

	select {
	case s.updates <- update:
	default:
		if s.dropped.Inc()%100 == 1 {
			logger.Warn("Canal de atualizações para PLC está cheio, descartando atualização")
		}
	}
}

// runUpdateLoop mantém o snapshot e o escreve a cada ciclo se mudou
func (s *PLCService) runUpdateLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.UpdateRate)
	defer ticker.Stop()

	var snap Snapshot
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return

		case update := <-s.updates:
			update(&snap)
			dirty = true

		case <-ticker.C:
			if dirty && s.writeSnapshot(snap) {
				dirty = false
			}
		}
	}
}

func (s *PLCService) writeSnapshot(snap Snapshot) bool {
	if !s.client.IsConnected() {
		if err := s.client.Connect(); err != nil {
			logger.Debugf("Falha ao reconectar ao PLC: %v", err)
			return false
		}
	}

	if err := s.client.WriteDataBlock(s.config.DBNumber, 0, snap.Encode()); err != nil {
		logger.Error("Erro ao escrever no PLC", err)
		return false
	}

	s.mutex.Lock()
	s.lastWritten = &snap
	s.mutex.Unlock()
	s.writes.Inc()
	return true
}

// LastWritten retorna o último snapshot escrito com sucesso
func (s *PLCService) LastWritten() (Snapshot, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.lastWritten == nil {
		return Snapshot{}, false
	}
	return *s.lastWritten, true
}

// Stats retorna contadores do serviço
func (s *PLCService) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"enabled":   s.config.Enabled,
		"running":   s.IsRunning(),
		"connected": s.client.IsConnected(),
		"writes":    s.writes.Load(),
		"dropped":   s.dropped.Load(),
	}
	if err := s.client.GetLastError(); err != nil {
		stats["lastError"] = err.Error()
	}
	return stats
}

// Shutdown encerra graciosamente o serviço
func (s *PLCService) Shutdown() {
	s.Stop()
}
