package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/atomic"

	"telemetria_go/internal/config"
	"telemetria_go/internal/models"
	"telemetria_go/pkg/logger"
	"telemetria_go/pkg/utils"
)

const (
	queueSize         = 256
	reconnectInterval = 10 * time.Second
)

// Service gerencia a conexão e operações com o Redis.
// Amostras, ângulos e status são espelhados com os últimos valores em
// chaves simples e o histórico em ZSETs ordenados pelo timestamp.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex

	// Fila de escritas assíncronas (publicadores do monitor)
	queue   chan func() error
	wg      sync.WaitGroup
	dropped atomic.Int64
	written atomic.Int64
}

// historyEntry é o membro do ZSET de histórico do vento. O timestamp faz
// parte do membro para que leituras repetidas não colapsem.
type historyEntry struct {
	Time      int64    `json:"t"`
	Speed     float64  `json:"ws"`
	Direction float64  `json:"wd"`
	Angle     *float64 `json:"angle,omitempty"`
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "telemetria"
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 1000
	}

	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{config: cfg, prefix: cfg.Prefix}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: cfg.Prefix,
		config: cfg,
	}

	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
	}

	if cfg.Async {
		service.queue = make(chan func() error, queueSize)
		service.wg.Add(1)
		go service.runWorker()
	}

	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.setConnected(true)
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

func (s *Service) setConnected(connected bool) {
	s.mutex.Lock()
	s.connected = connected
	s.mutex.Unlock()
}

func (s *Service) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// WriteSample grava a amostra de vento e o ângulo vigente
func (s *Service) WriteSample(ev models.SampleEvent) error {
	if !s.IsConnected() {
		return nil
	}

	ts := utils.UnixMillis(ev.Sample.Timestamp)
	member, err := encodeHistoryEntry(ev)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("wind", "speed"), ev.Sample.Speed, 0)
	pipe.Set(s.ctx, s.key("wind", "direction"), ev.Sample.Direction, 0)
	pipe.Set(s.ctx, s.key("wind", "timestamp"), ts, 0)

	histKey := s.key("wind", "history")
	pipe.ZAdd(s.ctx, histKey, &redis.Z{Score: float64(ts), Member: member})
	pipe.ZRemRangeByRank(s.ctx, histKey, 0, int64(-(s.config.HistorySize + 1)))

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao escrever amostra no Redis: %w", err)
	}
	s.written.Inc()
	return nil
}

// WriteAngle grava o último ângulo do motor
func (s *Service) WriteAngle(r models.AngleReport) error {
	if !s.IsConnected() {
		return nil
	}

	ts := utils.UnixMillis(r.Timestamp)

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("motor", "angle"), r.Angle, 0)
	pipe.Set(s.ctx, s.key("motor", "timestamp"), ts, 0)

	histKey := s.key("motor", "history")
	pipe.ZAdd(s.ctx, histKey, &redis.Z{
		Score:  float64(ts),
		Member: fmt.Sprintf("%d:%s", ts, utils.FormatInvariant(r.Angle)),
	})
	pipe.ZRemRangeByRank(s.ctx, histKey, 0, int64(-(s.config.HistorySize + 1)))

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao escrever ângulo no Redis: %w", err)
	}
	s.written.Inc()
	return nil
}

// WriteStatus grava o status de um canal
func (s *Service) WriteStatus(status models.ChannelStatus) error {
	if !s.IsConnected() {
		return nil
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("erro ao codificar status: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("status", string(status.Channel)), string(data), 0)
	if status.LastError != "" {
		pipe.Set(s.ctx, s.key("status", string(status.Channel), "ultimo_erro"), status.LastError, 0)
	}
	if status.ErrorCount > 0 {
		pipe.Set(s.ctx, s.key("status", string(status.Channel), "erros"), status.ErrorCount, 0)
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao escrever status no Redis: %w", err)
	}
	return nil
}

// GetStatus obtém o status gravado de um canal
func (s *Service) GetStatus(channel models.ChannelID) (*models.ChannelStatus, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	raw, err := s.client.Get(s.ctx, s.key("status", string(channel))).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter status: %w", err)
	}

	var status models.ChannelStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("status inválido no Redis: %w", err)
	}
	return &status, nil
}

// GetCurrent obtém os últimos valores gravados
func (s *Service) GetCurrent() (*models.CurrentValues, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	current := &models.CurrentValues{}

	speedCmd := s.client.Get(s.ctx, s.key("wind", "speed"))
	dirCmd := s.client.Get(s.ctx, s.key("wind", "direction"))
	tsCmd := s.client.Get(s.ctx, s.key("wind", "timestamp"))
	if speedCmd.Err() == nil && dirCmd.Err() == nil {
		speed, err1 := speedCmd.Float64()
		dir, err2 := dirCmd.Float64()
		if err1 == nil && err2 == nil {
			sample := &models.WindSample{Speed: speed, Direction: dir}
			if ms, err := tsCmd.Int64(); err == nil {
				sample.Timestamp = utils.FromUnixMillis(ms)
			}
			current.Sample = sample
		}
	} else if speedCmd.Err() != nil && speedCmd.Err() != redis.Nil {
		return nil, fmt.Errorf("erro ao obter velocidade: %w", speedCmd.Err())
	}

	angleCmd := s.client.Get(s.ctx, s.key("motor", "angle"))
	if angleCmd.Err() == nil {
		if v, err := angleCmd.Float64(); err == nil {
			current.Angle = &v
			current.AngleKnown = true
		}
	}

	return current, nil
}

// GetWindHistory obtém as últimas limit amostras, da mais antiga para a mais nova
func (s *Service) GetWindHistory(limit int) ([]models.WindSample, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	if limit <= 0 || limit > s.config.HistorySize {
		limit = s.config.HistorySize
	}

	members, err := s.client.ZRange(s.ctx, s.key("wind", "history"), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter histórico: %w", err)
	}

	samples := make([]models.WindSample, 0, len(members))
	for _, m := range members {
		sample, err := decodeHistoryEntry(m)
		if err != nil {
			logger.Debugf("Entrada de histórico ignorada: %v", err)
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func encodeHistoryEntry(ev models.SampleEvent) (string, error) {
	entry := historyEntry{
		Time:      utils.UnixMillis(ev.Sample.Timestamp),
		Speed:     ev.Sample.Speed,
		Direction: ev.Sample.Direction,
	}
	if ev.AngleKnown {
		a := ev.Angle
		entry.Angle = &a
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("erro ao codificar histórico: %w", err)
	}
	return string(data), nil
}

func decodeHistoryEntry(member string) (models.WindSample, error) {
	var entry historyEntry
	if err := json.Unmarshal([]byte(member), &entry); err != nil {
		return models.WindSample{}, err
	}
	return models.WindSample{
		Timestamp: utils.FromUnixMillis(entry.Time),
		Speed:     entry.Speed,
		Direction: entry.Direction,
	}, nil
}

// PublishSample implementa monitor.SamplePublisher
func (s *Service) PublishSample(ev models.SampleEvent) {
	s.submit(func() error { return s.WriteSample(ev) })
}

// PublishAngle implementa monitor.AnglePublisher
func (s *Service) PublishAngle(r models.AngleReport) {
	s.submit(func() error { return s.WriteAngle(r) })
}

// PublishStatus implementa monitor.StatusPublisher
func (s *Service) PublishStatus(st models.ChannelStatus) {
	s.submit(func() error { return s.WriteStatus(st) })
}

// submit nunca bloqueia o consumidor: com a fila cheia a escrita é descartada
func (s *Service) submit(write func() error) {
	if !s.config.Enabled {
		return
	}
	if s.queue == nil {
		if err := write(); err != nil {
			logger.Error("Erro ao escrever no Redis", err)
		}
		return
	}

	select {
	case s.queue <- write:
	default:
		if s.dropped.Inc()%100 == 1 {
			logger.Warnf("Fila do Redis cheia, escritas descartadas: %d", s.dropped.Load())
		}
	}
}

func (s *Service) runWorker() {
	defer s.wg.Done()

	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case write := <-s.queue:
			if err := write(); err != nil {
				logger.Error("Erro ao escrever no Redis", err)
			}
		case <-ticker.C:
			if !s.IsConnected() {
				if err := s.TestConnection(); err != nil {
					logger.Debugf("Redis ainda indisponível: %v", err)
				}
			}
		}
	}
}

// Stats retorna contadores do serviço
func (s *Service) Stats() map[string]interface{} {
	return map[string]interface{}{
		"enabled":   s.config.Enabled,
		"connected": s.IsConnected(),
		"written":   s.written.Load(),
		"dropped":   s.dropped.Load(),
	}
}

// Shutdown encerra o serviço Redis
func (s *Service) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Error("Erro ao fechar conexão com o Redis", err)
		}
	}
	s.setConnected(false)
	logger.Info("Serviço Redis encerrado")
}
