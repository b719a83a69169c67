package serial

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"telemetria_go/internal/apperr"
	"telemetria_go/internal/models"
	"telemetria_go/pkg/logger"
)

// readBufferSize é o tamanho máximo de cada bloco entregue ao assinante
const readBufferSize = 4096

// Erros retornados por operações em canais fechados
var (
	ErrNotOpen      = errors.New("porta não está aberta")
	ErrWriteTimeout = errors.New("tempo de escrita esgotado")
)

// State é o estado do canal
type State int

const (
	StateClosed State = iota
	StateOpen
	StateErrored
)

func (s State) String() string {
	return string(s.Model())
}

// Model converte para o tipo exposto na API
func (s State) Model() models.ChannelState {
	switch s {
	case StateOpen:
		return models.StateOpen
	case StateErrored:
		return models.StateErrored
	}
	return models.StateClosed
}

// DataHandler recebe cada bloco lido. É chamado na goroutine de leitura do
// canal; o bloco pertence ao handler.
type DataHandler func(chunk []byte)

// ErrorHandler recebe falhas de I/O do canal (já categorizadas)
type ErrorHandler func(err error)

// Channel é uma conexão serial duplex com uma goroutine de leitura
type Channel struct {
	id     models.ChannelID
	cfg    Config
	opener Opener
	log    *logger.Scoped

	mu      sync.RWMutex
	state   State
	port    Port
	handler DataHandler
	onError ErrorHandler
	lastErr error
	done    chan struct{}
	closing atomic.Bool

	writeMu sync.Mutex

	bytesIn  atomic.Int64
	bytesOut atomic.Int64
}

// NewChannel cria um canal fechado. opener nil usa o driver de cfg.Driver.
func NewChannel(id models.ChannelID, cfg Config, opener Opener) *Channel {
	cfg = cfg.withDefaults()
	if opener == nil {
		opener = DriverOpener
	}
	return &Channel{
		id:     id,
		cfg:    cfg,
		opener: opener,
		log:    logger.WithPrefix(string(id)),
	}
}

// ID retorna o identificador do canal
func (c *Channel) ID() models.ChannelID { return c.id }

// PortName retorna a porta configurada
func (c *Channel) PortName() string { return c.cfg.Port }

// State retorna o estado atual
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError retorna a última falha de I/O, se houver
func (c *Channel) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Subscribe registra o handler de dados, substituindo o anterior
func (c *Channel) Subscribe(h DataHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Unsubscribe remove o handler de dados. Blocos lidos depois disso são descartados.
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	c.handler = nil
	c.mu.Unlock()
}

// OnError registra o handler de falhas
func (c *Channel) OnError(h ErrorHandler) {
	c.mu.Lock()
	c.onError = h
	c.mu.Unlock()
}

// Open abre a porta e inicia a leitura. Configuração inválida é rejeitada
// antes de qualquer I/O; em falha do driver o canal continua fechado.
func (c *Channel) Open() error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.releaseStale()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateOpen {
		return nil
	}

	port, err := c.opener(c.cfg)
	if err != nil {
		c.state = StateClosed
		return apperr.New(apperr.IOFailure, "serial.Open", fmt.Errorf("%s: %w", c.cfg.Port, err))
	}

	c.port = port
	c.state = StateOpen
	c.lastErr = nil
	c.closing.Store(false)
	c.done = make(chan struct{})

	go c.readLoop(port, c.done)

	c.log.Infof("Porta %s aberta", c.cfg)
	return nil
}

// releaseStale fecha a porta deixada por uma falha anterior e espera a
// goroutine de leitura dela terminar. Roda fora de c.mu: a leitura antiga
// pode estar no callback de erro.
func (c *Channel) releaseStale() {
	c.mu.Lock()
	if c.state == StateOpen || c.port == nil {
		c.mu.Unlock()
		return
	}
	port := c.port
	done := c.done
	c.port = nil
	c.closing.Store(true)
	c.mu.Unlock()

	if err := port.Close(); err != nil {
		c.log.Debugf("Fechando porta anterior de %s: %v", c.cfg.Port, err)
	}
	if done != nil {
		wait := c.cfg.ReadTimeout + time.Second
		select {
		case <-done:
		case <-time.After(wait):
			c.log.Warnf("Leitura anterior em %s não terminou em %v", c.cfg.Port, wait)
		}
	}
}

// readLoop é o contexto de trabalho do canal: lê com prazo e entrega blocos
func (c *Channel) readLoop(port Port, done chan struct{}) {
	defer close(done)

	buf := make([]byte, readBufferSize)
	for {
		if c.closing.Load() {
			return
		}

		n, err := port.Read(buf)
		if n > 0 {
			c.bytesIn.Add(int64(n))
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.deliver(chunk)
		}
		if err == nil {
			continue
		}

		classified := apperr.Classify("serial.Read", err)
		switch apperr.KindOf(classified) {
		case apperr.Timeout:
			continue
		case apperr.ClosedHandle:
			return
		}

		c.mu.Lock()
		if c.closing.Load() || c.port != port {
			c.mu.Unlock()
			return
		}
		c.state = StateErrored
		c.lastErr = classified
		onError := c.onError
		c.mu.Unlock()

		c.log.Errorf("Falha de leitura em %s: %v", c.cfg.Port, err)
		if onError != nil {
			onError(classified)
		}
		return
	}
}

// deliver chama o handler protegendo a goroutine de leitura de pânicos
func (c *Channel) deliver(chunk []byte) {
	c.mu.RLock()
	h := c.handler
	onError := c.onError
	c.mu.RUnlock()

	if h == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err := apperr.New(apperr.IOFailure, "serial.handler", fmt.Errorf("pânico no processamento: %v", r))
			c.log.Errorf("%v", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
	h(chunk)
}

// Write envia b inteiro. A escrita é limitada pelo prazo de escrita; escritas
// concorrentes são serializadas.
func (c *Channel) Write(b []byte) error {
	const op = "serial.Write"

	c.mu.RLock()
	port := c.port
	state := c.state
	c.mu.RUnlock()

	if port == nil || state != StateOpen {
		return apperr.New(apperr.ClosedHandle, op, ErrNotOpen)
	}

	result := make(chan error, 1)
	go func() {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_, err := port.Write(b)
		result <- err
	}()

	timer := time.NewTimer(c.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil {
			return apperr.Classify(op, err)
		}
		c.bytesOut.Add(int64(len(b)))
		return nil
	case <-timer.C:
		return apperr.New(apperr.Timeout, op, ErrWriteTimeout)
	}
}

// Close cancela a assinatura, libera a porta e espera a goroutine de leitura.
// Um bloco em processamento termina antes do retorno. Chamadas repetidas não
// fazem nada.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.handler = nil
	c.onError = nil
	port := c.port
	done := c.done
	c.port = nil
	c.state = StateClosed
	if port == nil {
		c.mu.Unlock()
		return nil
	}
	c.closing.Store(true)
	c.mu.Unlock()

	err := port.Close()

	wait := c.cfg.ReadTimeout + time.Second
	select {
	case <-done:
	case <-time.After(wait):
		c.log.Warnf("Leitura em %s não terminou em %v após fechar a porta", c.cfg.Port, wait)
	}

	c.log.Infof("Porta %s fechada", c.cfg.Port)

	if err != nil && !apperr.IsKind(apperr.Classify("serial.Close", err), apperr.ClosedHandle) {
		return apperr.Classify("serial.Close", err)
	}
	return nil
}

// Stats retorna contadores de bytes
func (c *Channel) Stats() (in, out int64) {
	return c.bytesIn.Load(), c.bytesOut.Load()
}
