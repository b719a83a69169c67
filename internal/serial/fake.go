package serial

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// fakeClosedError imita o erro de porta fechada dos drivers reais
type fakeClosedError struct{}

func (fakeClosedError) Error() string    { return "porta fechada" }
func (fakeClosedError) PortClosed() bool { return true }

// FakePort é uma porta em memória para testes. Blocos passados a Feed são
// devolvidos por Read na mesma ordem.
type FakePort struct {
	name        string
	incoming    chan []byte
	failures    chan error
	closed      chan struct{}
	closeOnce   sync.Once
	readTimeout time.Duration

	mu         sync.Mutex
	written    bytes.Buffer
	writes     int
	writeDelay time.Duration
	writeErr   error
}

// NewFakePort cria uma porta falsa
func NewFakePort(name string) *FakePort {
	return &FakePort{
		name:        name,
		incoming:    make(chan []byte, 256),
		failures:    make(chan error, 1),
		closed:      make(chan struct{}),
		readTimeout: 20 * time.Millisecond,
	}
}

// Feed entrega um bloco à próxima leitura
func (p *FakePort) Feed(chunk []byte) {
	p.incoming <- append([]byte(nil), chunk...)
}

// FeedString entrega texto à próxima leitura
func (p *FakePort) FeedString(s string) {
	p.Feed([]byte(s))
}

// Fail faz a próxima leitura retornar err
func (p *FakePort) Fail(err error) {
	p.failures <- err
}

// SetWriteDelay atrasa cada escrita
func (p *FakePort) SetWriteDelay(d time.Duration) {
	p.mu.Lock()
	p.writeDelay = d
	p.mu.Unlock()
}

// SetWriteError faz as escritas falharem
func (p *FakePort) SetWriteError(err error) {
	p.mu.Lock()
	p.writeErr = err
	p.mu.Unlock()
}

// Written retorna tudo o que foi escrito na porta
func (p *FakePort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

// Writes retorna o número de chamadas de Write
func (p *FakePort) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// IsClosed informa se Close foi chamado
func (p *FakePort) IsClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *FakePort) Read(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, fakeClosedError{}
	case err := <-p.failures:
		return 0, err
	case chunk := <-p.incoming:
		return copy(b, chunk), nil
	case <-time.After(p.readTimeout):
		return 0, nil
	}
}

func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	delay := p.writeDelay
	werr := p.writeErr
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if p.IsClosed() {
		return 0, fakeClosedError{}
	}
	if werr != nil {
		return 0, werr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes++
	return p.written.Write(b)
}

func (p *FakePort) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// FakeDriver abre FakePorts pelo nome. Use o método Open como Opener.
type FakeDriver struct {
	mu      sync.Mutex
	ports   map[string]*FakePort
	openErr error
	opens   int
}

// NewFakeDriver cria um driver falso
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{ports: make(map[string]*FakePort)}
}

// Open implementa Opener. Cada abertura cria uma FakePort nova.
func (d *FakeDriver) Open(cfg Config) (Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		return nil, d.openErr
	}
	if cfg.Port == "" {
		return nil, errors.New("porta vazia")
	}
	p := NewFakePort(cfg.Port)
	d.ports[cfg.Port] = p
	d.opens++
	return p, nil
}

// FailOpen faz as próximas aberturas falharem
func (d *FakeDriver) FailOpen(err error) {
	d.mu.Lock()
	d.openErr = err
	d.mu.Unlock()
}

// Port retorna a última FakePort aberta com o nome informado
func (d *FakeDriver) Port(name string) *FakePort {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ports[name]
}

// Opens retorna quantas aberturas tiveram sucesso
func (d *FakeDriver) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}
