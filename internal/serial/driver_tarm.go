package serial

import (
	"errors"
	"io"

	tarm "github.com/tarm/serial"
)

// tarmPort adapta github.com/tarm/serial. Nesse driver o prazo de leitura
// expirado aparece como io.EOF com zero bytes.
type tarmPort struct {
	port *tarm.Port
}

func openTarm(cfg Config) (Port, error) {
	c := &tarm.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	}
	p, err := tarm.OpenPort(c)
	if err != nil {
		return nil, err
	}
	return &tarmPort{port: p}, nil
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}
