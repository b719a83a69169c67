// Package serial mantém uma conexão serial aberta, entrega os bytes recebidos
// a um assinante a partir de uma goroutine de leitura e serializa escritas.
package serial

import (
	"fmt"
	"io"
	"time"

	"telemetria_go/internal/apperr"
	"telemetria_go/internal/config"
)

// Timeouts padrão de leitura e escrita
const (
	DefaultReadTimeout  = 1000 * time.Millisecond
	DefaultWriteTimeout = 1000 * time.Millisecond
)

// Port é o mínimo que um driver serial precisa oferecer.
// Read deve retornar (0, nil) ou um erro com Timeout() quando o prazo de
// leitura expira, e um erro com PortClosed() depois de Close.
type Port interface {
	io.ReadWriteCloser
}

// Config é a configuração de um canal: 8 bits de dados, sem paridade, 1 stop bit
type Config struct {
	Port         string
	Baud         int
	Driver       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Opener abre uma porta com a configuração informada
type Opener func(cfg Config) (Port, error)

// FromConfig converte a seção de configuração de um canal
func FromConfig(c config.SerialConfig) Config {
	return Config{
		Port:         c.Port,
		Baud:         c.Baud,
		Driver:       c.Driver,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

// Validate rejeita configurações inválidas antes de qualquer I/O
func (c Config) Validate() error {
	const op = "serial.Open"
	if c.Port == "" {
		return apperr.Configf(op, "nenhuma porta selecionada")
	}
	if !config.IsSupportedBaud(c.Baud) {
		return apperr.Configf(op, "baud %d não suportado", c.Baud)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Driver == "" {
		c.Driver = DriverBugst
	}
	return c
}

// Nomes dos drivers disponíveis
const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

// OpenerFor retorna o Opener do driver pelo nome
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case "", DriverBugst:
		return openBugst, nil
	case DriverTarm:
		return openTarm, nil
	}
	return nil, apperr.Configf("serial.OpenerFor", "driver desconhecido %q", driver)
}

// DriverOpener escolhe o driver pelo campo Driver da configuração
func DriverOpener(cfg Config) (Port, error) {
	open, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return open(cfg)
}

func (c Config) String() string {
	return fmt.Sprintf("%s @ %d (8-N-1, %s)", c.Port, c.Baud, c.Driver)
}
