package serial

import (
	"errors"

	bugst "go.bug.st/serial"
)

// bugstPort adapta go.bug.st/serial ao contrato de Port
type bugstPort struct {
	port bugst.Port
}

func openBugst(cfg Config) (Port, error) {
	mode := &bugst.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(cfg.Port, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return &bugstPort{port: p}, nil
}

func (p *bugstPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	return n, wrapBugstError(err)
}

func (p *bugstPort) Write(b []byte) (int, error) {
	n, err := p.port.Write(b)
	return n, wrapBugstError(err)
}

func (p *bugstPort) Close() error {
	return p.port.Close()
}

// closedPortError marca um erro de porta fechada do driver
type closedPortError struct {
	err error
}

func (e *closedPortError) Error() string    { return e.err.Error() }
func (e *closedPortError) Unwrap() error    { return e.err }
func (e *closedPortError) PortClosed() bool { return true }

func wrapBugstError(err error) error {
	if err == nil {
		return nil
	}
	var pe *bugst.PortError
	if errors.As(err, &pe) && pe.Code() == bugst.PortClosed {
		return &closedPortError{err: err}
	}
	return err
}
