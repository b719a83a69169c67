package serial

import (
	"strings"

	"telemetria_go/internal/apperr"
)

// Terminator é o final acrescentado a um envio em texto
type Terminator int

const (
	TermNone Terminator = iota
	TermLF
	TermCR
	TermCRLF
)

// ParseTerminator aceita os rótulos da interface ("None", "\n", "\r", "\r\n"
// escritos com barra invertida) e os nomes LF, CR e CRLF
func ParseTerminator(label string) (Terminator, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "none":
		return TermNone, nil
	case `\n`, "\n", "lf":
		return TermLF, nil
	case `\r`, "\r", "cr":
		return TermCR, nil
	case `\r\n`, "\r\n", "crlf":
		return TermCRLF, nil
	}
	return TermNone, apperr.Configf("serial.ParseTerminator", "terminador desconhecido %q", label)
}

// Suffix retorna os bytes do terminador
func (t Terminator) Suffix() string {
	switch t {
	case TermLF:
		return "\n"
	case TermCR:
		return "\r"
	case TermCRLF:
		return "\r\n"
	}
	return ""
}

// Label retorna o rótulo exibido no eco ("None", `\n`, `\r`, `\r\n`)
func (t Terminator) Label() string {
	switch t {
	case TermLF:
		return `\n`
	case TermCR:
		return `\r`
	case TermCRLF:
		return `\r\n`
	}
	return "None"
}

// Note retorna " (<rótulo>)" ou vazio quando não há terminador
func (t Terminator) Note() string {
	if t == TermNone {
		return ""
	}
	return " (" + t.Label() + ")"
}

func (t Terminator) String() string {
	return t.Label()
}
