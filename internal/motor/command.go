package motor

import (
	"fmt"
	"strconv"
	"strings"

	"telemetria_go/internal/apperr"
	"telemetria_go/internal/serial"
)

// Mode é a forma de envio de um comando ao motor
type Mode string

const (
	// ModeASCII envia "<prefixo><inteiro><terminador>"
	ModeASCII Mode = "ascii"
	// ModeByte envia um único byte 0..255
	ModeByte Mode = "byte"
	// ModeZero envia o comando de zeragem "Z"
	ModeZero Mode = "zero"
)

// Limites do valor em modo ASCII
const (
	MinASCIIValue = 0
	MaxASCIIValue = 65535
)

// ZeroCommand é o byte do comando de zeragem
const ZeroCommand = 'Z'

// ParseMode aceita "ascii", "byte" e "zero"
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeASCII, "":
		return ModeASCII, nil
	case ModeByte:
		return ModeByte, nil
	case ModeZero:
		return ModeZero, nil
	}
	return "", apperr.Configf("motor.ParseMode", "modo desconhecido %q", s)
}

// Command é um envio ao canal B
type Command struct {
	Mode       Mode
	Prefix     string // "A" (absoluto), "R" (relativo) ou vazio
	Value      int
	Terminator serial.Terminator
}

// Encode valida o comando e retorna os bytes e a linha de eco. Nenhum valor
// fora de faixa chega à porta.
func (c Command) Encode() ([]byte, string, error) {
	const op = "motor.Encode"

	switch c.Mode {
	case ModeZero:
		return []byte{ZeroCommand}, ">>B (zero) Z", nil

	case ModeByte:
		if c.Value < 0 || c.Value > 255 {
			return nil, "", apperr.Configf(op, "Single byte mode requires a value from 0 to 255 (got %d).", c.Value)
		}
		b := byte(c.Value)
		return []byte{b}, fmt.Sprintf(">>B (byte) 0x%02X (%d)", b, c.Value), nil

	case ModeASCII, "":
		switch c.Prefix {
		case "", "A", "R":
		default:
			return nil, "", apperr.Configf(op, "prefixo inválido %q (use A ou R)", c.Prefix)
		}
		if c.Value < MinASCIIValue || c.Value > MaxASCIIValue {
			return nil, "", apperr.Configf(op, "valor %d fora da faixa %d..%d", c.Value, MinASCIIValue, MaxASCIIValue)
		}
		text := c.Prefix + strconv.Itoa(c.Value)
		return []byte(text + c.Terminator.Suffix()), ">>B (ASCII) " + text + c.Terminator.Note(), nil
	}

	return nil, "", apperr.Configf(op, "modo desconhecido %q", c.Mode)
}
