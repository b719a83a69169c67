// Package frame transforma o fluxo de bytes dos canais seriais em registros
// candidatos: linhas completas (canal A) ou ocorrências de um padrão num
// buffer rolante de texto (canal B).
package frame

import (
	"bytes"
	"strings"
)

// lineCutset são os caracteres removidos do fim de cada linha
const lineCutset = "\r\n "

// LineAssembler acumula bytes até encontrar '\n' e devolve linhas completas.
// Não é seguro para uso concorrente; pertence a um único canal.
type LineAssembler struct {
	buf []byte
}

// NewLineAssembler cria um montador de linhas vazio
func NewLineAssembler() *LineAssembler {
	return &LineAssembler{buf: make([]byte, 0, 256)}
}

// Push acrescenta um bloco recebido e retorna as linhas completadas por ele,
// sem os caracteres finais '\r', '\n' e espaço. O resto fica pendente.
func (a *LineAssembler) Push(chunk []byte) []string {
	a.buf = append(a.buf, chunk...)

	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(a.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(a.buf[start:start+i]), lineCutset)
		lines = append(lines, line)
		start += i + 1
	}

	if start > 0 {
		n := copy(a.buf, a.buf[start:])
		a.buf = a.buf[:n]
	}
	return lines
}

// Pending retorna quantos bytes aguardam um terminador
func (a *LineAssembler) Pending() int {
	return len(a.buf)
}

// Reset descarta a linha parcial
func (a *LineAssembler) Reset() {
	a.buf = a.buf[:0]
}
