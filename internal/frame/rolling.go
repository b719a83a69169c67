package frame

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultCapacity é a capacidade padrão do buffer rolante, em caracteres
const DefaultCapacity = 2048

// RollingBuffer é um acumulador de texto com capacidade fixa em caracteres.
// Ao estourar a capacidade mantém a cauda e descarta o início.
type RollingBuffer struct {
	capacity int
	text     string
}

// NewRollingBuffer cria um buffer com a capacidade informada
func NewRollingBuffer(capacity int) *RollingBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RollingBuffer{capacity: capacity}
}

// Window retorna o conteúdo atual seguido de chunk, com "\r\n" normalizado
// para "\n". Não altera o buffer.
func (b *RollingBuffer) Window(chunk string) string {
	joined := b.text + chunk
	if strings.Contains(joined, "\r\n") {
		joined = strings.ReplaceAll(joined, "\r\n", "\n")
	}
	return joined
}

// Append acrescenta chunk (normalizado) e corta o buffer para a capacidade.
// Retorna quantos bytes de Window(chunk) foram descartados do início.
func (b *RollingBuffer) Append(chunk string) int {
	b.text = b.Window(chunk)
	return b.TrimToLast(b.capacity)
}

// TrimToLast mantém apenas os últimos n caracteres e retorna o número de
// bytes descartados
func (b *RollingBuffer) TrimToLast(n int) int {
	if n < 0 {
		n = 0
	}
	i := len(b.text)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(b.text[:i])
		i -= size
	}
	if i == 0 {
		return 0
	}
	b.text = b.text[i:]
	return i
}

// Scan procura todas as ocorrências não sobrepostas de re em Window(pending),
// antes de qualquer corte. Retorna o texto varrido e os índices no formato de
// FindAllStringSubmatchIndex. Não altera o buffer.
func (b *RollingBuffer) Scan(re *regexp.Regexp, pending string) (string, [][]int) {
	window := b.Window(pending)
	return window, re.FindAllStringSubmatchIndex(window, -1)
}

// Len retorna o tamanho atual em caracteres
func (b *RollingBuffer) Len() int {
	return utf8.RuneCountInString(b.text)
}

// Capacity retorna a capacidade em caracteres
func (b *RollingBuffer) Capacity() int {
	return b.capacity
}

// String retorna o conteúdo atual
func (b *RollingBuffer) String() string {
	return b.text
}

// Reset esvazia o buffer
func (b *RollingBuffer) Reset() {
	b.text = ""
}
