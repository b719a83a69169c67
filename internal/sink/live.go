package sink

import "strings"

// LiveTextBuffer guarda as últimas linhas exibidas de um canal e a linha
// ainda incompleta
type LiveTextBuffer struct {
	lines        *Ring[string]
	partial      strings.Builder
	maxLineChars int
}

// NewLiveTextBuffer cria um buffer de capLines linhas. Linhas parciais com
// mais de maxLineChars caracteres são fechadas à força.
func NewLiveTextBuffer(capLines, maxLineChars int) *LiveTextBuffer {
	if maxLineChars <= 0 {
		maxLineChars = 4096
	}
	return &LiveTextBuffer{
		lines:        NewRing[string](capLines),
		maxLineChars: maxLineChars,
	}
}

// AppendLine acrescenta uma linha completa
func (b *LiveTextBuffer) AppendLine(line string) {
	b.flushPartial()
	b.lines.Push(line)
}

// AppendText acrescenta texto livre, quebrando em '\n'. O trecho após o
// último '\n' fica como linha parcial. Retorna as linhas completadas.
func (b *LiveTextBuffer) AppendText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var done []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		b.partial.WriteString(strings.TrimRight(text[:i], "\r"))
		done = append(done, b.takePartial())
		text = text[i+1:]
	}
	b.partial.WriteString(text)

	if len([]rune(b.partial.String())) > b.maxLineChars {
		done = append(done, b.takePartial())
	}
	return done
}

func (b *LiveTextBuffer) takePartial() string {
	line := b.partial.String()
	b.partial.Reset()
	b.lines.Push(line)
	return line
}

func (b *LiveTextBuffer) flushPartial() {
	if b.partial.Len() > 0 {
		b.takePartial()
	}
}

// Lines retorna as linhas retidas e, se houver, a linha parcial no fim
func (b *LiveTextBuffer) Lines() []string {
	out := b.lines.Snapshot()
	if b.partial.Len() > 0 {
		out = append(out, b.partial.String())
	}
	return out
}

// Len retorna o número de linhas completas retidas
func (b *LiveTextBuffer) Len() int {
	return b.lines.Len()
}

// Clear apaga a visão
func (b *LiveTextBuffer) Clear() {
	b.lines.Clear()
	b.partial.Reset()
}
