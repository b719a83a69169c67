package frame

import (
	"regexp"
	"time"
	"unicode/utf8"

	"telemetria_go/internal/models"
	"telemetria_go/pkg/utils"
)

// anglePattern reconhece "now at <número>" com unidade opcional (°, deg, degrees)
var anglePattern = regexp.MustCompile(`(?i)now at\s*([+-]?\d+(?:\.\d+)?)\s*(?:°|deg(?:rees)?)?\b`)

// PatternAssembler procura relatos de ângulo no texto livre do canal B.
//
// Cada bloco é acrescentado ao buffer rolante e o texto inteiro é varrido de
// novo, de modo que uma ocorrência dividida entre dois blocos é encontrada
// quando a segunda parte chega. O fim da última ocorrência emitida fica
// registrado em watermark: ocorrências que terminam antes dele já foram
// emitidas, e uma que cresceu (por exemplo "now at 12" virando
// "now at 123.5") é emitida de novo com o valor completo.
//
// Uma ocorrência que atravessa o ponto de corte do buffer pode ser perdida;
// é o custo de manter a memória limitada.
type PatternAssembler struct {
	buf       *RollingBuffer
	watermark int
	carry     []byte
	now       func() time.Time
}

// NewPatternAssembler cria um montador com buffer da capacidade informada
func NewPatternAssembler(capacity int) *PatternAssembler {
	return &PatternAssembler{
		buf: NewRollingBuffer(capacity),
		now: time.Now,
	}
}

// Push processa um bloco recebido e retorna os ângulos encontrados, na ordem
// em que aparecem no texto
func (a *PatternAssembler) Push(chunk []byte) []models.AngleReport {
	text := a.decode(chunk)
	if text == "" {
		return nil
	}

	window, matches := a.buf.Scan(anglePattern, text)

	var reports []models.AngleReport
	for _, m := range matches {
		end := m[1]
		if end <= a.watermark {
			continue
		}
		a.watermark = end

		value, ok := utils.ParseInvariant(window[m[2]:m[3]])
		if !ok {
			continue
		}
		reports = append(reports, models.AngleReport{Timestamp: a.now(), Angle: value})
	}

	dropped := a.buf.Append(text)
	a.watermark -= dropped
	if a.watermark < 0 {
		a.watermark = 0
	}
	return reports
}

// decode junta bytes UTF-8 incompletos do bloco anterior e guarda os do fim
// deste bloco para o próximo
func (a *PatternAssembler) decode(chunk []byte) string {
	data := chunk
	if len(a.carry) > 0 {
		data = append(a.carry, chunk...)
		a.carry = nil
	}

	limit := len(data) - utf8.UTFMax
	if limit < 0 {
		limit = 0
	}
	for i := len(data) - 1; i >= limit; i-- {
		if !utf8.RuneStart(data[i]) {
			continue
		}
		if !utf8.FullRune(data[i:]) {
			a.carry = append([]byte(nil), data[i:]...)
			data = data[:i]
		}
		break
	}
	return string(data)
}

// Buffer expõe o buffer rolante (somente leitura)
func (a *PatternAssembler) Buffer() *RollingBuffer {
	return a.buf
}

// Reset descarta o texto acumulado
func (a *PatternAssembler) Reset() {
	a.buf.Reset()
	a.watermark = 0
	a.carry = nil
}
