package wind

import (
	"fmt"
	"regexp"
	"time"

	"telemetria_go/internal/apperr"
	"telemetria_go/internal/models"
	"telemetria_go/pkg/utils"
)

// windLine é a gramática do canal A: ",<velocidade>,<direção>" com espaços
// opcionais entre os campos
var windLine = regexp.MustCompile(`^\s*,\s*([+-]?\d+(?:\.\d+)?)\s*,\s*([+-]?\d+(?:\.\d+)?)\s*$`)

// ParseLine decodifica uma linha já sem terminador. Linhas fora da gramática
// retornam um erro MalformedFrame.
func ParseLine(line string, ts time.Time) (models.WindSample, error) {
	m := windLine.FindStringSubmatch(line)
	if m == nil {
		return models.WindSample{}, apperr.New(apperr.MalformedFrame, "wind.ParseLine",
			fmt.Errorf("linha fora do formato ,<vel>,<dir>: %q", line))
	}

	speed, ok := utils.ParseInvariant(m[1])
	if !ok {
		return models.WindSample{}, apperr.New(apperr.MalformedFrame, "wind.ParseLine",
			fmt.Errorf("velocidade inválida: %q", m[1]))
	}
	direction, ok := utils.ParseInvariant(m[2])
	if !ok {
		return models.WindSample{}, apperr.New(apperr.MalformedFrame, "wind.ParseLine",
			fmt.Errorf("direção inválida: %q", m[2]))
	}

	return models.WindSample{Timestamp: ts, Speed: speed, Direction: direction}, nil
}
