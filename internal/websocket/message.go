package websocket

import (
	"encoding/json"
	"time"

	"telemetria_go/internal/models"
	"telemetria_go/pkg/utils"
)

// Tipos de mensagem enviados aos clientes
const (
	TypeWindSample    = "wind_sample"
	TypeAngle         = "angle"
	TypeLine          = "line"
	TypeStatus        = "status"
	TypeWelcome       = "welcome"
	TypePing          = "ping"
	TypePong          = "pong"
	TypeError         = "error"
	TypeCommandResult = "command_result"
)

// NewWindSampleMessage cria uma mensagem de amostra de vento
func NewWindSampleMessage(ev models.SampleEvent) *models.WindSampleMessage {
	msg := &models.WindSampleMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      TypeWindSample,
			Timestamp: ev.Sample.Timestamp,
		},
		Speed:     ev.Sample.Speed,
		Direction: ev.Sample.Direction,
	}
	if ev.AngleKnown {
		a := ev.Angle
		msg.Angle = &a
	}
	return msg
}

// NewAngleMessage cria uma mensagem de ângulo do motor
func NewAngleMessage(r models.AngleReport) *models.AngleMessage {
	return &models.AngleMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      TypeAngle,
			Timestamp: r.Timestamp,
		},
		Angle: r.Angle,
	}
}

// NewLineMessage cria uma mensagem com uma linha da visão ao vivo
func NewLineMessage(channel models.ChannelID, line string) *models.LineMessage {
	return &models.LineMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      TypeLine,
			Timestamp: time.Now(),
		},
		Channel: channel,
		Line:    line,
	}
}

// NewStatusMessage cria uma nova mensagem de status
func NewStatusMessage(status models.ChannelStatus) *models.StatusMessage {
	return &models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      TypeStatus,
			Timestamp: time.Now(),
		},
		Status: status,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      TypeError,
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}

// CreatePongResponse cria uma resposta para um ping do cliente
func CreatePongResponse(pingTime int64) *models.PongMessage {
	return &models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      TypePong,
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: utils.UnixMillis(time.Now()),
	}
}
