package models

import "time"

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // "wind_sample", "angle", "line", "status", ...
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// WindSampleMessage leva uma amostra de vento aos clientes
type WindSampleMessage struct {
	WebSocketMessage
	Speed     float64  `json:"speed"`
	Direction float64  `json:"direction"`
	Angle     *float64 `json:"angle,omitempty"`
}

// AngleMessage leva um novo ângulo do motor aos clientes
type AngleMessage struct {
	WebSocketMessage
	Angle float64 `json:"angle"`
}

// LineMessage leva uma linha da visão ao vivo de um canal
type LineMessage struct {
	WebSocketMessage
	Channel ChannelID `json:"channel"`
	Line    string    `json:"line"`
}

// StatusMessage é uma mensagem específica para atualizações de status
type StatusMessage struct {
	WebSocketMessage
	Status ChannelStatus `json:"status"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string                 `json:"type"`             // "ping", "get_status", "send_a", "send_b"
	Params map[string]interface{} `json:"params,omitempty"` // Parâmetros adicionais
	ID     string                 `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando enviado pelo cliente
type ClientCommand struct {
	Command  string                 `json:"command"`
	Params   map[string]interface{} `json:"params,omitempty"`
	ClientID string                 `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping enviado pelo servidor
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
