package models

import "time"

// Eventos postados pelos pipelines dos canais ao consumidor

// SampleEvent é uma amostra de vento decodificada (e possivelmente gravada)
type SampleEvent struct {
	Sample     WindSample
	Angle      float64
	AngleKnown bool
	Persisted  bool
}

// MalformedEvent é uma linha do canal A fora da gramática
type MalformedEvent struct {
	Timestamp time.Time
	Raw       string
}

// AngleEvent é um ângulo encontrado no texto do canal B
type AngleEvent struct {
	Report AngleReport
}

// TextEvent é texto bruto recebido, para a visão ao vivo
type TextEvent struct {
	Channel ChannelID
	Text    string
}

// EchoEvent é o eco de um envio na visão ao vivo do canal
type EchoEvent struct {
	Channel   ChannelID
	Timestamp time.Time
	Line      string
}

// StatusEvent é uma mudança do status de um canal
type StatusEvent struct {
	Status ChannelStatus
}
