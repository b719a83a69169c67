package models

import "time"

// ChannelID identifica um dos dois canais seriais
type ChannelID string

const (
	// ChannelA é o canal do anemômetro (linhas ",<vel>,<dir>")
	ChannelA ChannelID = "A"
	// ChannelB é o canal do motor (texto livre com "now at <ângulo>")
	ChannelB ChannelID = "B"
)

// WindSample é um registro de vento decodificado do canal A
type WindSample struct {
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Direction float64   `json:"direction"`
}

// AngleReport é um ângulo extraído do texto livre do canal B
type AngleReport struct {
	Timestamp time.Time `json:"timestamp"`
	Angle     float64   `json:"angle"`
}

// ChannelState representa o estado de um canal serial
type ChannelState string

const (
	StateClosed  ChannelState = "closed"
	StateOpen    ChannelState = "open"
	StateErrored ChannelState = "errored"
)

// ChannelStatus é o retrato de um canal para a interface
type ChannelStatus struct {
	Channel    ChannelID    `json:"channel"`
	State      ChannelState `json:"state"`
	Port       string       `json:"port,omitempty"`
	Baud       int          `json:"baud,omitempty"`
	Text       string       `json:"text"`
	LastError  string       `json:"lastError,omitempty"`
	ErrorKind  string       `json:"errorKind,omitempty"`
	ErrorCount int          `json:"errorCount,omitempty"`
	CSVPath    string       `json:"csvPath,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// HistoryPoint representa um ponto de uma série do gráfico
type HistoryPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ChartWindow é a janela visível de uma série (ponto mais antigo e mais novo)
type ChartWindow struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// ChartSnapshot é a cópia de uma série do gráfico
type ChartSnapshot struct {
	Series string         `json:"series"`
	Points []HistoryPoint `json:"points"`
	Window *ChartWindow   `json:"window,omitempty"`
}

// CurrentValues são os últimos valores conhecidos
type CurrentValues struct {
	Sample     *WindSample `json:"sample,omitempty"`
	Angle      *float64    `json:"angle,omitempty"`
	AngleKnown bool        `json:"angleKnown"`
}

// PortInfo descreve uma porta serial enumerada
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"isUsb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	Product      string `json:"product,omitempty"`
}
