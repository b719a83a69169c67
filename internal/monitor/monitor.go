// Package monitor é o consumidor único do despachante: mantém as visões ao
// vivo e as séries do gráfico e repassa cada evento aos publicadores (hub
// WebSocket, Redis, PLC).
package monitor

import (
	"fmt"

	"telemetria_go/internal/config"
	"telemetria_go/internal/dispatch"
	"telemetria_go/internal/models"
	"telemetria_go/internal/sink"
	"telemetria_go/pkg/logger"
	"telemetria_go/pkg/utils"
)

// Nomes das séries do gráfico
const (
	SeriesSpeed     = "speed"
	SeriesDirection = "direction"
	SeriesAngle     = "angle"
)

// MalformedStatus é o texto de status para linhas fora do formato no canal A
const MalformedStatus = "A: Received line not matching ,<WindSpeed>,<WindDirection>"

// Interfaces opcionais dos publicadores; cada um implementa as que usa

// SamplePublisher recebe amostras de vento
type SamplePublisher interface {
	PublishSample(ev models.SampleEvent)
}

// AnglePublisher recebe ângulos do motor
type AnglePublisher interface {
	PublishAngle(r models.AngleReport)
}

// LinePublisher recebe linhas das visões ao vivo
type LinePublisher interface {
	PublishLine(channel models.ChannelID, line string)
}

// StatusPublisher recebe mudanças de status dos canais
type StatusPublisher interface {
	PublishStatus(st models.ChannelStatus)
}

// Monitor não tem locks: todos os métodos devem rodar na goroutine do
// consumidor do despachante (Handle diretamente, leituras via View).
type Monitor struct {
	live   map[models.ChannelID]*sink.LiveTextBuffer
	series map[string]*sink.ChartSeries

	lastSample *models.WindSample
	lastAngle  *models.AngleReport
	status     map[models.ChannelID]models.ChannelStatus
	statusText string

	samplePubs []SamplePublisher
	anglePubs  []AnglePublisher
	linePubs   []LinePublisher
	statusPubs []StatusPublisher

	counters struct {
		samples   int64
		malformed int64
		angles    int64
		chunks    int64
	}
}

// New cria o consumidor com as capacidades configuradas
func New(cfg config.LiveConfig) *Monitor {
	return &Monitor{
		live: map[models.ChannelID]*sink.LiveTextBuffer{
			models.ChannelA: sink.NewLiveTextBuffer(cfg.TextLines, cfg.MaxLineChars),
			models.ChannelB: sink.NewLiveTextBuffer(cfg.TextLines, cfg.MaxLineChars),
		},
		series: map[string]*sink.ChartSeries{
			SeriesSpeed:     sink.NewChartSeries(SeriesSpeed, cfg.ChartPoints),
			SeriesDirection: sink.NewChartSeries(SeriesDirection, cfg.ChartPoints),
			SeriesAngle:     sink.NewChartSeries(SeriesAngle, cfg.ChartPoints),
		},
		status: map[models.ChannelID]models.ChannelStatus{
			models.ChannelA: {Channel: models.ChannelA, State: models.StateClosed, Text: "A: Stopped."},
			models.ChannelB: {Channel: models.ChannelB, State: models.StateClosed, Text: "B: Disconnected."},
		},
	}
}

// AddPublisher registra um publicador. Deve ser chamado antes de o
// despachante começar a entregar eventos.
func (m *Monitor) AddPublisher(p interface{}) {
	registered := false
	if sp, ok := p.(SamplePublisher); ok {
		m.samplePubs = append(m.samplePubs, sp)
		registered = true
	}
	if ap, ok := p.(AnglePublisher); ok {
		m.anglePubs = append(m.anglePubs, ap)
		registered = true
	}
	if lp, ok := p.(LinePublisher); ok {
		m.linePubs = append(m.linePubs, lp)
		registered = true
	}
	if stp, ok := p.(StatusPublisher); ok {
		m.statusPubs = append(m.statusPubs, stp)
		registered = true
	}
	if !registered {
		logger.Warnf("Publicador %T não implementa nenhuma interface conhecida", p)
	}
}

// Handle implementa dispatch.Handler
func (m *Monitor) Handle(channel models.ChannelID, event dispatch.Event) {
	switch ev := event.(type) {
	case models.SampleEvent:
		m.onSample(ev)
	case models.MalformedEvent:
		m.onMalformed(ev)
	case models.AngleEvent:
		m.onAngle(ev.Report)
	case models.TextEvent:
		m.onText(ev)
	case models.EchoEvent:
		m.appendLine(ev.Channel, fmt.Sprintf("%s  %s", utils.FormatSortable(ev.Timestamp), ev.Line))
	case models.StatusEvent:
		m.onStatus(ev.Status)
	default:
		logger.Warnf("Evento desconhecido do canal %s: %T", channel, event)
	}
}

func (m *Monitor) onSample(ev models.SampleEvent) {
	s := ev.Sample
	m.counters.samples++
	m.lastSample = &s

	m.series[SeriesSpeed].Add(s.Timestamp, s.Speed)
	m.series[SeriesDirection].Add(s.Timestamp, s.Direction)

	m.appendLine(models.ChannelA, fmt.Sprintf("%s  WS=%s  WD=%s",
		utils.FormatSortable(s.Timestamp), utils.FormatInvariant(s.Speed), utils.FormatInvariant(s.Direction)))

	for _, p := range m.samplePubs {
		p.PublishSample(ev)
	}
}

func (m *Monitor) onMalformed(ev models.MalformedEvent) {
	m.counters.malformed++
	m.appendLine(models.ChannelA, fmt.Sprintf("%s  [A unparsed] %s", utils.FormatSortable(ev.Timestamp), ev.Raw))

	st := m.status[models.ChannelA]
	st.Text = MalformedStatus
	st.Timestamp = ev.Timestamp
	m.onStatus(st)
}

func (m *Monitor) onAngle(r models.AngleReport) {
	m.counters.angles++
	m.lastAngle = &r
	m.series[SeriesAngle].Add(r.Timestamp, r.Angle)

	for _, p := range m.anglePubs {
		p.PublishAngle(r)
	}
}

func (m *Monitor) onText(ev models.TextEvent) {
	m.counters.chunks++
	buf, ok := m.live[ev.Channel]
	if !ok {
		return
	}
	for _, line := range buf.AppendText(ev.Text) {
		m.publishLine(ev.Channel, line)
	}
}

func (m *Monitor) onStatus(st models.ChannelStatus) {
	m.status[st.Channel] = st
	m.statusText = st.Text
	for _, p := range m.statusPubs {
		p.PublishStatus(st)
	}
}

func (m *Monitor) appendLine(channel models.ChannelID, line string) {
	buf, ok := m.live[channel]
	if !ok {
		return
	}
	buf.AppendLine(line)
	m.publishLine(channel, line)
}

func (m *Monitor) publishLine(channel models.ChannelID, line string) {
	for _, p := range m.linePubs {
		p.PublishLine(channel, line)
	}
}

// LiveLines retorna as linhas da visão ao vivo do canal
func (m *Monitor) LiveLines(channel models.ChannelID) ([]string, bool) {
	buf, ok := m.live[channel]
	if !ok {
		return nil, false
	}
	return buf.Lines(), true
}

// ClearLive apaga a visão ao vivo do canal
func (m *Monitor) ClearLive(channel models.ChannelID) bool {
	buf, ok := m.live[channel]
	if !ok {
		return false
	}
	buf.Clear()
	return true
}

// Chart retorna a cópia de uma série
func (m *Monitor) Chart(name string) (models.ChartSnapshot, bool) {
	s, ok := m.series[name]
	if !ok {
		return models.ChartSnapshot{}, false
	}
	return s.Snapshot(), true
}

// LastSample retorna a última amostra de vento
func (m *Monitor) LastSample() (models.WindSample, bool) {
	if m.lastSample == nil {
		return models.WindSample{}, false
	}
	return *m.lastSample, true
}

// Statuses retorna o status dos dois canais e o último texto de status
func (m *Monitor) Statuses() ([]models.ChannelStatus, string) {
	return []models.ChannelStatus{m.status[models.ChannelA], m.status[models.ChannelB]}, m.statusText
}

// Counters retorna os contadores de eventos
func (m *Monitor) Counters() map[string]int64 {
	return map[string]int64{
		"samples":   m.counters.samples,
		"malformed": m.counters.malformed,
		"angles":    m.counters.angles,
		"chunks":    m.counters.chunks,
	}
}
