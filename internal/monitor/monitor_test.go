package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	"telemetria_go/internal/config"
	"telemetria_go/internal/dispatch"
	"telemetria_go/internal/models"
)

type recordingPublisher struct {
	samples  []models.SampleEvent
	angles   []models.AngleReport
	lines    map[models.ChannelID][]string
	statuses []models.ChannelStatus
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{lines: map[models.ChannelID][]string{}}
}

func (p *recordingPublisher) PublishSample(ev models.SampleEvent) { p.samples = append(p.samples, ev) }
func (p *recordingPublisher) PublishAngle(r models.AngleReport)   { p.angles = append(p.angles, r) }
func (p *recordingPublisher) PublishLine(ch models.ChannelID, line string) {
	p.lines[ch] = append(p.lines[ch], line)
}
func (p *recordingPublisher) PublishStatus(st models.ChannelStatus) {
	p.statuses = append(p.statuses, st)
}

// apenas amostras
type sampleOnly struct{ n int }

func (p *sampleOnly) PublishSample(models.SampleEvent) { p.n++ }

func testLive() config.LiveConfig {
	return config.LiveConfig{TextLines: 10, MaxLineChars: 64, ChartPoints: 3}
}

var ts = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func TestSampleUpdatesViewsAndPublishers(t *testing.T) {
	m := New(testLive())
	pub := newRecordingPublisher()
	only := &sampleOnly{}
	m.AddPublisher(pub)
	m.AddPublisher(only)

	m.Handle(models.ChannelA, models.SampleEvent{
		Sample: models.WindSample{Timestamp: ts, Speed: 3.45, Direction: 270},
	})

	lines, _ := m.LiveLines(models.ChannelA)
	want := "2024-05-01T12:30:00  WS=3.45  WD=270"
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("linhas A = %q, esperado %q", lines, want)
	}
	if len(pub.samples) != 1 || only.n != 1 {
		t.Errorf("publicadores receberam %d e %d amostras", len(pub.samples), only.n)
	}
	if got := pub.lines[models.ChannelA]; len(got) != 1 || got[0] != want {
		t.Errorf("linha publicada = %q", got)
	}

	speed, _ := m.Chart(SeriesSpeed)
	if len(speed.Points) != 1 || speed.Points[0].Value != 3.45 {
		t.Errorf("série de velocidade = %+v", speed.Points)
	}
	s, ok := m.LastSample()
	if !ok || s.Direction != 270 {
		t.Errorf("última amostra = %+v, %v", s, ok)
	}
}

func TestChartKeepsLastPoints(t *testing.T) {
	m := New(testLive())
	for i := 0; i < 5; i++ {
		m.Handle(models.ChannelB, models.AngleEvent{Report: models.AngleReport{
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Angle:     float64(i),
		}})
	}
	snap, ok := m.Chart(SeriesAngle)
	if !ok {
		t.Fatal("série angle não encontrada")
	}
	if len(snap.Points) != 3 || snap.Points[0].Value != 2 || snap.Points[2].Value != 4 {
		t.Errorf("pontos = %+v", snap.Points)
	}
	if snap.Window == nil || !snap.Window.Min.Equal(ts.Add(2*time.Second)) {
		t.Errorf("janela = %+v", snap.Window)
	}
	if _, ok := m.Chart("pressure"); ok {
		t.Error("série desconhecida não deveria existir")
	}
}

func TestMalformedLineSetsStatus(t *testing.T) {
	m := New(testLive())
	pub := newRecordingPublisher()
	m.AddPublisher(pub)

	m.Handle(models.ChannelA, models.MalformedEvent{Timestamp: ts, Raw: "garbage"})

	lines, _ := m.LiveLines(models.ChannelA)
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "[A unparsed] garbage") {
		t.Errorf("linhas A = %q", lines)
	}
	_, text := m.Statuses()
	if text != MalformedStatus {
		t.Errorf("status = %q", text)
	}
	if len(pub.statuses) != 1 || pub.statuses[0].Channel != models.ChannelA {
		t.Errorf("status publicados = %+v", pub.statuses)
	}
}

func TestTextKeepsPartialLine(t *testing.T) {
	m := New(testLive())
	pub := newRecordingPublisher()
	m.AddPublisher(pub)

	m.Handle(models.ChannelB, models.TextEvent{Channel: models.ChannelB, Text: "motor now at 9"})
	m.Handle(models.ChannelB, models.TextEvent{Channel: models.ChannelB, Text: "0 deg\nready"})

	lines, _ := m.LiveLines(models.ChannelB)
	if len(lines) != 2 || lines[0] != "motor now at 90 deg" || lines[1] != "ready" {
		t.Errorf("linhas B = %q", lines)
	}
	if got := pub.lines[models.ChannelB]; len(got) != 1 || got[0] != "motor now at 90 deg" {
		t.Errorf("linhas publicadas = %q", got)
	}

	if !m.ClearLive(models.ChannelB) {
		t.Fatal("ClearLive B falhou")
	}
	if lines, _ := m.LiveLines(models.ChannelB); len(lines) != 0 {
		t.Errorf("após limpar: %q", lines)
	}
}

func TestEchoAndStatusEvents(t *testing.T) {
	m := New(testLive())

	m.Handle(models.ChannelB, models.EchoEvent{Channel: models.ChannelB, Timestamp: ts, Line: ">>B 90 (\\n)"})
	m.Handle(models.ChannelB, models.StatusEvent{Status: models.ChannelStatus{
		Channel: models.ChannelB, State: models.StateOpen, Text: "B: Connected on COM4 @ 115200",
	}})

	lines, _ := m.LiveLines(models.ChannelB)
	if len(lines) != 1 || lines[0] != "2024-05-01T12:30:00  >>B 90 (\\n)" {
		t.Errorf("linhas B = %q", lines)
	}
	statuses, text := m.Statuses()
	if statuses[1].State != models.StateOpen || text != "B: Connected on COM4 @ 115200" {
		t.Errorf("status = %+v %q", statuses, text)
	}
	if statuses[0].State != models.StateClosed {
		t.Errorf("status A = %+v", statuses[0])
	}
}

func TestViewThroughDispatcher(t *testing.T) {
	m := New(testLive())
	d := dispatch.New(16, m.Handle)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	view := NewView(m, d)
	for i := 0; i < 4; i++ {
		d.Post(models.ChannelA, models.SampleEvent{Sample: models.WindSample{
			Timestamp: ts.Add(time.Duration(i) * time.Second), Speed: float64(i), Direction: 10,
		}})
	}

	counters, err := view.Counters(context.Background())
	if err != nil {
		t.Fatalf("Counters: %v", err)
	}
	if counters["samples"] != 4 {
		t.Errorf("samples = %d", counters["samples"])
	}
	snap, ok, err := view.Chart(context.Background(), SeriesDirection)
	if err != nil || !ok || len(snap.Points) != 3 {
		t.Errorf("Chart = %+v, %v, %v", snap, ok, err)
	}
	last, ok, _ := view.LastSample(context.Background())
	if !ok || last.Speed != 3 {
		t.Errorf("LastSample = %+v", last)
	}
}
