package wind

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"telemetria_go/internal/angle"
	"telemetria_go/internal/apperr"
	"telemetria_go/internal/config"
	"telemetria_go/internal/dispatch"
	"telemetria_go/internal/models"
	"telemetria_go/internal/serial"
)

type recordingPoster struct {
	mu     sync.Mutex
	events []dispatch.Event
}

func (p *recordingPoster) Post(_ models.ChannelID, ev dispatch.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPoster) snapshot() []dispatch.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dispatch.Event(nil), p.events...)
}

func waitEvent[T any](t *testing.T, p *recordingPoster, match func(T) bool) T {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range p.snapshot() {
			if v, ok := ev.(T); ok && match(v) {
				return v
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	var zero T
	t.Fatalf("evento %T não recebido", zero)
	return zero
}

type fixture struct {
	svc    *Service
	drv    *serial.FakeDriver
	poster *recordingPoster
	cell   *angle.Cell
	csv    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.ChannelA.Port = "COM3"
	cfg.ChannelA.ReadTimeout = 50 * time.Millisecond

	f := &fixture{
		drv:    serial.NewFakeDriver(),
		poster: &recordingPoster{},
		cell:   angle.NewCell(),
		csv:    filepath.Join(t.TempDir(), "wind.csv"),
	}
	f.svc = NewService(cfg.ChannelA, cfg.Recorder, f.cell, f.poster, f.drv.Open)
	t.Cleanup(f.svc.Stop)
	return f
}

func (f *fixture) start(t *testing.T) *serial.FakePort {
	t.Helper()
	if err := f.svc.Start(StartOptions{CSVPath: f.csv}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return f.drv.Port("COM3")
}

func (f *fixture) csvLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.csv)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestSampleIsRecordedAndPublished(t *testing.T) {
	f := newFixture(t)
	port := f.start(t)

	port.FeedString(" ,3.45,270\n")

	ev := waitEvent(t, f.poster, func(e models.SampleEvent) bool { return true })
	if ev.Sample.Speed != 3.45 || ev.Sample.Direction != 270 {
		t.Errorf("amostra = %+v", ev.Sample)
	}
	if ev.AngleKnown || !ev.Persisted {
		t.Errorf("evento = %+v", ev)
	}

	lines := f.csvLines(t)
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",3.45,270,") {
		t.Errorf("CSV = %q", lines)
	}
}

func TestSampleCarriesCurrentAngle(t *testing.T) {
	f := newFixture(t)
	port := f.start(t)

	f.cell.Store(models.AngleReport{Angle: 90, Timestamp: time.Now()})
	port.FeedString(",1.5,")
	port.FeedString("180\r\n")

	ev := waitEvent(t, f.poster, func(e models.SampleEvent) bool { return true })
	if !ev.AngleKnown || ev.Angle != 90 {
		t.Errorf("evento = %+v", ev)
	}
	lines := f.csvLines(t)
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",1.5,180,90") {
		t.Errorf("CSV = %q", lines)
	}
}

func TestMalformedLineIsNotPersisted(t *testing.T) {
	f := newFixture(t)
	port := f.start(t)

	port.FeedString("hello\n")

	ev := waitEvent(t, f.poster, func(e models.MalformedEvent) bool { return true })
	if ev.Raw != "hello" {
		t.Errorf("linha bruta = %q", ev.Raw)
	}
	if lines := f.csvLines(t); len(lines) != 0 {
		t.Errorf("CSV deveria estar vazio: %q", lines)
	}
	if f.svc.Stats()["malformed"] != 1 {
		t.Errorf("stats = %v", f.svc.Stats())
	}
}

func TestStartRejectsMissingPort(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.Port = ""

	err := f.svc.Start(StartOptions{CSVPath: f.csv})
	if !apperr.IsKind(err, apperr.Configuration) {
		t.Fatalf("Start = %v", err)
	}
	if _, statErr := os.Stat(f.csv); !os.IsNotExist(statErr) {
		t.Error("CSV não deveria ser criado sem porta")
	}
	if f.svc.IsRunning() {
		t.Error("serviço não deveria estar rodando")
	}
}

func TestStartStopStatus(t *testing.T) {
	f := newFixture(t)
	port := f.start(t)

	st := f.svc.Status()
	if st.State != models.StateOpen || !strings.HasPrefix(st.Text, "A: Logging on COM3 @ 115200") {
		t.Errorf("status = %+v", st)
	}
	if f.svc.PortName() != "COM3" {
		t.Errorf("PortName = %q", f.svc.PortName())
	}

	f.svc.Stop()
	if !port.IsClosed() {
		t.Error("porta deveria estar fechada")
	}
	if st := f.svc.Status(); st.State != models.StateClosed || st.Text != "A: Stopped." {
		t.Errorf("status = %+v", st)
	}
	waitEvent(t, f.poster, func(e models.StatusEvent) bool { return e.Status.Text == "A: Stopped." })
}

func TestSendWithEcho(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Send("PING", serial.TermLF); !apperr.IsKind(err, apperr.Configuration) {
		t.Errorf("Send sem conexão = %v", err)
	}

	port := f.start(t)
	if err := f.svc.Send("PING", serial.TermLF); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(port.Written()) != "PING\n" {
		t.Errorf("escrito = %q", port.Written())
	}
	echo := waitEvent(t, f.poster, func(e models.EchoEvent) bool { return true })
	if echo.Line != `>>A PING (\n)` {
		t.Errorf("eco = %q", echo.Line)
	}

	if err := f.svc.Send("", serial.TermCRLF); err != nil {
		t.Errorf("Send vazio = %v", err)
	}
	if port.Writes() != 1 {
		t.Errorf("texto vazio não deveria ser enviado")
	}
}

func TestIOFailureSetsErrored(t *testing.T) {
	f := newFixture(t)
	port := f.start(t)

	port.Fail(errors.New("dispositivo removido"))

	st := waitEvent(t, f.poster, func(e models.StatusEvent) bool {
		return e.Status.State == models.StateErrored
	})
	if st.Status.Text != "A: I/O error (device removed?)." || st.Status.ErrorKind != "IOFailure" {
		t.Errorf("status = %+v", st.Status)
	}
	if !f.svc.IsRunning() {
		t.Error("canal com erro continua aguardando Stop explícito")
	}
}
