package redis

import (
	"strings"
	"testing"
	"time"

	"telemetria_go/internal/config"
	"telemetria_go/internal/models"
)

func TestDisabledServiceIsNoop(t *testing.T) {
	svc, err := NewService(config.RedisConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Shutdown()

	if svc.IsConnected() {
		t.Error("serviço desabilitado não deveria estar conectado")
	}
	ev := models.SampleEvent{Sample: models.WindSample{Timestamp: time.Now(), Speed: 1, Direction: 2}}
	if err := svc.WriteSample(ev); err != nil {
		t.Errorf("WriteSample desabilitado: %v", err)
	}
	svc.PublishSample(ev)
	svc.PublishAngle(models.AngleReport{Angle: 10})
	svc.PublishStatus(models.ChannelStatus{Channel: models.ChannelA})

	if _, err := svc.GetCurrent(); err == nil {
		t.Error("GetCurrent deveria falhar com Redis desabilitado")
	}
	if stats := svc.Stats(); stats["written"].(int64) != 0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestKeysUsePrefix(t *testing.T) {
	svc, _ := NewService(config.RedisConfig{Prefix: "estacao1"})
	if got := svc.key("wind", "history"); got != "estacao1:wind:history" {
		t.Errorf("key = %q", got)
	}

	svc, _ = NewService(config.RedisConfig{})
	if got := svc.key("status", "B"); got != "telemetria:status:B" {
		t.Errorf("key padrão = %q", got)
	}
}

func TestHistoryEntryKeepsTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 250*int(time.Millisecond), time.UTC)
	a, err := encodeHistoryEntry(models.SampleEvent{
		Sample: models.WindSample{Timestamp: ts, Speed: 3.45, Direction: 270},
		Angle:  90, AngleKnown: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := encodeHistoryEntry(models.SampleEvent{
		Sample: models.WindSample{Timestamp: ts.Add(time.Second), Speed: 3.45, Direction: 270},
	})
	if a == b {
		t.Error("amostras iguais em instantes diferentes devem gerar membros diferentes")
	}
	if !strings.Contains(a, `"angle":90`) || strings.Contains(b, "angle") {
		t.Errorf("membros = %s / %s", a, b)
	}

	sample, err := decodeHistoryEntry(a)
	if err != nil {
		t.Fatal(err)
	}
	if !sample.Timestamp.Equal(ts) || sample.Speed != 3.45 || sample.Direction != 270 {
		t.Errorf("amostra = %+v", sample)
	}
	if _, err := decodeHistoryEntry("not json"); err == nil {
		t.Error("membro inválido deveria falhar")
	}
}
