package plc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"telemetria_go/internal/config"
	"telemetria_go/internal/models"
)

type fakeWriter struct {
	mu        sync.Mutex
	connected bool
	failConn  int
	blocks    [][]byte
	db        int
}

func (f *fakeWriter) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConn > 0 {
		f.failConn--
		return errors.New("connection refused")
	}
	f.connected = true
	return nil
}

func (f *fakeWriter) Disconnect() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

func (f *fakeWriter) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeWriter) WriteDataBlock(db, offset int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.db = db
	f.blocks = append(f.blocks, append([]byte(nil), data...))
	return nil
}

func (f *fakeWriter) GetLastError() error { return nil }

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blocks)
}

func testConfig() config.PLCConfig {
	return config.PLCConfig{Enabled: true, DBNumber: 20, UpdateRate: 5 * time.Millisecond}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condição não atingida")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSnapshotEncode(t *testing.T) {
	buf := Snapshot{
		Speed: 3.5, Direction: 270, Angle: -12.25,
		AngleKnown: true, ChannelB: true,
		Samples: 7, Angles: 258,
	}.Encode()

	if len(buf) != blockSize {
		t.Fatalf("tamanho = %d", len(buf))
	}
	if getReal(buf[offsetSpeed:]) != 3.5 || getReal(buf[offsetDirection:]) != 270 || getReal(buf[offsetAngle:]) != -12.25 {
		t.Errorf("REALs = % x", buf[:12])
	}
	if buf[offsetFlags] != flagAngleKnown|flagChannelB {
		t.Errorf("flags = %08b", buf[offsetFlags])
	}
	if buf[offsetSamples+3] != 7 || buf[offsetAngles+2] != 1 || buf[offsetAngles+3] != 2 {
		t.Errorf("contadores = % x", buf[offsetSamples:])
	}
}

func TestServiceMirrorsLatestValues(t *testing.T) {
	fw := &fakeWriter{}
	svc := newPLCService(testConfig(), fw)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	svc.PublishSample(models.SampleEvent{Sample: models.WindSample{Speed: 4, Direction: 90}})
	svc.PublishAngle(models.AngleReport{Angle: 45})
	svc.PublishStatus(models.ChannelStatus{Channel: models.ChannelA, State: models.StateOpen})

	waitFor(t, func() bool {
		snap, ok := svc.LastWritten()
		return ok && snap.AngleKnown && snap.ChannelA && snap.Samples == 1
	})

	snap, _ := svc.LastWritten()
	if snap.Speed != 4 || snap.Direction != 90 || snap.Angle != 45 {
		t.Errorf("snapshot = %+v", snap)
	}
	if fw.db != 20 {
		t.Errorf("DB = %d", fw.db)
	}

	// Sem mudanças o bloco não é reescrito
	n := fw.count()
	time.Sleep(30 * time.Millisecond)
	if fw.count() != n {
		t.Errorf("escritas sem mudança: %d -> %d", n, fw.count())
	}
}

func TestServiceReconnects(t *testing.T) {
	fw := &fakeWriter{failConn: 3}
	svc := newPLCService(testConfig(), fw)
	svc.Start()
	defer svc.Stop()

	svc.PublishAngle(models.AngleReport{Angle: 10})
	waitFor(t, func() bool { return fw.count() > 0 })
}

func TestDisabledServiceIgnoresUpdates(t *testing.T) {
	fw := &fakeWriter{}
	cfg := testConfig()
	cfg.Enabled = false
	svc := newPLCService(cfg, fw)
	if err := svc.Start(); err != nil {
		t.Fatal(err)
	}
	svc.PublishAngle(models.AngleReport{Angle: 10})
	if svc.IsRunning() || fw.count() != 0 {
		t.Error("serviço desabilitado não deveria escrever")
	}
	if st := svc.Stats(); st["enabled"] != false || st["writes"] != int64(0) {
		t.Errorf("stats = %v", st)
	}
	svc.Stop()
}
