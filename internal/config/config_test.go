package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("configuração padrão inválida: %v", err)
	}
	if cfg.ChannelA.ReadTimeout != time.Second {
		t.Errorf("timeout de leitura padrão = %v, esperado 1s", cfg.ChannelA.ReadTimeout)
	}
	if cfg.Pattern.BufferCapacity != 2048 {
		t.Errorf("capacidade padrão = %d, esperado 2048", cfg.Pattern.BufferCapacity)
	}
}

func TestLoadFileJSONWithComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		// canal do anemômetro
		"channelA": {"port": "/dev/ttyUSB0", "baud": 9600,},
		"pattern": {"bufferCapacity": 512},
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ChannelA.Port != "/dev/ttyUSB0" || cfg.ChannelA.Baud != 9600 {
		t.Errorf("canal A = %+v", cfg.ChannelA)
	}
	if cfg.Pattern.BufferCapacity != 512 {
		t.Errorf("bufferCapacity = %d", cfg.Pattern.BufferCapacity)
	}
	// Campos ausentes mantêm o padrão
	if cfg.ChannelB.Baud != 115200 {
		t.Errorf("baud B = %d, esperado padrão 115200", cfg.ChannelB.Baud)
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "channelB:\n  port: COM4\n  baud: 57600\nrecorder:\n  path: /tmp/wind.csv\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ChannelB.Port != "COM4" || cfg.ChannelB.Baud != 57600 {
		t.Errorf("canal B = %+v", cfg.ChannelB)
	}
	if cfg.Recorder.Path != "/tmp/wind.csv" {
		t.Errorf("recorder.path = %q", cfg.Recorder.Path)
	}
}

func TestValidateRejectsBadBaud(t *testing.T) {
	cfg := Default()
	cfg.ChannelA.Baud = 250000
	if err := cfg.Validate(); err == nil {
		t.Error("baud 250000 deveria ser rejeitado")
	}

	cfg = Default()
	cfg.ChannelB.Driver = "ftdi"
	if err := cfg.Validate(); err == nil {
		t.Error("driver desconhecido deveria ser rejeitado")
	}

	cfg = Default()
	cfg.Pattern.BufferCapacity = 0
	if err := cfg.Validate(); err == nil {
		t.Error("capacidade zero deveria ser rejeitada")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("TELEMETRIA_PORT_A", "/dev/ttyACM1")
	t.Setenv("TELEMETRIA_BAUD_B", "19200")
	t.Setenv("TELEMETRIA_REDIS_ENABLED", "true")

	cfg := Default()
	applyEnvironmentOverrides(&cfg)

	if cfg.ChannelA.Port != "/dev/ttyACM1" {
		t.Errorf("porta A = %q", cfg.ChannelA.Port)
	}
	if cfg.ChannelB.Baud != 19200 {
		t.Errorf("baud B = %d", cfg.ChannelB.Baud)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis deveria estar habilitado")
	}
}

func TestIsSupportedBaud(t *testing.T) {
	for _, b := range SupportedBauds {
		if !IsSupportedBaud(b) {
			t.Errorf("%d deveria ser suportado", b)
		}
	}
	if IsSupportedBaud(4800) {
		t.Error("4800 não deveria ser suportado")
	}
}
