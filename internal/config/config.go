package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultFile é o arquivo de configuração lido por Load quando presente
const DefaultFile = "config.json"

// SupportedBauds são as taxas aceitas pelos dois canais
var SupportedBauds = []int{9600, 19200, 38400, 57600, 115200, 230400}

// Config representa a configuração completa da aplicação
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	ChannelA   SerialConfig     `json:"channelA" yaml:"channelA"`
	ChannelB   SerialConfig     `json:"channelB" yaml:"channelB"`
	Recorder   RecorderConfig   `json:"recorder" yaml:"recorder"`
	Pattern    PatternConfig    `json:"pattern" yaml:"pattern"`
	Live       LiveConfig       `json:"live" yaml:"live"`
	Dispatcher DispatcherConfig `json:"dispatcher" yaml:"dispatcher"`
	Redis      RedisConfig      `json:"redis" yaml:"redis"`
	PLC        PLCConfig        `json:"plc" yaml:"plc"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// SerialConfig contém a configuração de um canal serial.
// O enquadramento é sempre 8-N-1.
type SerialConfig struct {
	Port         string        `json:"port" yaml:"port"`
	Baud         int           `json:"baud" yaml:"baud"`
	Driver       string        `json:"driver" yaml:"driver"` // "bugst" ou "tarm"
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	Terminator   string        `json:"terminator" yaml:"terminator"` // terminador padrão de envio
	Echo         bool          `json:"echo" yaml:"echo"`
	AutoStart    bool          `json:"autoStart" yaml:"autoStart"`
}

// RecorderConfig contém configurações do log CSV do canal A
type RecorderConfig struct {
	Path   string `json:"path" yaml:"path"`     // vazio = <dir>/wind_<data>.csv
	Dir    string `json:"dir" yaml:"dir"`       // diretório padrão
	Prefix string `json:"prefix" yaml:"prefix"` // prefixo do nome padrão
	Fsync  bool   `json:"fsync" yaml:"fsync"`   // fsync após cada linha
}

// PatternConfig contém configurações do buffer rolante do canal B
type PatternConfig struct {
	BufferCapacity int `json:"bufferCapacity" yaml:"bufferCapacity"`
}

// LiveConfig contém as capacidades das visões ao vivo
type LiveConfig struct {
	TextLines    int `json:"textLines" yaml:"textLines"`
	MaxLineChars int `json:"maxLineChars" yaml:"maxLineChars"`
	ChartPoints  int `json:"chartPoints" yaml:"chartPoints"`
}

// DispatcherConfig contém configurações da fila do despachante
type DispatcherConfig struct {
	QueueSize int `json:"queueSize" yaml:"queueSize"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Password    string `json:"password" yaml:"password"`
	DB          int    `json:"db" yaml:"db"`
	Prefix      string `json:"prefix" yaml:"prefix"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	HistorySize int    `json:"historySize" yaml:"historySize"`
	Async       bool   `json:"async" yaml:"async"`
}

// PLCConfig contém configurações para espelhar os valores num PLC S7
type PLCConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Host         string        `json:"host" yaml:"host"`
	Rack         int           `json:"rack" yaml:"rack"`
	Slot         int           `json:"slot" yaml:"slot"`
	DBNumber     int           `json:"dbNumber" yaml:"dbNumber"`
	UpdateRate   time.Duration `json:"updateRate" yaml:"updateRate"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
}

// DiscoveryConfig contém configurações do anúncio mDNS
type DiscoveryConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	InstanceName string `json:"instanceName" yaml:"instanceName"`
}

// Load carrega config.json se existir, senão usa valores padrão
func Load() (*Config, error) {
	if _, err := os.Stat(DefaultFile); err == nil {
		return LoadFile(DefaultFile)
	}

	cfg := getDefaultConfig()
	applyEnvironmentOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile carrega a configuração de um arquivo JSON (aceita comentários e
// vírgulas finais) ou YAML, conforme a extensão
func LoadFile(path string) (*Config, error) {
	cfg := getDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler configuração %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("erro ao decodificar YAML %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("erro ao decodificar JSON %s: %w", path, err)
		}
	}

	applyEnvironmentOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate verifica valores fora de faixa
func (c *Config) Validate() error {
	for name, ch := range map[string]SerialConfig{"channelA": c.ChannelA, "channelB": c.ChannelB} {
		if ch.Baud != 0 && !IsSupportedBaud(ch.Baud) {
			return fmt.Errorf("%s: baud %d não suportado (use %v)", name, ch.Baud, SupportedBauds)
		}
		switch ch.Driver {
		case "", "bugst", "tarm":
		default:
			return fmt.Errorf("%s: driver serial desconhecido %q", name, ch.Driver)
		}
		if ch.ReadTimeout < 0 || ch.WriteTimeout < 0 {
			return fmt.Errorf("%s: timeouts não podem ser negativos", name)
		}
	}
	if c.Pattern.BufferCapacity <= 0 {
		return fmt.Errorf("pattern.bufferCapacity deve ser positivo")
	}
	if c.Live.TextLines <= 0 || c.Live.ChartPoints <= 0 || c.Live.MaxLineChars <= 0 {
		return fmt.Errorf("capacidades de live devem ser positivas")
	}
	if c.Dispatcher.QueueSize <= 0 {
		return fmt.Errorf("dispatcher.queueSize deve ser positivo")
	}
	return nil
}

// IsSupportedBaud verifica se a taxa está na lista suportada
func IsSupportedBaud(baud int) bool {
	for _, b := range SupportedBauds {
		if b == baud {
			return true
		}
	}
	return false
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv("TELEMETRIA_PORT_A"); v != "" {
		config.ChannelA.Port = v
	}
	if v := os.Getenv("TELEMETRIA_PORT_B"); v != "" {
		config.ChannelB.Port = v
	}
	if v, ok := envInt("TELEMETRIA_BAUD_A"); ok {
		config.ChannelA.Baud = v
	}
	if v, ok := envInt("TELEMETRIA_BAUD_B"); ok {
		config.ChannelB.Baud = v
	}
	if v := os.Getenv("TELEMETRIA_CSV"); v != "" {
		config.Recorder.Path = v
	}
	if v, ok := envInt("TELEMETRIA_HTTP_PORT"); ok {
		config.Server.Port = v
	}
	if v := os.Getenv("TELEMETRIA_REDIS_HOST"); v != "" {
		config.Redis.Host = v
	}
	if v, ok := envInt("TELEMETRIA_REDIS_PORT"); ok {
		config.Redis.Port = v
	}
	if v := os.Getenv("TELEMETRIA_REDIS_ENABLED"); v != "" {
		config.Redis.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
