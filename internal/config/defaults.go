package config

import "time"

// Default retorna uma cópia da configuração padrão
func Default() Config {
	return getDefaultConfig()
}

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		ChannelA: SerialConfig{
			Baud:         115200,
			Driver:       "bugst",
			ReadTimeout:  1000 * time.Millisecond,
			WriteTimeout: 1000 * time.Millisecond,
			Terminator:   "\\n",
			Echo:         true,
		},
		ChannelB: SerialConfig{
			Baud:         115200,
			Driver:       "bugst",
			ReadTimeout:  1000 * time.Millisecond,
			WriteTimeout: 1000 * time.Millisecond,
			Terminator:   "None",
			Echo:         true,
		},
		Recorder: RecorderConfig{
			Dir:    "dados",
			Prefix: "wind",
		},
		Pattern: PatternConfig{
			BufferCapacity: 2048,
		},
		Live: LiveConfig{
			TextLines:    500,
			MaxLineChars: 4096,
			ChartPoints:  600,
		},
		Dispatcher: DispatcherConfig{
			QueueSize: 1024,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			Password:    "",
			DB:          0,
			Prefix:      "telemetria",
			Enabled:     false,
			HistorySize: 1000,
			Async:       true,
		},
		PLC: PLCConfig{
			Enabled:      false,
			Host:         "192.168.1.100",
			Rack:         0,
			Slot:         1,
			DBNumber:     20,
			UpdateRate:   500 * time.Millisecond,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
		},
	}
}
