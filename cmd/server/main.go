package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"telemetria_go/internal/config"
	"telemetria_go/internal/server"
	"telemetria_go/pkg/logger"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "arquivo de configuração (.json com comentários ou .yaml)")
	logLevel := pflag.String("log-level", "info", "nível de log (debug, info, warn, error)")
	logDir := pflag.String("log-dir", "logs", "diretório dos arquivos de log (vazio desativa)")
	portA := pflag.String("port-a", "", "porta serial do anemômetro (canal A)")
	portB := pflag.String("port-b", "", "porta serial do motor (canal B)")
	csvPath := pflag.String("csv", "", "arquivo CSV do canal A")
	httpPort := pflag.IntP("port", "p", 0, "porta HTTP")
	pflag.Parse()

	logger.Init()
	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.SetLevel(level)
	if *logDir != "" {
		if err := logger.EnableFileLogging(*logDir, "telemetria"); err != nil {
			logger.Warnf("Log em arquivo desativado: %v", err)
		}
	}
	defer logger.Sync()

	displayBanner()
	logger.Info("Iniciando Telemetria Serial")

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// Flags têm precedência sobre arquivo e ambiente
	if *portA != "" {
		cfg.ChannelA.Port = *portA
	}
	if *portB != "" {
		cfg.ChannelB.Port = *portB
	}
	if *csvPath != "" {
		cfg.Recorder.Path = *csvPath
	}
	if *httpPort != 0 {
		cfg.Server.Port = *httpPort
	}

	logger.Infof("Configuração carregada: canal A %q @ %d, canal B %q @ %d, Redis %v, PLC %v",
		cfg.ChannelA.Port, cfg.ChannelA.Baud, cfg.ChannelB.Port, cfg.ChannelB.Baud,
		cfg.Redis.Enabled, cfg.PLC.Enabled)

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _____ _____ _     _____ __  __ _____ _____ ____  ___    _
|_   _| ____| |   | ____|  \/  | ____|_   _|  _ \|_ _|  / \
  | | |  _| | |   |  _| | |\/| |  _|   | | | |_) || |  / _ \
  | | | |___| |___| |___| |  | | |___  | | |  _ < | | / ___ \
  |_| |_____|_____|_____|_|  |_|_____| |_| |_| \_\___/_/   \_\  v` + server.Version + `
                                            ANEMÔMETRO + MOTOR
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
