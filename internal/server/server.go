package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"telemetria_go/internal/angle"
	"telemetria_go/internal/api"
	"telemetria_go/internal/config"
	"telemetria_go/internal/discovery"
	"telemetria_go/internal/dispatch"
	"telemetria_go/internal/models"
	"telemetria_go/internal/monitor"
	"telemetria_go/internal/motor"
	"telemetria_go/internal/plc"
	"telemetria_go/internal/redis"
	"telemetria_go/internal/serial"
	"telemetria_go/internal/websocket"
	"telemetria_go/internal/wind"
	"telemetria_go/pkg/logger"
)

// Version é a versão anunciada em /info e /api/discover
const Version = "1.0.0"

// Server encapsula o servidor HTTP com todos os componentes
type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *http.ServeMux
	opener     serial.Opener

	// Pipeline
	cell         *angle.Cell
	dispatcher   *dispatch.Dispatcher
	monitor      *monitor.Monitor
	view         *monitor.View
	windService  *wind.Service
	motorService *motor.Service

	// Publicadores e superfícies
	redisService     *redis.Service
	plcService       *plc.PLCService
	wsHub            *websocket.Hub
	discoveryService *discovery.DiscoveryService
	apiHandler       *api.Handler

	ctx        context.Context
	cancel     context.CancelFunc
	serverInfo ServerInfo
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor. Cada canal abre a porta
// com o driver da sua configuração.
func NewServer(cfg *config.Config) (*Server, error) {
	for _, driver := range []string{cfg.ChannelA.Driver, cfg.ChannelB.Driver} {
		if _, err := serial.OpenerFor(driver); err != nil {
			return nil, err
		}
	}
	return newServer(cfg, serial.DriverOpener)
}

func newServer(cfg *config.Config, opener serial.Opener) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		config: cfg,
		router: http.NewServeMux(),
		opener: opener,
		ctx:    ctx,
		cancel: cancel,
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   Version,
			Port:      cfg.Server.Port,
		},
	}

	ip := getLocalIP()
	server.serverInfo.IP = ip
	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	if err := server.initComponents(); err != nil {
		cancel()
		return nil, err
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes do servidor
func (s *Server) initComponents() error {
	// Consumidor único e sua fila
	s.cell = angle.NewCell()
	s.monitor = monitor.New(s.config.Live)
	s.dispatcher = dispatch.New(s.config.Dispatcher.QueueSize, s.monitor.Handle)
	s.view = monitor.NewView(s.monitor, s.dispatcher)

	// Canais seriais
	s.windService = wind.NewService(s.config.ChannelA, s.config.Recorder, s.cell, s.dispatcher, s.opener)
	s.motorService = motor.NewService(s.config.ChannelB, s.config.Pattern, s.cell, s.dispatcher, s.opener, s.windService)

	// Hub WebSocket
	s.wsHub = websocket.NewHub()
	go s.wsHub.Run()
	s.monitor.AddPublisher(s.wsHub)

	// Redis
	redisService, err := redis.NewService(s.config.Redis)
	if err != nil {
		return fmt.Errorf("erro ao inicializar serviço Redis: %w", err)
	}
	s.redisService = redisService
	if s.config.Redis.Enabled {
		s.monitor.AddPublisher(s.redisService)
	}

	// PLC
	if s.config.PLC.Enabled {
		s.plcService = plc.NewPLCService(s.config.PLC)
		s.monitor.AddPublisher(s.plcService)
	}

	// Descoberta
	if s.config.Discovery.Enabled {
		s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port, s.config.Discovery.InstanceName)
		s.monitor.AddPublisher(discoveryPublisher{s.discoveryService})
	}

	termA, err := serial.ParseTerminator(s.config.ChannelA.Terminator)
	if err != nil {
		return err
	}
	termB, err := serial.ParseTerminator(s.config.ChannelB.Terminator)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Wind:        s.windService,
		Motor:       s.motorService,
		Views:       s.view,
		Angle:       s.cell,
		TerminatorA: termA,
		TerminatorB: termB,
	}
	if s.config.Redis.Enabled {
		deps.History = s.redisService
	}
	s.apiHandler = api.NewHandler(deps)
	s.wsHub.SetCommandHandler(s.apiHandler)

	// Publicadores registrados: o consumidor pode começar
	go s.dispatcher.Run(s.ctx)

	return nil
}

// discoveryPublisher anuncia as portas em uso no registro TXT
type discoveryPublisher struct {
	svc *discovery.DiscoveryService
}

func (p discoveryPublisher) PublishStatus(st models.ChannelStatus) {
	p.svc.SetAttribute("port"+string(st.Channel), st.Port)
}

// Start inicia o servidor e todos os serviços
func (s *Server) Start() error {
	if s.discoveryService != nil {
		if err := s.discoveryService.Start(); err != nil {
			logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		}
	}

	if s.plcService != nil {
		if err := s.plcService.Start(); err != nil {
			logger.Errorf("Erro ao iniciar serviço PLC: %v", err)
		}
	}

	s.autoStartChannels()
	s.logServerInfo()

	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// autoStartChannels abre os canais marcados com autoStart. Falhas não
// impedem o servidor de subir.
func (s *Server) autoStartChannels() {
	if s.config.ChannelA.AutoStart {
		if err := s.windService.Start(wind.StartOptions{}); err != nil {
			logger.Errorf("Erro ao iniciar canal A: %v", err)
		}
	}
	if s.config.ChannelB.AutoStart {
		if err := s.motorService.Start(motor.StartOptions{}); err != nil {
			logger.Errorf("Erro ao conectar canal B: %v", err)
		}
	}
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
		}
	}

	// Canais primeiro: nenhum evento novo depois disso
	s.windService.Stop()
	s.motorService.Stop()

	s.dispatcher.Close()
	select {
	case <-s.dispatcher.Done():
	case <-ctx.Done():
		logger.Warn("Tempo esgotado aguardando o despachante")
	}
	s.cancel()

	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}
	if s.plcService != nil {
		s.plcService.Shutdown()
	}
	if s.wsHub != nil {
		s.wsHub.Shutdown()
	}
	if s.redisService != nil {
		s.redisService.Shutdown()
	}

	logger.Info("Shutdown completo")
	return nil
}

// getLocalIP obtém o endereço IP local
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}

	return "localhost"
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("             Telemetria Serial Server          ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("Canal A: %s @ %d (%s)", s.config.ChannelA.Port, s.config.ChannelA.Baud, s.config.ChannelA.Driver)
	logger.Infof("Canal B: %s @ %d (%s)", s.config.ChannelB.Port, s.config.ChannelB.Baud, s.config.ChannelB.Driver)
	logger.Infof("Fila: %s", s.dispatcher)
	if s.discoveryService != nil {
		logger.Infof("mDNS: %s.%s.%s",
			s.discoveryService.GetInstanceName(),
			discovery.ServiceType,
			discovery.ServiceDomain)
	}
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
