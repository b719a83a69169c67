package server

import (
	"encoding/json"
	"net/http"
	"time"

	"telemetria_go/internal/api"
	"telemetria_go/internal/discovery"
	"telemetria_go/internal/websocket"
	"telemetria_go/pkg/utils"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() {
	wsHandler := websocket.NewHandler(s.wsHub)

	apiRouter := api.NewRouter(s.apiHandler, "/api")
	apiRouter.Setup()

	wrap := api.Chain(api.RecoveryMiddleware, api.CorsMiddleware)

	s.router.Handle("/health", wrap(http.HandlerFunc(s.healthHandler)))
	s.router.Handle("/info", wrap(http.HandlerFunc(s.infoHandler)))
	s.router.Handle("/api/discover", wrap(http.HandlerFunc(s.discoverHandler)))
	s.router.Handle("/api/server-info", wrap(http.HandlerFunc(s.serverInfoHandler)))

	// WebSocket
	s.router.Handle("/ws", wsHandler)
	s.router.HandleFunc("/ws/health", wsHandler.GetHealthHandler())

	// API REST
	s.router.Handle("/api/", apiRouter.Handler())

	// Interface estática (opcional)
	s.router.Handle("/", http.FileServer(http.Dir("./static")))
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	channelState := func(running bool) string {
		if running {
			return "ok"
		}
		return "stopped"
	}

	redisStatus := "disabled"
	if s.config.Redis.Enabled {
		redisStatus = "ok"
		if !s.redisService.IsConnected() {
			redisStatus = "offline"
		}
	}

	plcStatus := "disabled"
	if s.plcService != nil {
		plcStatus = "offline"
		if s.plcService.IsRunning() {
			plcStatus = "ok"
		}
	}

	discoveryStatus := "disabled"
	if s.discoveryService != nil {
		discoveryStatus = "offline"
		if s.discoveryService.IsRunning() {
			discoveryStatus = "ok"
		}
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"services": map[string]string{
			"channelA":  channelState(s.windService.IsRunning()),
			"channelB":  channelState(s.motorService.IsRunning()),
			"redis":     redisStatus,
			"plc":       plcStatus,
			"websocket": "ok",
			"discovery": discoveryStatus,
		},
		"dispatcher": s.dispatcher.Stats(),
	}

	if redisStatus == "offline" || plcStatus == "offline" {
		response["status"] = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()
	uptime := utils.FormatDuration(time.Since(info.StartTime))

	response := map[string]interface{}{
		"name":        "Telemetria Serial",
		"version":     info.Version,
		"ip":          info.IP,
		"port":        info.Port,
		"websocket":   info.WebSocketURL,
		"api":         info.APIURL,
		"startTime":   info.StartTime,
		"uptime":      uptime,
		"connections": info.Connections,
	}

	json.NewEncoder(w).Encode(response)
}

// serverInfoHandler retorna informações completas sobre o servidor
func (s *Server) serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()
	uptime := utils.FormatDuration(time.Since(info.StartTime))

	discoveryInfo := map[string]interface{}{
		"enabled":     s.discoveryService != nil,
		"serviceType": discovery.ServiceType,
	}
	if s.discoveryService != nil {
		discoveryInfo["running"] = s.discoveryService.IsRunning()
		discoveryInfo["instanceName"] = s.discoveryService.GetInstanceName()
	}

	services := map[string]interface{}{
		"channelA": map[string]interface{}{
			"running": s.windService.IsRunning(),
			"stats":   s.windService.Stats(),
		},
		"channelB": map[string]interface{}{
			"running": s.motorService.IsRunning(),
			"stats":   s.motorService.Stats(),
		},
		"redis":     s.redisService.Stats(),
		"websocket": s.wsHub.Stats(),
	}
	if s.plcService != nil {
		services["plc"] = s.plcService.Stats()
	}

	response := map[string]interface{}{
		"server": map[string]interface{}{
			"name":        "Telemetria Serial",
			"version":     info.Version,
			"ip":          info.IP,
			"port":        info.Port,
			"websocket":   info.WebSocketURL,
			"api":         info.APIURL,
			"startTime":   info.StartTime,
			"uptime":      uptime,
			"connections": info.Connections,
		},
		"discovery": discoveryInfo,
		"services":  services,
	}

	json.NewEncoder(w).Encode(response)
}

// discoverHandler fornece informações para descoberta manual
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"name":        "Telemetria Serial",
		"ip":          info.IP,
		"port":        info.Port,
		"wsUrl":       info.WebSocketURL,
		"apiUrl":      info.APIURL,
		"version":     info.Version,
		"wsEndpoint":  "/ws",
		"apiEndpoint": "/api",
	}

	json.NewEncoder(w).Encode(response)
}
