package websocket

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"telemetria_go/internal/models"
	"telemetria_go/pkg/logger"
)

// CommandHandler executa comandos dos clientes que atuam nos canais
// ("get_status", "send_a", "send_b"). O resultado é enviado apenas ao
// cliente solicitante.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd models.ClientCommand) (interface{}, error)
}

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comandos recebidos dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	handler   CommandHandler
	handlerMu sync.RWMutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex
	dropped   atomic.Int64

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		commands:   make(chan models.ClientCommand, 100),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetCommandHandler define quem executa os comandos dos clientes
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.handlerMu.Lock()
	h.handler = handler
	h.handlerMu.Unlock()
}

func (h *Hub) commandHandler() CommandHandler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.handler
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	defer close(h.done)
	logger.Info("Iniciando WebSocket Hub")

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			go h.sendInitialDataToClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			h.mu.RLock()
			deadClients := make([]*Client, 0, 4)
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Canal do cliente está cheio, marcar para desconexão
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range deadClients {
				h.removeClient(client)
			}

		case cmd := <-h.commands:
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()
			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			logger.Debugf("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				h.ClientCount(), mps, total)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
	}
}

// queue coloca a mensagem na fila de broadcast sem bloquear o chamador
func (h *Hub) queue(message interface{}, kind string) {
	jsonMessage, err := SerializeMessage(message)
	if err != nil {
		logger.Error("Erro ao serializar mensagem de "+kind, err)
		return
	}

	select {
	case h.broadcast <- jsonMessage:
	default:
		if h.dropped.Inc()%100 == 1 {
			logger.Warnf("Fila de broadcast cheia, mensagens descartadas: %d", h.dropped.Load())
		}
	}
}

// PublishSample envia uma amostra de vento para todos os clientes
func (h *Hub) PublishSample(ev models.SampleEvent) {
	h.queue(NewWindSampleMessage(ev), TypeWindSample)
}

// PublishAngle envia um novo ângulo para todos os clientes
func (h *Hub) PublishAngle(r models.AngleReport) {
	h.queue(NewAngleMessage(r), TypeAngle)
}

// PublishLine envia uma linha da visão ao vivo para todos os clientes
func (h *Hub) PublishLine(channel models.ChannelID, line string) {
	h.queue(NewLineMessage(channel, line), TypeLine)
}

// PublishStatus envia atualização de status para todos os clientes
func (h *Hub) PublishStatus(status models.ChannelStatus) {
	h.queue(NewStatusMessage(status), TypeStatus)
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Debugf("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	if cmd.Command == TypePing {
		h.sendPong(cmd.ClientID, cmd.Params)
		return
	}

	handler := h.commandHandler()
	if handler == nil {
		h.sendToID(cmd.ClientID, NewErrorMessage("Comando indisponível: "+cmd.Command, "unavailable"))
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	result, err := handler.HandleCommand(ctx, cmd)
	if err != nil {
		logger.Warnf("Comando %s do cliente %s falhou: %v", cmd.Command, cmd.ClientID, err)
		h.sendToID(cmd.ClientID, NewErrorMessage(err.Error(), cmd.Command))
		return
	}

	h.sendToID(cmd.ClientID, models.WebSocketMessage{
		Type:      TypeCommandResult,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"command":   cmd.Command,
			"requestId": cmd.Params["requestId"],
			"result":    result,
		},
	})
}

// sendPong envia resposta de pong para um cliente específico
func (h *Hub) sendPong(clientID string, params map[string]interface{}) {
	var pingTime int64
	if timeVal, ok := params["time"].(float64); ok {
		pingTime = int64(timeVal)
	}
	h.sendToID(clientID, CreatePongResponse(pingTime))
}

// sendInitialDataToClient envia boas-vindas e o status atual dos canais
func (h *Hub) sendInitialDataToClient(client *Client) {
	welcome := models.WebSocketMessage{
		Type:      TypeWelcome,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado ao servidor de telemetria",
			"clientId": client.id,
		},
	}
	h.sendTo(client, welcome)

	handler := h.commandHandler()
	if handler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()

	result, err := handler.HandleCommand(ctx, models.ClientCommand{Command: "get_status", ClientID: client.id})
	if err != nil {
		return
	}
	if statuses, ok := result.([]models.ChannelStatus); ok {
		for _, st := range statuses {
			h.sendTo(client, NewStatusMessage(st))
		}
	}
}

// sendTo envia somente se o cliente ainda estiver registrado
func (h *Hub) sendTo(client *Client, message interface{}) {
	jsonMsg, err := SerializeMessage(message)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- jsonMsg:
	default:
	}
}

func (h *Hub) sendToID(clientID string, message interface{}) {
	if client := h.getClientByID(clientID); client != nil {
		h.sendTo(client, message)
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
	}
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats retorna estatísticas do hub
func (h *Hub) Stats() map[string]interface{} {
	h.statsLock.Lock()
	defer h.statsLock.Unlock()
	return map[string]interface{}{
		"clients":           h.ClientCount(),
		"totalClients":      h.stats.totalClients,
		"totalMessages":     h.stats.totalMessages,
		"messagesPerSecond": h.stats.messagesPerSecond,
		"dropped":           h.dropped.Load(),
	}
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}
