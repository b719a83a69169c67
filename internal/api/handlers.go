package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"telemetria_go/internal/apperr"
	"telemetria_go/internal/models"
	"telemetria_go/internal/motor"
	"telemetria_go/internal/serial"
	"telemetria_go/internal/wind"
	"telemetria_go/pkg/logger"
	"telemetria_go/pkg/utils"
)

const (
	maxBodySize  = 64 * 1024
	queryTimeout = 2 * time.Second
)

// WindChannel é o canal A visto pela API
type WindChannel interface {
	Start(opts wind.StartOptions) error
	Stop()
	IsRunning() bool
	Status() models.ChannelStatus
	Send(text string, term serial.Terminator) error
}

// MotorChannel é o canal B visto pela API
type MotorChannel interface {
	Start(opts motor.StartOptions) error
	Stop()
	IsRunning() bool
	Status() models.ChannelStatus
	SendCommand(cmd motor.Command) error
	Zero() error
}

// Views dá acesso às visões mantidas pelo consumidor (ver monitor.View)
type Views interface {
	LiveLines(ctx context.Context, channel models.ChannelID) ([]string, bool, error)
	ClearLive(ctx context.Context, channel models.ChannelID) (bool, error)
	Chart(ctx context.Context, name string) (models.ChartSnapshot, bool, error)
	Statuses(ctx context.Context) ([]models.ChannelStatus, string, error)
	LastSample(ctx context.Context) (models.WindSample, bool, error)
}

// AngleSource é a célula compartilhada do ângulo
type AngleSource interface {
	Report() (models.AngleReport, bool)
}

// HistoryStore é o espelho no Redis
type HistoryStore interface {
	IsConnected() bool
	GetCurrent() (*models.CurrentValues, error)
	GetWindHistory(limit int) ([]models.WindSample, error)
}

// PortLister enumera as portas seriais
type PortLister func() ([]models.PortInfo, error)

// Deps são as dependências do Handler
type Deps struct {
	Wind    WindChannel
	Motor   MotorChannel
	Views   Views
	Angle   AngleSource
	History HistoryStore // opcional
	Ports   PortLister

	// Terminadores usados quando o pedido não informa um
	TerminatorA serial.Terminator
	TerminatorB serial.Terminator
}

// Handler contém os handlers HTTP para a API
type Handler struct {
	deps Deps
}

// NewHandler cria um novo handler de API
func NewHandler(deps Deps) *Handler {
	if deps.Ports == nil {
		deps.Ports = serial.ListPorts
	}
	return &Handler{deps: deps}
}

// sendARequest é o corpo de POST /api/channels/a/send
type sendARequest struct {
	Text       string `json:"text"`
	Terminator string `json:"terminator"`
}

// motorCommandRequest é o corpo de POST /api/channels/b/command
type motorCommandRequest struct {
	Mode       string `json:"mode"`
	Prefix     string `json:"prefix"`
	Value      int    `json:"value"`
	Terminator string `json:"terminator"`
}

// GetStatus retorna o estado dos dois canais
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	statuses, text, err := h.deps.Views.Statuses(ctx)
	if err != nil {
		// Consumidor indisponível: usar o status dos próprios serviços
		statuses = []models.ChannelStatus{h.deps.Wind.Status(), h.deps.Motor.Status()}
		text = ""
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"channels":   statuses,
		"statusText": text,
		"running": map[string]bool{
			"A": h.deps.Wind.IsRunning(),
			"B": h.deps.Motor.IsRunning(),
		},
		"timestamp": utils.UnixMillis(time.Now()),
	})
}

// GetPorts lista as portas seriais disponíveis
func (h *Handler) GetPorts(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	ports, err := h.deps.Ports()
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Erro ao listar portas: %v", err))
		return
	}
	if ports == nil {
		ports = []models.PortInfo{}
	}
	h.respondWithJSON(w, http.StatusOK, ports)
}

// GetCurrentData retorna a última amostra e o ângulo atual. Sem amostra
// local, tenta o Redis.
func (h *Handler) GetCurrentData(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	current := models.CurrentValues{}
	if sample, ok, err := h.deps.Views.LastSample(ctx); err == nil && ok {
		current.Sample = &sample
	}
	if report, ok := h.deps.Angle.Report(); ok {
		a := report.Angle
		current.Angle = &a
		current.AngleKnown = true
	}

	if current.Sample == nil && h.deps.History != nil && h.deps.History.IsConnected() {
		if stored, err := h.deps.History.GetCurrent(); err == nil && stored != nil {
			current.Sample = stored.Sample
			if !current.AngleKnown {
				current.Angle = stored.Angle
				current.AngleKnown = stored.AngleKnown
			}
		}
	}

	if current.Sample == nil && !current.AngleKnown {
		h.respondWithError(w, http.StatusNotFound, "Nenhum dado disponível")
		return
	}
	h.respondWithJSON(w, http.StatusOK, current)
}

// GetAngle retorna o ângulo atual ou "unknown"
func (h *Handler) GetAngle(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	report, ok := h.deps.Angle.Report()
	if !ok {
		h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"known": false})
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"known":     true,
		"angle":     report.Angle,
		"timestamp": utils.UnixMillis(report.Timestamp),
	})
}

// HandleLive atende GET /api/live/{a|b} e POST /api/live/{a|b}/clear
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "live")
	if len(parts) == 0 {
		h.respondWithError(w, http.StatusNotFound, "Canal não informado")
		return
	}
	channel, ok := parseChannel(parts[0])
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "Canal desconhecido: "+parts[0])
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	switch {
	case len(parts) == 1:
		if !h.requireMethod(w, r, http.MethodGet) {
			return
		}
		lines, _, err := h.deps.Views.LiveLines(ctx, channel)
		if err != nil {
			h.respondWithError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if lines == nil {
			lines = []string{}
		}
		h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"channel": channel, "lines": lines})

	case len(parts) == 2 && parts[1] == "clear":
		if !h.requireMethod(w, r, http.MethodPost) {
			return
		}
		if _, err := h.deps.Views.ClearLive(ctx, channel); err != nil {
			h.respondWithError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"channel": channel, "cleared": true})

	default:
		h.respondWithError(w, http.StatusNotFound, "Rota desconhecida")
	}
}

// GetChart atende GET /api/chart/{speed|direction|angle}
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}
	parts := pathParts(r.URL.Path, "chart")
	if len(parts) != 1 {
		h.respondWithError(w, http.StatusNotFound, "Série não informada")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	snap, ok, err := h.deps.Views.Chart(ctx, parts[0])
	if err != nil {
		h.respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "Série desconhecida: "+parts[0])
		return
	}
	if snap.Points == nil {
		snap.Points = []models.HistoryPoint{}
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

// GetWindHistory retorna o histórico gravado no Redis
func (h *Handler) GetWindHistory(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.respondWithError(w, http.StatusBadRequest, "limit inválido")
			return
		}
		limit = n
	}

	history := []models.WindSample{}
	if h.deps.History != nil && h.deps.History.IsConnected() {
		if stored, err := h.deps.History.GetWindHistory(limit); err == nil {
			history = stored
		} else {
			logger.Warnf("Erro ao obter histórico do Redis: %v", err)
		}
	}
	h.respondWithJSON(w, http.StatusOK, history)
}

// HandleChannel atende POST /api/channels/{a|b}/{ação}
func (h *Handler) HandleChannel(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodPost) {
		return
	}
	parts := pathParts(r.URL.Path, "channels")
	if len(parts) != 2 {
		h.respondWithError(w, http.StatusNotFound, "Rota desconhecida")
		return
	}
	channel, ok := parseChannel(parts[0])
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "Canal desconhecido: "+parts[0])
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo inválido")
		return
	}

	var status models.ChannelStatus
	switch channel {
	case models.ChannelA:
		err = h.channelA(parts[1], body)
		status = h.deps.Wind.Status()
	case models.ChannelB:
		err = h.channelB(parts[1], body)
		status = h.deps.Motor.Status()
	}

	if err != nil {
		h.respondWithAppError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, status)
}

func (h *Handler) channelA(action string, body []byte) error {
	switch action {
	case "start":
		var opts wind.StartOptions
		if err := decodeOptional(body, &opts); err != nil {
			return err
		}
		return h.deps.Wind.Start(opts)
	case "stop":
		h.deps.Wind.Stop()
		return nil
	case "send":
		var req sendARequest
		if err := decodeOptional(body, &req); err != nil {
			return err
		}
		return h.sendA(req)
	}
	return errUnknownAction(action)
}

func (h *Handler) channelB(action string, body []byte) error {
	switch action {
	case "start":
		var opts motor.StartOptions
		if err := decodeOptional(body, &opts); err != nil {
			return err
		}
		return h.deps.Motor.Start(opts)
	case "stop":
		h.deps.Motor.Stop()
		return nil
	case "command":
		var req motorCommandRequest
		if err := decodeOptional(body, &req); err != nil {
			return err
		}
		return h.sendB(req)
	case "zero":
		return h.deps.Motor.Zero()
	}
	return errUnknownAction(action)
}

func (h *Handler) sendA(req sendARequest) error {
	term, err := h.terminator(req.Terminator, h.deps.TerminatorA)
	if err != nil {
		return err
	}
	return h.deps.Wind.Send(req.Text, term)
}

func (h *Handler) sendB(req motorCommandRequest) error {
	mode, err := motor.ParseMode(req.Mode)
	if err != nil {
		return err
	}
	term, err := h.terminator(req.Terminator, h.deps.TerminatorB)
	if err != nil {
		return err
	}
	return h.deps.Motor.SendCommand(motor.Command{
		Mode:       mode,
		Prefix:     strings.ToUpper(strings.TrimSpace(req.Prefix)),
		Value:      req.Value,
		Terminator: term,
	})
}

func (h *Handler) terminator(label string, fallback serial.Terminator) (serial.Terminator, error) {
	if label == "" {
		return fallback, nil
	}
	return serial.ParseTerminator(label)
}

// HandleCommand executa comandos vindos do WebSocket
// (implementa websocket.CommandHandler)
func (h *Handler) HandleCommand(ctx context.Context, cmd models.ClientCommand) (interface{}, error) {
	switch cmd.Command {
	case "get_status":
		statuses, _, err := h.deps.Views.Statuses(ctx)
		if err != nil {
			return []models.ChannelStatus{h.deps.Wind.Status(), h.deps.Motor.Status()}, nil
		}
		return statuses, nil

	case "send_a":
		var req sendARequest
		if err := decodeParams(cmd.Params, &req); err != nil {
			return nil, err
		}
		if err := h.sendA(req); err != nil {
			return nil, err
		}
		return h.deps.Wind.Status(), nil

	case "send_b":
		var req motorCommandRequest
		if err := decodeParams(cmd.Params, &req); err != nil {
			return nil, err
		}
		if err := h.sendB(req); err != nil {
			return nil, err
		}
		return h.deps.Motor.Status(), nil
	}
	return nil, apperr.Configf("api.HandleCommand", "comando desconhecido %q", cmd.Command)
}

func errUnknownAction(action string) error {
	return apperr.Configf("api.HandleChannel", "ação desconhecida %q", action)
}

// decodeOptional aceita corpo vazio
func decodeOptional(body []byte, v interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.New(apperr.Configuration, "api.decode", err)
	}
	return nil
}

// decodeParams converte os parâmetros genéricos de um comando WebSocket
func decodeParams(params map[string]interface{}, v interface{}) error {
	if len(params) == 0 {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return apperr.New(apperr.Configuration, "api.params", err)
	}
	return decodeOptional(data, v)
}

// pathParts retorna os segmentos após /<resource>/
func pathParts(path, resource string) []string {
	marker := "/" + resource + "/"
	i := strings.Index(path, marker)
	if i < 0 {
		return nil
	}
	rest := strings.Trim(path[i+len(marker):], "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func parseChannel(s string) (models.ChannelID, bool) {
	switch strings.ToUpper(s) {
	case "A":
		return models.ChannelA, true
	case "B":
		return models.ChannelB, true
	}
	return "", false
}

func (h *Handler) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return false
	}
	return true
}

// respondWithAppError mapeia a categoria do erro para o código HTTP
func (h *Handler) respondWithAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	code := http.StatusInternalServerError
	switch kind {
	case apperr.Configuration, apperr.MalformedFrame:
		code = http.StatusBadRequest
	case apperr.Timeout:
		code = http.StatusGatewayTimeout
	case apperr.ClosedHandle:
		code = http.StatusConflict
	case apperr.IOFailure:
		code = http.StatusBadGateway
	}

	h.respondWithJSON(w, code, map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
