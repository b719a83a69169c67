package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"telemetria_go/internal/models"
)

type stubCommands struct {
	sent []string
}

func (s *stubCommands) HandleCommand(ctx context.Context, cmd models.ClientCommand) (interface{}, error) {
	switch cmd.Command {
	case "get_status":
		return []models.ChannelStatus{
			{Channel: models.ChannelA, State: models.StateOpen, Text: "A: Logging on COM3 @ 115200 → wind.csv"},
		}, nil
	case "send_a":
		text, _ := cmd.Params["text"].(string)
		s.sent = append(s.sent, text)
		return map[string]interface{}{"sent": text}, nil
	}
	return nil, errors.New("B: Not connected - press Connect B first.")
}

func startHub(t *testing.T, handler CommandHandler) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub()
	hub.SetCommandHandler(handler)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := httptest.NewServer(NewHandler(hub))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

// pending guarda as mensagens de um quadro que sobraram depois da última
// leitura, por conexão
var (
	pendingMu sync.Mutex
	pending   = map[*websocket.Conn][]string{}
)

// nextMessage devolve a próxima mensagem da conexão. Um quadro pode trazer
// várias mensagens separadas por '\n'; as restantes ficam em pending.
func nextMessage(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()

	pendingMu.Lock()
	queue := pending[conn]
	if len(queue) == 0 {
		pendingMu.Unlock()
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("aguardando %q: %v", msgType, err)
		}
		queue = strings.Split(string(data), "\n")
		pendingMu.Lock()
	}
	part := queue[0]
	pending[conn] = queue[1:]
	pendingMu.Unlock()

	var msg map[string]interface{}
	if err := json.Unmarshal([]byte(part), &msg); err != nil {
		t.Fatalf("mensagem inválida %q: %v", part, err)
	}
	return msg
}

// readUntil consome mensagens até encontrar uma do tipo pedido
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if msg := nextMessage(t, conn, msgType); msg["type"] == msgType {
			return msg
		}
	}
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clientes = %d, esperado %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWelcomeAndInitialStatus(t *testing.T) {
	_, conn := startHub(t, &stubCommands{})

	welcome := readUntil(t, conn, TypeWelcome)
	data := welcome["data"].(map[string]interface{})
	if data["clientId"] == "" {
		t.Error("welcome sem clientId")
	}

	status := readUntil(t, conn, TypeStatus)
	st := status["status"].(map[string]interface{})
	if st["channel"] != "A" || st["state"] != "open" {
		t.Errorf("status inicial = %v", st)
	}
}

func TestPingPong(t *testing.T) {
	_, conn := startHub(t, nil)
	readUntil(t, conn, TypeWelcome)

	conn.WriteJSON(map[string]interface{}{"type": "ping", "params": map[string]interface{}{"time": 1234}})
	pong := readUntil(t, conn, TypePong)
	if pong["time"].(float64) != 1234 {
		t.Errorf("pong = %v", pong)
	}
}

func TestBroadcastSampleAndLine(t *testing.T) {
	hub, conn := startHub(t, nil)
	readUntil(t, conn, TypeWelcome)
	waitClients(t, hub, 1)

	hub.PublishSample(models.SampleEvent{
		Sample: models.WindSample{Timestamp: time.Now(), Speed: 3.45, Direction: 270},
		Angle:  90, AngleKnown: true,
	})
	msg := readUntil(t, conn, TypeWindSample)
	if msg["speed"].(float64) != 3.45 || msg["angle"].(float64) != 90 {
		t.Errorf("wind_sample = %v", msg)
	}

	hub.PublishLine(models.ChannelB, "motor now at 90 deg")
	line := readUntil(t, conn, TypeLine)
	if line["channel"] != "B" || line["line"] != "motor now at 90 deg" {
		t.Errorf("line = %v", line)
	}
}

func TestClientCommands(t *testing.T) {
	stub := &stubCommands{}
	_, conn := startHub(t, stub)
	readUntil(t, conn, TypeWelcome)

	conn.WriteJSON(map[string]interface{}{"type": "send_a", "id": "r1", "params": map[string]interface{}{"text": "HELLO"}})
	result := readUntil(t, conn, TypeCommandResult)
	data := result["data"].(map[string]interface{})
	if data["command"] != "send_a" || data["requestId"] != "r1" {
		t.Errorf("command_result = %v", data)
	}

	conn.WriteJSON(map[string]interface{}{"type": "send_b", "params": map[string]interface{}{"value": 90}})
	errMsg := readUntil(t, conn, TypeError)
	if !strings.Contains(errMsg["error"].(string), "Not connected") {
		t.Errorf("erro = %v", errMsg)
	}

	conn.WriteJSON(map[string]interface{}{"type": "reboot"})
	unknown := readUntil(t, conn, TypeError)
	if unknown["data"].(map[string]interface{})["code"] != "unknown_command" {
		t.Errorf("erro = %v", unknown)
	}
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	hub, conn := startHub(t, nil)
	readUntil(t, conn, TypeWelcome)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)
}
