package discovery

import (
	"fmt"
	"net"
	"os"
	"sort"
	"sync"

	"github.com/grandcat/zeroconf"

	"telemetria_go/pkg/logger"
)

const (
	// ServiceDomain é o domínio para descoberta na rede
	ServiceDomain = "local."

	// ServiceType define o tipo de serviço
	ServiceType = "_telemetria._tcp"

	// Version é anunciada no registro TXT
	Version = "1.0"
)

// DiscoveryService anuncia o servidor de telemetria na rede local via mDNS
type DiscoveryService struct {
	server       *zeroconf.Server
	mutex        sync.Mutex
	instanceName string
	port         int
	running      bool
	serverIP     string
	extra        map[string]string
}

// NewDiscoveryService cria um novo serviço de descoberta. Um instanceName
// vazio usa "<hostname>-telemetria".
func NewDiscoveryService(port int, instanceName string) *DiscoveryService {
	if instanceName == "" {
		hostname, _ := os.Hostname()
		instanceName = fmt.Sprintf("%s-telemetria", hostname)
	}

	return &DiscoveryService{
		port:         port,
		instanceName: instanceName,
		extra:        map[string]string{},
	}
}

// Start inicia o serviço de descoberta
func (s *DiscoveryService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	ip, err := getLocalIP()
	if err != nil {
		return fmt.Errorf("erro ao obter IP local: %w", err)
	}
	s.serverIP = ip

	server, err := zeroconf.Register(
		s.instanceName,
		ServiceType,
		ServiceDomain,
		s.port,
		s.txtLocked(),
		nil, // todas as interfaces
	)
	if err != nil {
		return fmt.Errorf("erro ao registrar serviço de descoberta: %w", err)
	}

	s.server = server
	s.running = true

	logger.Infof("Serviço de descoberta iniciado em %s:%d (mDNS: %s.%s)",
		ip, s.port, s.instanceName, ServiceType)

	return nil
}

// SetAttribute altera um campo do registro TXT (por exemplo a porta do
// canal A em uso) e reanuncia se o serviço estiver ativo
func (s *DiscoveryService) SetAttribute(key, value string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if value == "" {
		delete(s.extra, key)
	} else {
		s.extra[key] = value
	}
	if s.server != nil {
		s.server.SetText(s.txtLocked())
	}
}

func (s *DiscoveryService) txtLocked() []string {
	return buildTXT(s.serverIP, s.extra)
}

// buildTXT monta o registro TXT com campos fixos primeiro e os extras em
// ordem alfabética
func buildTXT(ip string, extra map[string]string) []string {
	txt := []string{
		"version=" + Version,
		"ip=" + ip,
		"name=Telemetria Serial",
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		txt = append(txt, k+"="+extra[k])
	}
	return txt
}

// Stop para o serviço de descoberta
func (s *DiscoveryService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	if s.server != nil {
		s.server.Shutdown()
		s.server = nil
	}
	s.running = false

	logger.Info("Serviço de descoberta parado")
}

// GetServerIP retorna o IP do servidor
func (s *DiscoveryService) GetServerIP() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.serverIP == "" {
		if ip, err := getLocalIP(); err == nil {
			return ip
		}
	}
	return s.serverIP
}

// GetPort retorna a porta do servidor
func (s *DiscoveryService) GetPort() int {
	return s.port
}

// GetInstanceName retorna o nome da instância do serviço
func (s *DiscoveryService) GetInstanceName() string {
	return s.instanceName
}

// IsRunning verifica se o serviço está em execução
func (s *DiscoveryService) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// getLocalIP obtém o primeiro endereço IPv4 que não é loopback
func getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "", fmt.Errorf("não foi possível determinar o endereço IP local")
}
