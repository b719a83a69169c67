package serial

import (
	"sort"

	"go.bug.st/serial/enumerator"

	"telemetria_go/internal/models"
)

// ListPorts enumera as portas seriais presentes, ordenadas pelo nome
func ListPorts() ([]models.PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	ports := make([]models.PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, models.PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}
