package ingest

import "strings"

// Telemetry endpoints, the terminal topic segment
const (
	endpointStatus      = "status"
	endpointConsumption = "petfoodconsumption"
)

// parseTopic extracts the device id and endpoint from a telemetry topic of
// the form <root>/devices/<device_id>/<endpoint>
func parseTopic(topic string) (deviceID, endpoint string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[1] != "devices" || parts[2] == "" {
		return "", "", false
	}
	return parts[2], parts[len(parts)-1], true
}
