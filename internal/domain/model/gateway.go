package model

import (
	"encoding/json"
	"sort"
)

// Gateway is one base station from the gateways/{space} endpoint.
type Gateway struct {
	ID     json.Number `json:"id"`
	Name   string      `json:"device"`
	Serial string      `json:"serial"`
}

// Pairing joins a sensor with the gateway it is, or was, paired to.
// RemovedAt is empty for current pairings; PairedName is the sensor name
// recorded at pairing time and is only set for removed pairings.
type Pairing struct {
	SensorName    string
	SensorID      string
	PairedAt      string
	GatewayID     string
	GatewayName   string
	GatewaySerial string
	RemovedAt     string
	PairedName    string
}

// BuildPairings joins the sensors' device links with the gateway list and
// splits the result into current and removed pairings, each sorted by
// sensor name. Links pointing at a gateway missing from the list keep an
// empty gateway name and serial.
func BuildPairings(sensors []Sensor, gateways []Gateway) (current, removed []Pairing) {
	byID := make(map[string]Gateway, len(gateways))
	for _, gw := range gateways {
		byID[gw.ID.String()] = gw
	}

	for _, s := range sensors {
		for _, link := range s.Devices {
			gw := byID[link.ID.String()]
			p := Pairing{
				SensorName:    s.Name,
				SensorID:      s.ID.String(),
				PairedAt:      link.PairedAt,
				GatewayID:     link.ID.String(),
				GatewayName:   gw.Name,
				GatewaySerial: gw.Serial,
			}
			if link.RemovedAt != "" {
				p.RemovedAt = link.RemovedAt
				p.PairedName = link.SensorName
				removed = append(removed, p)
			} else {
				current = append(current, p)
			}
		}
	}

	sort.Slice(current, func(i, j int) bool { return current[i].SensorName < current[j].SensorName })
	sort.Slice(removed, func(i, j int) bool { return removed[i].SensorName < removed[j].SensorName })

	return current, removed
}
