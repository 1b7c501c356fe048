package model

import "encoding/json"

// Metric is one entry of the per-space metric catalog.
type Metric struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Unit string      `json:"unit"`
}

// AlarmRule is one alarm rule configured for a space. Min and Max are nil
// when the rule has no lower or upper threshold.
type AlarmRule struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Metric  json.Number `json:"metric"`
	Enabled bool        `json:"enabled"`
	Min     *float64    `json:"min"`
	Max     *float64    `json:"max"`
}
