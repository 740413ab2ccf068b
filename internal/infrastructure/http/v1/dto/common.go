// Package dto defines request/response shapes for the v1 API.
package dto

import "gasledger/internal/core/anomaly"

// AnomalyResponse is the wire shape of one anomaly.
type AnomalyResponse struct {
	Kind     string         `json:"kind"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// Anomalies maps a report onto the wire shape.
func Anomalies(report anomaly.Report) []AnomalyResponse {
	all := report.All()
	out := make([]AnomalyResponse, 0, len(all))
	for _, a := range all {
		out = append(out, AnomalyResponse{
			Kind:     string(a.Kind),
			Severity: string(a.Severity),
			Message:  a.Message,
			Details:  a.Details,
		})
	}
	return out
}
