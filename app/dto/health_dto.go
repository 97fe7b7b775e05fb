package dto

type HealthResponse struct {
	Status   string            `json:"status" example:"ok"`
	Version  string            `json:"version" example:"1.0.0"`
	Time     string            `json:"time" example:"2024-04-01T10:30:00Z"`
	Services map[string]string `json:"services"`
}
