package dto

type ErrorResponseDTO struct {
	Error string `json:"error"`
}

type HealthResponseDTO struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
