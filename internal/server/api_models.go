package server

import "github.com/raysh454/beaconcheck/internal/model"

// UploadResponse is returned for a processed CSV upload. Each row carries its
// uploaded columns plus Status ("Pass" or "Fail").
type UploadResponse struct {
	Message string       `json:"message" example:"File processed successfully!"`
	Rows    []*model.Row `json:"rows"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"No file part"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
