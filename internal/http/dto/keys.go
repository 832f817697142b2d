package dto

import jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"

type KeyListResponse struct {
	Backend   jwtx.Source    `json:"backend"`
	ActiveKID string         `json:"active_kid"`
	Keys      []jwtx.KeyInfo `json:"keys"`
}

type RotateRequest struct {
	KID string `json:"kid"`
}

type ExportResponse struct {
	Vars map[string]string `json:"vars"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
