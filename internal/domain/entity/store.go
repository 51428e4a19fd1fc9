package entity

import "time"

// Store representa una tienda de la organización (origen o destino de traslados).
// La administra otro subsistema; aquí solo se lee.
type Store struct {
	ID             string
	OrganizationID string
	Name           string
	Code           string
	Address        string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
