package models

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/util"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditActionForMethod maps a mutating HTTP method to its audit action.
func AuditActionForMethod(method string) (AuditAction, bool) {
	switch method {
	case http.MethodPost:
		return AuditActionCreate, true
	case http.MethodPut:
		return AuditActionUpdate, true
	case http.MethodDelete:
		return AuditActionDelete, true
	}
	return "", false
}

// AuditLog records the outcome of one mutating request. Rows are append-only.
type AuditLog struct {
	ID             uint        `json:"-" gorm:"primaryKey"`
	UUID           string      `json:"id" gorm:"uniqueIndex"`
	Action         AuditAction `json:"action" gorm:"index"`
	PokemonName    string      `json:"pokemonName"`
	PokemonNameKey string      `json:"-" gorm:"index"`
	SourceIP       string      `json:"sourceIp"`
	StatusCode     int         `json:"statusCode"`
	CreatedAt      time.Time   `json:"createdAt" gorm:"index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.UUID == "" {
		a.UUID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.PokemonNameKey = util.NameKey(a.PokemonName)
	return
}
