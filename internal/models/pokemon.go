package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/util"
)

// PokemonName holds the localized names of a Pokemon. English and French are required.
type PokemonName struct {
	English  string `json:"english" gorm:"column:english;index"`
	French   string `json:"french" gorm:"column:french"`
	Japanese string `json:"japanese,omitempty" gorm:"column:japanese"`
	Chinese  string `json:"chinese,omitempty" gorm:"column:chinese"`
}

// Stats maps a base stat name ("HP", "Attack", ...) to its value.
type Stats map[string]int

// Pokemon is a record of the pokedex collection. The ID is assigned by the
// application, never by the database.
type Pokemon struct {
	ID    uint                        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name  PokemonName                 `json:"name" gorm:"embedded;embeddedPrefix:name_"`
	Type  datatypes.JSONSlice[string] `json:"type"`
	Base  Stats                       `json:"base" gorm:"serializer:json"`
	Image string                      `json:"image"`

	// Derived lookup columns, recomputed on every save. The unique indexes are the
	// store-level guard against two records sharing a name in the same locale.
	EnglishKey  string `json:"-" gorm:"uniqueIndex;not null"`
	FrenchKey   string `json:"-" gorm:"uniqueIndex;not null"`
	EnglishFold string `json:"-" gorm:"index"`
	FrenchFold  string `json:"-" gorm:"index"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeSave refreshes the derived lookup columns.
func (p *Pokemon) BeforeSave(tx *gorm.DB) error {
	p.EnglishKey = util.NameKey(p.Name.English)
	p.FrenchKey = util.NameKey(p.Name.French)
	p.EnglishFold = util.Fold(p.Name.English)
	p.FrenchFold = util.Fold(p.Name.French)
	if p.Type == nil {
		p.Type = datatypes.JSONSlice[string]{}
	}
	if p.Base == nil {
		p.Base = Stats{}
	}
	return nil
}
