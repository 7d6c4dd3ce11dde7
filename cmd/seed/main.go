package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/config"
	"github.com/Wikid82/pokedex/backend/internal/database"
	"github.com/Wikid82/pokedex/backend/internal/logger"
	"github.com/Wikid82/pokedex/backend/internal/models"
)

// seedEntry is one element of a pokedex JSON file:
// {"id": 1, "name": {"english": ..., "french": ...}, "type": [...], "base": {...}}
type seedEntry struct {
	ID    uint               `json:"id"`
	Name  models.PokemonName `json:"name"`
	Type  []string           `json:"type"`
	Base  models.Stats       `json:"base"`
	Image string             `json:"image"`
}

type seedResult struct {
	Created  int
	Existing int
	Failed   int
}

func main() {
	file := flag.String("file", "pokedex.json", "pokedex JSON file to load")
	dbPath := flag.String("db", "", "database path (defaults to POKEDEX_DB_PATH)")
	flag.Parse()

	logger.Init(false, os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open seed file: %v", err)
	}
	defer f.Close()

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer database.Close(db)

	res, err := seed(db, f)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("✓ Seeding completed: %d created, %d already present, %d failed\n", res.Created, res.Existing, res.Failed)
}

// seed migrates the schema and inserts every entry whose id is not stored yet.
// Entries without an id or without both names are counted as failed.
func seed(db *gorm.DB, r io.Reader) (seedResult, error) {
	var res seedResult
	if err := db.AutoMigrate(&models.Pokemon{}, &models.AuditLog{}); err != nil {
		return res, fmt.Errorf("auto migrate: %w", err)
	}

	var entries []seedEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return res, fmt.Errorf("decode seed file: %w", err)
	}

	for _, e := range entries {
		fields := logrus.Fields{"id": e.ID, "english": e.Name.English}
		if e.ID == 0 || e.Name.English == "" || e.Name.French == "" {
			logger.WithFields(fields).Warn("skipping incomplete pokemon")
			res.Failed++
			continue
		}

		p := models.Pokemon{
			ID:    e.ID,
			Name:  e.Name,
			Type:  e.Type,
			Base:  e.Base,
			Image: e.Image,
		}
		result := db.Where("id = ?", p.ID).FirstOrCreate(&p)
		switch {
		case errors.Is(result.Error, gorm.ErrDuplicatedKey):
			logger.WithFields(fields).Warn("name already used by another pokemon")
			res.Failed++
		case result.Error != nil:
			logger.WithFields(fields).WithError(result.Error).Error("failed to seed pokemon")
			res.Failed++
		case result.RowsAffected > 0:
			res.Created++
		default:
			res.Existing++
		}
	}
	return res, nil
}
