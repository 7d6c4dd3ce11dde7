package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/logger"
	"github.com/Wikid82/pokedex/backend/internal/metrics"
	"github.com/Wikid82/pokedex/backend/internal/models"
)

// AssetJanitor removes stored images whose record was deleted or purged.
type AssetJanitor struct {
	db        *gorm.DB
	assetsDir string
	Cron      *cron.Cron
}

// NewAssetJanitor schedules Sweep with a cron spec ("@every 1h", "0 3 * * *").
// An empty schedule registers no job; Sweep can still be called directly.
func NewAssetJanitor(db *gorm.DB, assetsDir, schedule string) (*AssetJanitor, error) {
	j := &AssetJanitor{db: db, assetsDir: assetsDir, Cron: cron.New()}
	if schedule == "" {
		return j, nil
	}
	_, err := j.Cron.AddFunc(schedule, func() {
		n, err := j.Sweep()
		if err != nil {
			logger.Log().WithError(err).Error("asset sweep failed")
			return
		}
		if n > 0 {
			logger.Log().WithField("removed", n).Info("removed orphaned assets")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule asset sweep: %w", err)
	}
	return j, nil
}

func (j *AssetJanitor) Start() { j.Cron.Start() }

// Stop halts the scheduler and waits for a running sweep.
func (j *AssetJanitor) Stop() { <-j.Cron.Stop().Done() }

// Sweep deletes files named <id><ext> in the assets directory when no record with
// that id exists, and returns how many were removed. Other files are left alone.
func (j *AssetJanitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.assetsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read assets dir: %w", err)
	}

	files := map[uint][]string{}
	ids := []uint{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		id, err := strconv.ParseUint(stem, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		if _, seen := files[uint(id)]; !seen {
			ids = append(ids, uint(id))
		}
		files[uint(id)] = append(files[uint(id)], e.Name())
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var existing []uint
	if err := j.db.Model(&models.Pokemon{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return 0, fmt.Errorf("load pokemon ids: %w", err)
	}
	for _, id := range existing {
		delete(files, id)
	}

	removed := 0
	for _, names := range files {
		for _, name := range names {
			if err := os.Remove(filepath.Join(j.assetsDir, name)); err != nil && !os.IsNotExist(err) {
				logger.Log().WithField("file", name).WithError(err).Warn("failed to remove orphaned asset")
				continue
			}
			removed++
		}
	}
	metrics.AddAssetsSwept(removed)
	return removed, nil
}
