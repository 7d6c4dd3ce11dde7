package services

import (
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/logger"
	"github.com/Wikid82/pokedex/backend/internal/metrics"
	"github.com/Wikid82/pokedex/backend/internal/models"
	"github.com/Wikid82/pokedex/backend/internal/util"
)

const (
	DefaultAuditLimit = 20
	MaxAuditLimit     = 100
)

// AuditService persists audit entries from a background worker. Record never
// blocks the caller and its outcome is never reported back to it.
type AuditService struct {
	db    *gorm.DB
	queue chan models.AuditLog

	mu      sync.RWMutex
	closed  bool
	started sync.Once
	wg      sync.WaitGroup
}

func NewAuditService(db *gorm.DB, buffer int) *AuditService {
	if buffer <= 0 {
		buffer = 1
	}
	return &AuditService{
		db:    db,
		queue: make(chan models.AuditLog, buffer),
	}
}

// Start launches the writer. Calling it more than once has no effect.
func (s *AuditService) Start() {
	s.started.Do(func() {
		s.wg.Add(1)
		go s.run()
	})
}

// Record enqueues an entry. It returns false when the entry was dropped because the
// queue is full or the service is closed.
func (s *AuditService) Record(entry models.AuditLog) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.IncAuditDropped()
		return false
	}
	select {
	case s.queue <- entry:
		return true
	default:
		metrics.IncAuditDropped()
		logger.WithFields(logrus.Fields{
			"action":  entry.Action,
			"pokemon": util.SanitizeForLog(entry.PokemonName),
			"status":  entry.StatusCode,
		}).Warn("audit queue full, dropping entry")
		return false
	}
}

// Close stops accepting entries, writes everything already queued and waits for
// the writer to finish.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	// Drain even if Start was never called.
	s.Start()
	s.wg.Wait()
}

func (s *AuditService) run() {
	defer s.wg.Done()
	for entry := range s.queue {
		s.write(entry)
	}
}

func (s *AuditService) write(entry models.AuditLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		metrics.IncAuditFailed()
		logger.WithFields(logrus.Fields{
			"action":  entry.Action,
			"pokemon": util.SanitizeForLog(entry.PokemonName),
			"status":  entry.StatusCode,
		}).WithError(err).Error("failed to write audit entry")
		return
	}
	metrics.IncAuditWritten()
}

// ListByName returns the newest entries whose subject matches name, ignoring case.
// Zero selects DefaultAuditLimit, other values are clamped to 1..MaxAuditLimit.
func (s *AuditService) ListByName(name string, limit int) ([]models.AuditLog, error) {
	if limit == 0 {
		limit = DefaultAuditLimit
	}
	limit = ClampAuditLimit(limit)
	res := []models.AuditLog{}
	err := s.db.
		Where("pokemon_name_key = ?", util.NameKey(name)).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ClampAuditLimit bounds a requested audit page size to 1..MaxAuditLimit.
func ClampAuditLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxAuditLimit:
		return MaxAuditLimit
	}
	return limit
}
