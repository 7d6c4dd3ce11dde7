package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/pokedex/backend/internal/logger"
)

// NotificationService pushes short messages to external services through shoutrrr
// URLs (discord://, slack://, generic+https://, ...).
type NotificationService struct {
	urls []string
	send func(url, message string) error
	wg   sync.WaitGroup
}

func NewNotificationService(urls []string) *NotificationService {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	return &NotificationService{urls: clean, send: shoutrrr.Send}
}

// Enabled reports whether at least one destination is configured.
func (s *NotificationService) Enabled() bool {
	return len(s.urls) > 0
}

// SendExternal delivers title and message to every destination in the background.
// Failures are logged.
func (s *NotificationService) SendExternal(title, message string) {
	if !s.Enabled() {
		return
	}
	// Use newline for better formatting in chat apps
	msg := fmt.Sprintf("%s\n\n%s", title, message)
	for i, u := range s.urls {
		s.wg.Add(1)
		go func(idx int, url string) {
			defer s.wg.Done()
			if err := s.send(url, msg); err != nil {
				// The URL may embed tokens, log its position only.
				logger.WithFields(logrus.Fields{"destination": idx, "title": title}).
					WithError(err).Warn("failed to send notification")
			}
		}(i, u)
	}
}

// Wait blocks until all in-flight notifications are done.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
