package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Checker is an upstream that can test its own credentials.
type Checker interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
}

// Service tracks the health of the upstream APIs.
// All state is in-memory and resets on application restart.
type Service struct {
	items       map[string]*HealthItem
	order       []string
	checkers    map[string]Checker
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		items:    make(map[string]*HealthItem),
		checkers: make(map[string]Checker),
		logger:   logger.With().Str("component", "health").Logger(),
	}
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Register adds an upstream to health tracking with OK status.
func (s *Service) Register(id string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = &HealthItem{ID: id, Name: checker.Name(), Status: StatusOK}
	s.checkers[id] = checker

	s.logger.Debug().Str("id", id).Str("name", checker.Name()).Msg("Registered health item")
}

// SetError sets an item to Error status with a message.
func (s *Service) SetError(id, message string) {
	s.setStatus(id, StatusError, message)
}

// SetWarning sets an item to Warning status with a message.
func (s *Service) SetWarning(id, message string) {
	s.setStatus(id, StatusWarning, message)
}

// ClearStatus resets an item to OK status.
func (s *Service) ClearStatus(id string) {
	s.setStatus(id, StatusOK, "")
}

func (s *Service) setStatus(id string, status HealthStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		s.logger.Warn().Str("id", id).Msg("Attempted to update status for unregistered item")
		return
	}

	// Only update if status changed
	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	s.logger.Info().
		Str("id", id).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if s.broadcaster != nil {
		_ = s.broadcaster.Broadcast(EventHealthUpdated, *item)
	}
}

// GetAll returns every item in registration order.
func (s *Service) GetAll() HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := HealthResponse{Items: make([]HealthItem, 0, len(s.order))}
	for _, id := range s.order {
		item := *s.items[id]
		resp.Items = append(resp.Items, item)
		if item.Status != StatusOK {
			resp.HasIssues = true
		}
	}
	return resp
}

// GetItem returns a single item by ID.
func (s *Service) GetItem(id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		copy := *item
		return &copy
	}
	return nil
}

// Test checks every registered upstream and records the outcome. An
// unconfigured upstream is a warning, not an error. The returned error joins
// the failures of configured upstreams.
func (s *Service) Test(ctx context.Context) error {
	s.mu.RLock()
	ids := append([]string(nil), s.order...)
	s.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := s.TestItem(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TestItem checks one upstream.
func (s *Service) TestItem(ctx context.Context, id string) error {
	s.mu.RLock()
	checker, exists := s.checkers[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("unknown upstream %q", id)
	}

	if !checker.IsConfigured() {
		s.SetWarning(id, "not configured")
		return nil
	}
	if err := checker.Test(ctx); err != nil {
		s.SetError(id, err.Error())
		return fmt.Errorf("%s: %w", checker.Name(), err)
	}
	s.ClearStatus(id)
	return nil
}
