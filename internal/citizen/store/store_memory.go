package store

import (
	"context"
	"sort"
	"sync"

	"outreach/internal/citizen/models"
	"outreach/pkg/platform/sentinel"
)

// InMemory keeps citizens in process. Callers always receive copies.
type InMemory struct {
	mu        sync.RWMutex
	citizens  map[string]*models.Citizen
	byMessage map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		citizens:  make(map[string]*models.Citizen),
		byMessage: make(map[string]string),
	}
}

func (s *InMemory) Save(_ context.Context, c *models.Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.citizens[c.ID]; ok && prev.Engagement.MessageID != "" {
		delete(s.byMessage, prev.Engagement.MessageID)
	}
	s.citizens[c.ID] = c.Clone()
	if c.Engagement.MessageID != "" {
		s.byMessage[c.Engagement.MessageID] = c.ID
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, citizenID string) (*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.citizens[citizenID]; ok {
		return c.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByMessageID(_ context.Context, messageID string) (*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if citizenID, ok := s.byMessage[messageID]; ok {
		return s.citizens[citizenID].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByIDs returns the citizens that exist, in creation order. Unknown ids
// are skipped.
func (s *InMemory) FindByIDs(_ context.Context, citizenIDs []string) ([]*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Citizen, 0, len(citizenIDs))
	seen := make(map[string]struct{}, len(citizenIDs))
	for _, citizenID := range citizenIDs {
		if _, dup := seen[citizenID]; dup {
			continue
		}
		seen[citizenID] = struct{}{}
		if c, ok := s.citizens[citizenID]; ok {
			out = append(out, c.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

// FindAll returns a snapshot of every citizen in creation order.
func (s *InMemory) FindAll(_ context.Context) ([]*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Citizen, 0, len(s.citizens))
	for _, c := range s.citizens {
		out = append(out, c.Clone())
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(citizens []*models.Citizen) {
	sort.Slice(citizens, func(i, j int) bool {
		if citizens[i].CreatedAt.Equal(citizens[j].CreatedAt) {
			return citizens[i].ID < citizens[j].ID
		}
		return citizens[i].CreatedAt.Before(citizens[j].CreatedAt)
	})
}
