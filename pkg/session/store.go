package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"foodinsight/internal/models/request_models"
)

// Data is everything a browser session carries between requests.
type Data struct {
	AccountID  string `json:"account_id,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	UserGender string `json:"user_gender,omitempty"`

	Admin         bool   `json:"admin,omitempty"`
	AdminUsername string `json:"admin_username,omitempty"`

	// VerificationEmail is the address the OTP page is currently verifying.
	VerificationEmail string                              `json:"verification_email,omitempty"`
	Pending           *request_models.PendingRegistration `json:"pending,omitempty"`

	// Captcha holds the expected code per purpose slot, uppercased.
	Captcha map[string]string `json:"captcha,omitempty"`
	Flashes []string          `json:"flashes,omitempty"`
}

type Store interface {
	// Load returns nil, nil when the session is missing or expired.
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are dropped on access and by
// a sweep that runs at most once per sweepInterval during Save.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]entry
	lastSweep time.Time
	now       func() time.Time
}

const sweepInterval = time.Minute

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	e, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.data, id) // cleanup expired
		s.mu.Unlock()
		return nil, nil
	}

	var d Data
	if err := json.Unmarshal(e.payload, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, data *Data, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.data[id] = entry{payload: payload, expiresAt: now.Add(ttl)}
	if now.Sub(s.lastSweep) > sweepInterval {
		for k, e := range s.data {
			if now.After(e.expiresAt) {
				delete(s.data, k)
			}
		}
		s.lastSweep = now
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
