package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var _ contract.SessionRegistry = (*SessionRepository)(nil)

// SessionRepository keeps chat sessions in an expiring in-memory cache.
// Sessions idle longer than the TTL are evicted.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	// Purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		ttl:   ttl,
	}
}

// Open creates a new chat session and returns its id.
func (r *SessionRepository) Open(title string) string {
	session := &entity.ChatSession{
		Id:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now(),
	}
	r.Save(session)
	return session.Id
}

func (r *SessionRepository) Save(session *entity.ChatSession) {
	r.cache.Set(session.Id, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Find(sessionID string) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.ChatSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// GetAllSessionIds lists live sessions oldest first.
func (r *SessionRepository) GetAllSessionIds(_ context.Context) ([]string, error) {
	items := r.cache.Items()
	sessions := make([]*entity.ChatSession, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*entity.ChatSession))
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].Id < sessions[j].Id
	})

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.Id
	}
	return ids, nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (contract.SessionStore, bool) {
	if _, ok := r.Find(id); !ok {
		return nil, false
	}
	return &sessionHandle{repo: r, id: id}, true
}

type sessionHandle struct {
	repo *SessionRepository
	id   string
}

func (h *sessionHandle) Id() string { return h.id }

// AddContextRef attaches ref unless a ref to the same resource is already there.
func (h *sessionHandle) AddContextRef(_ context.Context, ref entity.ContextRef) error {
	h.repo.mu.Lock()
	defer h.repo.mu.Unlock()

	session, ok := h.repo.Find(h.id)
	if !ok {
		return entity.ErrNoActiveSession
	}
	for _, existing := range session.ContextRefs {
		if existing.ResourceId == ref.ResourceId {
			return nil
		}
	}

	updated := *session
	updated.ContextRefs = append(slices.Clone(session.ContextRefs), ref)
	now := time.Now()
	updated.UpdatedAt = &now
	h.repo.Save(&updated)
	return nil
}

func (h *sessionHandle) ContextRefs() []entity.ContextRef {
	session, ok := h.repo.Find(h.id)
	if !ok {
		return nil
	}
	return slices.Clone(session.ContextRefs)
}
