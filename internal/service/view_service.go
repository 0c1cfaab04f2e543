package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/pkg/debounce"
	"notehub-engine/pkg/events"
)

const viewModule = "ViewCoordinator"

type IViewService interface {
	OpenTab(ctx context.Context, id string) error
	CloseTab(id string)
	ActivateTab(ctx context.Context, id string) error
	ReorderTabs(order []string) error

	OpenCanvas(ctx context.Context, id string) error
	CloseCanvas()
	PushCanvasHistory(id string)

	// ForgetDocument drops every reference to a deleted document.
	ForgetDocument(id string)
	Snapshot() entity.ViewSnapshot
	Hydrate(ctx context.Context) error

	Flush()
	Close()
}

type viewService struct {
	cache     IDocumentCacheService
	prefs     contract.PreferenceStore
	publisher events.Publisher
	log       logger.ILogger
	prefKey   string

	mu       sync.Mutex
	tabs     []string
	activeId string
	canvasId string
	history  []string

	persist *debounce.Debouncer
}

func NewViewService(
	cache IDocumentCacheService,
	prefs contract.PreferenceStore,
	publisher events.Publisher,
	log logger.ILogger,
	prefKey string,
	persistDelay time.Duration,
) IViewService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &viewService{
		cache:     cache,
		prefs:     prefs,
		publisher: publisher,
		log:       log,
		prefKey:   prefKey,
		tabs:      []string{},
		history:   []string{},
	}
	s.persist = debounce.New(persistDelay, s.writeState)
	return s
}

func (s *viewService) OpenTab(ctx context.Context, id string) error {
	s.mu.Lock()
	if !slices.Contains(s.tabs, id) {
		s.tabs = append(slices.Clone(s.tabs), id)
	}
	s.activeId = id
	s.mu.Unlock()

	s.tabsChanged()

	if _, err := s.cache.EnsureLoaded(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			s.CloseTab(id)
		}
		return err
	}
	return nil
}

// CloseTab removes id. When it was active, the tab that slides into its
// index becomes active, or the new last tab when it was the last one.
func (s *viewService) CloseTab(id string) {
	s.mu.Lock()
	idx := slices.Index(s.tabs, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := slices.Delete(slices.Clone(s.tabs), idx, idx+1)
	if s.activeId == id {
		switch {
		case len(next) == 0:
			s.activeId = ""
		case idx < len(next):
			s.activeId = next[idx]
		default:
			s.activeId = next[len(next)-1]
		}
	}
	s.tabs = next
	s.mu.Unlock()

	s.tabsChanged()
}

func (s *viewService) ActivateTab(ctx context.Context, id string) error {
	s.mu.Lock()
	if !slices.Contains(s.tabs, id) {
		s.mu.Unlock()
		return nil
	}
	s.activeId = id
	s.mu.Unlock()

	s.tabsChanged()

	_, err := s.cache.EnsureLoaded(ctx, id)
	return err
}

func (s *viewService) ReorderTabs(order []string) error {
	s.mu.Lock()
	if !isPermutation(s.tabs, order) {
		s.mu.Unlock()
		return entity.ErrInvalidTabOrder
	}
	s.tabs = slices.Clone(order)
	s.mu.Unlock()

	s.tabsChanged()
	return nil
}

func isPermutation(current, order []string) bool {
	if len(current) != len(order) {
		return false
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] || !slices.Contains(current, id) {
			return false
		}
		seen[id] = true
	}
	return true
}

// tabsChanged mirrors the active document into the cache, schedules a
// persisted write and notifies listeners.
func (s *viewService) tabsChanged() {
	s.mu.Lock()
	tabs := slices.Clone(s.tabs)
	active := s.activeId
	s.mu.Unlock()

	s.cache.SetActive(active)
	s.persist.Trigger()

	var activeVal interface{}
	if active != "" {
		activeVal = active
	}
	s.publisher.Publish(events.New(events.TabsChanged, map[string]interface{}{
		"open_tabs": tabs,
		"active_id": activeVal,
	}))
}

func (s *viewService) OpenCanvas(ctx context.Context, id string) error {
	s.mu.Lock()
	s.canvasId = id
	s.history = pushHistory(s.history, id)
	s.mu.Unlock()

	s.publisher.Publish(events.New(events.CanvasOpened, map[string]interface{}{"document_id": id}))
	s.publisher.Publish(events.New(events.CanvasNoteChanged, map[string]interface{}{"document_id": id}))

	_, err := s.cache.EnsureLoaded(ctx, id)
	return err
}

func (s *viewService) CloseCanvas() {
	s.mu.Lock()
	prev := s.canvasId
	s.canvasId = ""
	s.mu.Unlock()
	if prev == "" {
		return
	}

	s.publisher.Publish(events.New(events.CanvasClosed, map[string]interface{}{"document_id": prev}))
	s.publisher.Publish(events.New(events.CanvasNoteChanged, map[string]interface{}{"document_id": nil}))
}

func (s *viewService) PushCanvasHistory(id string) {
	s.mu.Lock()
	s.history = pushHistory(s.history, id)
	s.mu.Unlock()
}

// pushHistory moves id to the front, without duplicates, capped at
// entity.CanvasHistoryLimit.
func pushHistory(history []string, id string) []string {
	next := make([]string, 0, len(history)+1)
	next = append(next, id)
	for _, h := range history {
		if h != id {
			next = append(next, h)
		}
	}
	if len(next) > entity.CanvasHistoryLimit {
		next = next[:entity.CanvasHistoryLimit]
	}
	return next
}

func (s *viewService) ForgetDocument(id string) {
	s.CloseTab(id)

	s.mu.Lock()
	s.history = slices.DeleteFunc(slices.Clone(s.history), func(h string) bool { return h == id })
	onCanvas := s.canvasId == id
	s.mu.Unlock()

	if onCanvas {
		s.CloseCanvas()
	}
}

func (s *viewService) Snapshot() entity.ViewSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := entity.ViewSnapshot{
		OpenTabs:      slices.Clone(s.tabs),
		CanvasHistory: slices.Clone(s.history),
	}
	if s.activeId != "" {
		active := s.activeId
		snap.ActiveId = &active
	}
	if s.canvasId != "" {
		canvas := s.canvasId
		snap.CanvasNoteId = &canvas
	}
	return snap
}

// Hydrate restores tabs from the preference store, dropping ids that no
// longer resolve. A missing or unreadable blob leaves the view empty.
func (s *viewService) Hydrate(ctx context.Context) error {
	raw, found, err := s.prefs.GetPref(ctx, s.prefKey)
	if err != nil {
		return err
	}
	if !found || raw == "" {
		return nil
	}

	var state entity.ViewState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.log.Warn(viewModule, "Ignoring unreadable view state", map[string]interface{}{
			"key":   s.prefKey,
			"error": err,
		})
		return nil
	}

	tabs := make([]string, 0, len(state.OpenTabs))
	for _, id := range state.OpenTabs {
		if id == "" || slices.Contains(tabs, id) {
			continue
		}
		ok, err := s.cache.Exists(ctx, id)
		if err != nil {
			// Unknown, not gone: keep it.
			s.log.Warn(viewModule, "Could not check restored tab", map[string]interface{}{
				"document_id": id,
				"error":       err,
			})
			tabs = append(tabs, id)
			continue
		}
		if ok {
			tabs = append(tabs, id)
		}
	}

	active := ""
	switch {
	case state.ActiveId != nil && slices.Contains(tabs, *state.ActiveId):
		active = *state.ActiveId
	case len(tabs) > 0:
		active = tabs[len(tabs)-1]
	}

	s.mu.Lock()
	s.tabs = tabs
	s.activeId = active
	s.mu.Unlock()

	s.cache.SetActive(active)
	if len(tabs) != len(state.OpenTabs) {
		s.persist.Trigger()
	}

	s.log.Info(viewModule, "View restored", map[string]interface{}{
		"tabs":    len(tabs),
		"dropped": len(state.OpenTabs) - len(tabs),
	})

	if active != "" {
		if _, err := s.cache.EnsureLoaded(ctx, active); err != nil {
			s.log.Warn(viewModule, "Could not load restored active tab", map[string]interface{}{
				"document_id": active,
				"error":       err,
			})
		}
	}
	return nil
}

func (s *viewService) writeState() {
	s.mu.Lock()
	state := entity.ViewState{OpenTabs: slices.Clone(s.tabs)}
	if s.activeId != "" {
		active := s.activeId
		state.ActiveId = &active
	}
	s.mu.Unlock()

	raw, err := json.Marshal(state)
	if err != nil {
		s.log.Error(viewModule, "Failed to encode view state", map[string]interface{}{"error": err})
		return
	}
	if err := s.prefs.SetPref(context.Background(), s.prefKey, string(raw)); err != nil {
		s.log.Warn(viewModule, "Failed to persist view state", map[string]interface{}{
			"key":   s.prefKey,
			"error": err,
		})
	}
}

// Flush writes any pending view state now.
func (s *viewService) Flush() {
	s.persist.Flush()
}

func (s *viewService) Close() {
	s.persist.Stop()
}
