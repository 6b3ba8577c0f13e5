package view

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/randx"
)

// DefaultIdleTimeout is used when no idle timeout is configured.
const DefaultIdleTimeout = 15 * time.Minute

// Manager tracks every open Page and evicts pages nobody has used for a while.
type Manager struct {
	// pages stores all open pages, keyed by page id.
	pages map[string]*Page

	svc         Services
	idleTimeout time.Duration

	// mu protects concurrent access to the pages map.
	mu sync.RWMutex

	// stop ends the cleanup loop.
	stop     chan struct{}
	stopOnce sync.Once

	// wg is used to wait for the cleanup loop to finish during shutdown.
	wg sync.WaitGroup

	now    func() time.Time
	logger zerolog.Logger
}

// NewManager constructs a Manager and starts its cleanup loop.
func NewManager(svc Services, idleTimeout time.Duration) *Manager {
	m := newManager(svc, idleTimeout, time.Now)

	m.wg.Add(1)
	go m.runCleanupLoop()

	return m
}

func newManager(svc Services, idleTimeout time.Duration, now func() time.Time) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &Manager{
		pages:       make(map[string]*Page),
		svc:         svc,
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
		now:         now,
		logger:      logx.Component("Manager"),
	}
}

// Open creates a page for id and loads it. A failed roster load still returns the page;
// its snapshot carries the failure banner and err reports it.
func (m *Manager) Open(ctx context.Context, id user.Identity) (*Page, error) {
	page := newPage(randx.PageID(), id, m.svc, m.now)

	m.mu.Lock()
	m.pages[page.ID] = page
	total := len(m.pages)
	m.mu.Unlock()

	m.logger.Info().Str("page_id", page.ID).Str("user_id", id.UserID).Int("open_pages", total).Msg("Page opened.")

	return page, page.Refresh(ctx)
}

// Get returns the page pageID if it belongs to id.
func (m *Manager) Get(pageID string, id user.Identity) (*Page, *errs.CustomError) {
	if !randx.IsValidPageID(pageID) {
		return nil, errs.NewError(errs.ErrPageNotFound)
	}

	m.mu.RLock()
	page, ok := m.pages[pageID]
	m.mu.RUnlock()

	if !ok || !page.BelongsTo(id) {
		return nil, errs.NewError(errs.ErrPageNotFound)
	}

	page.Touch()
	return page, nil
}

// Close closes and forgets the page pageID if it belongs to id.
func (m *Manager) Close(pageID string, id user.Identity) *errs.CustomError {
	page, err := m.Get(pageID, id)
	if err != nil {
		return err
	}

	m.remove(page)
	return nil
}

// CloseAllFor closes every page opened by id and returns how many were closed. It is
// called on logout so no page keeps using the signed-out access token.
func (m *Manager) CloseAllFor(id user.Identity) int {
	m.mu.RLock()
	var owned []*Page
	for _, page := range m.pages {
		if page.BelongsTo(id) {
			owned = append(owned, page)
		}
	}
	m.mu.RUnlock()

	for _, page := range owned {
		m.remove(page)
	}

	if len(owned) > 0 {
		m.logger.Info().Str("user_id", id.UserID).Int("closed", len(owned)).Msg("Pages closed on logout.")
	}
	return len(owned)
}

// Count returns the number of open pages.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

func (m *Manager) remove(page *Page) {
	m.mu.Lock()
	if current, ok := m.pages[page.ID]; ok && current == page {
		delete(m.pages, page.ID)
	}
	m.mu.Unlock()

	page.Close()
}

// runCleanupLoop evicts idle pages until Shutdown.
func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	interval := min(m.idleTimeout/4, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info().Dur("idle_timeout", m.idleTimeout).Msg("Cleanup loop started.")

	for {
		select {
		case <-ticker.C:
			if n := m.evictIdle(); n > 0 {
				m.logger.Info().Int("evicted", n).Int("open_pages", m.Count()).Msg("Idle pages evicted.")
			}
		case <-m.stop:
			m.logger.Info().Msg("Cleanup loop stopped.")
			return
		}
	}
}

// evictIdle closes every page without live subscribers that has been idle longer than
// the idle timeout.
func (m *Manager) evictIdle() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.RLock()
	var idle []*Page
	for _, page := range m.pages {
		lastActive, live := page.idleSince()
		if !live && lastActive.Before(cutoff) {
			idle = append(idle, page)
		}
	}
	m.mu.RUnlock()

	for _, page := range idle {
		m.remove(page)
	}
	return len(idle)
}

// Shutdown stops the cleanup loop, closes every page and waits for their background
// refetches to return.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager cleanup loop...")

	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.mu.Lock()
	pages := m.pages
	m.pages = make(map[string]*Page)
	m.mu.Unlock()

	for _, page := range pages {
		page.Close()
		page.inflight.Wait()
	}

	m.logger.Info().Int("closed_pages", len(pages)).Msg("Manager shutdown complete.")
}
