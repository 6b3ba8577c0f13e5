package view

import (
	"strings"
	"time"

	"campusportal/internal/app/reconcile"
	"campusportal/internal/app/user"
)

// Tab selects which rows a snapshot lists.
type Tab string

const (
	// TabAll lists every event.
	TabAll Tab = "all"

	// TabManage lists the events the user may manage.
	TabManage Tab = "manage"
)

// ParseTab maps s to a Tab; anything unknown is TabAll.
func ParseTab(s string) Tab {
	if Tab(strings.ToLower(strings.TrimSpace(s))) == TabManage {
		return TabManage
	}
	return TabAll
}

// Criteria selects the rows of a snapshot.
type Criteria struct {
	reconcile.Criteria
	Tab Tab
}

// ParseCriteria builds Criteria from the month ("YYYY-MM"), search and tab parameters.
func ParseCriteria(month, query, tab string) (Criteria, error) {
	m, err := reconcile.ParseMonth(month)
	if err != nil {
		return Criteria{}, err
	}
	return Criteria{
		Criteria: reconcile.Criteria{Month: m, Query: query},
		Tab:      ParseTab(tab),
	}, nil
}

// NoticeKind distinguishes success banners from error banners.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the transient banner of a page.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Snapshot is the render data of a page.
type Snapshot struct {
	PageID string        `json:"page_id"`
	User   user.Identity `json:"user"`
	Tab    Tab           `json:"tab"`

	// Loading is true until the first roster fetch has finished.
	Loading bool `json:"loading"`

	Events       []reconcile.Row `json:"events"`
	Notification *Notice         `json:"notification,omitempty"`

	// Version increases with every state change of the page.
	Version uint64 `json:"version"`
}
