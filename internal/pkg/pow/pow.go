/*
Package pow implements the Proof-of-Work challenge that guards account signup.

A client fetches a nonce, searches for a counter whose SHA-256 over nonce+counter starts
with the configured number of zero hex digits, and trades the proof for a short-lived,
single-use proof token that the signup request must carry.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/resp"
)

const (
	// TokenHeaderKey is the HTTP header key used by the client to send the Proof Token.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is the validity period of a proof token.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is the validity period for the challenge Nonce.
	NonceExpiryDuration = 5 * time.Minute
)

// Manager tracks outstanding nonces and issued proof tokens. It is safe for concurrent use.
type Manager struct {
	difficulty int

	// nonceStore maps active nonces to their expiry.
	nonceStore map[string]time.Time

	// tokenStore maps issued proof tokens to their expiry.
	tokenStore map[string]time.Time

	mu  sync.Mutex
	now func() time.Time
}

// NewManager creates a Manager for the given difficulty and starts the expiry sweeper.
func NewManager(difficulty int) *Manager {
	mgr := newManager(difficulty, time.Now)

	go mgr.cleanupExpiredEntries()

	return mgr
}

func newManager(difficulty int, now func() time.Time) *Manager {
	return &Manager{
		difficulty: difficulty,
		nonceStore: make(map[string]time.Time),
		tokenStore: make(map[string]time.Time),
		now:        now,
	}
}

// Difficulty returns the number of leading zero hex digits a proof must have.
func (m *Manager) Difficulty() int {
	return m.difficulty
}

// GenerateNonce issues a new challenge nonce.
func (m *Manager) GenerateNonce() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := uuid.New().String()
	m.nonceStore[nonce] = m.now().Add(NonceExpiryDuration)
	return nonce
}

// Solves reports whether counter satisfies difficulty for nonce.
func Solves(nonce, counter string, difficulty int) bool {
	hash := sha256.Sum256([]byte(nonce + counter))
	return strings.HasPrefix(hex.EncodeToString(hash[:]), strings.Repeat("0", difficulty))
}

// ValidateProof consumes nonce if counter solves it and returns a fresh proof token.
func (m *Manager) ValidateProof(nonce, counter string) (string, error) {
	if !Solves(nonce, counter, m.difficulty) {
		return "", fmt.Errorf("proof does not meet difficulty requirement")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiryTime, ok := m.nonceStore[nonce]
	if !ok || m.now().After(expiryTime) {
		return "", fmt.Errorf("nonce expired or invalid")
	}
	delete(m.nonceStore, nonce)

	token := uuid.New().String()
	m.tokenStore[token] = m.now().Add(ProofTokenDuration)
	return token, nil
}

// ConsumeProofToken checks the request's proof token (header X-PoW-Token or query
// pow_token) and invalidates it so it cannot be replayed.
func (m *Manager) ConsumeProofToken(r *http.Request) bool {
	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get("pow_token")
	}

	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiryTime, ok := m.tokenStore[token]
	if !ok {
		return false
	}
	delete(m.tokenStore, token)

	return !m.now().After(expiryTime)
}

// Require is an HTTP middleware rejecting requests without a valid proof token.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.ConsumeProofToken(r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) cleanupExpiredEntries() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := m.now()

		for nonce, expiry := range m.nonceStore {
			if now.After(expiry) {
				delete(m.nonceStore, nonce)
			}
		}

		for token, expiry := range m.tokenStore {
			if now.After(expiry) {
				delete(m.tokenStore, token)
			}
		}
		m.mu.Unlock()
	}
}
