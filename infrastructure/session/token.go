package session

import (
	"context"
	"fmt"
	"sync"
)

// TokenStorage persists the backend bearer token of a console session.
type TokenStorage interface {
	LoadToken(ctx context.Context, sessionID string) (string, error)
	SaveToken(ctx context.Context, sessionID, token string) error
	ClearToken(ctx context.Context, sessionID string) error
}

// TokenSession holds the bearer token attached to backend calls made on behalf
// of one console session.
type TokenSession struct {
	mu        sync.RWMutex
	sessionID string
	token     string
	storage   TokenStorage
}

// LoadTokenSession reads the stored token of sessionID. A nil storage keeps
// the token in memory only.
func LoadTokenSession(ctx context.Context, sessionID string, storage TokenStorage) (*TokenSession, error) {
	ts := &TokenSession{sessionID: sessionID, storage: storage}
	if storage == nil {
		return ts, nil
	}
	token, err := storage.LoadToken(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load backend token: %w", err)
	}
	ts.token = token
	return ts, nil
}

// NewTokenSession wraps a token that is already known.
func NewTokenSession(sessionID, token string, storage TokenStorage) *TokenSession {
	return &TokenSession{sessionID: sessionID, token: token, storage: storage}
}

func (ts *TokenSession) Get() string {
	if ts == nil {
		return ""
	}
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.token
}

func (ts *TokenSession) Set(ctx context.Context, token string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.storage != nil {
		if err := ts.storage.SaveToken(ctx, ts.sessionID, token); err != nil {
			return fmt.Errorf("save backend token: %w", err)
		}
	}
	ts.token = token
	return nil
}

func (ts *TokenSession) Clear(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	if ts.storage != nil {
		if err := ts.storage.ClearToken(ctx, ts.sessionID); err != nil {
			return fmt.Errorf("clear backend token: %w", err)
		}
	}
	return nil
}
