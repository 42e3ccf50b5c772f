// Package events fans worker notifications out to any number of
// subscribers. Emission is one-way: workers never wait on a consumer, so
// subscriber callbacks must hand off their own slow work.
package events

import (
	"sync"

	"claimscan/internal/claims"
)

// Status is a worker's coarse activity state.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusActive  Status = "ACTIVE"
	StatusOK      Status = "OK"
	StatusError   Status = "ERROR"
)

type (
	StatusCallback       func(source string, s Status)
	GameUpdatedCallback  func(players string)
	ClaimCallback        func(f claims.Finding)
	PassCompleteCallback func(source string, games int)
	InputCallback        func(enabled bool)
)

// Notifier is the broadcast hub between workers and the presentation
// layer. Callbacks are copied out of the lock before invocation, so a
// subscriber registering mid-emit never observes a partial list.
type Notifier struct {
	mu        sync.RWMutex
	statusCbs []StatusCallback
	gameCbs   []GameUpdatedCallback
	claimCbs  []ClaimCallback
	passCbs   []PassCompleteCallback
	inputCbs  []InputCallback
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) OnStatus(cb StatusCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusCbs = append(n.statusCbs, cb)
}

func (n *Notifier) OnGameUpdated(cb GameUpdatedCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gameCbs = append(n.gameCbs, cb)
}

func (n *Notifier) OnClaim(cb ClaimCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.claimCbs = append(n.claimCbs, cb)
}

func (n *Notifier) OnPassComplete(cb PassCompleteCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.passCbs = append(n.passCbs, cb)
}

func (n *Notifier) OnInputEnabled(cb InputCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputCbs = append(n.inputCbs, cb)
}

func (n *Notifier) EmitStatus(source string, s Status) {
	n.mu.RLock()
	cbs := append([]StatusCallback(nil), n.statusCbs...)
	n.mu.RUnlock()
	for _, cb := range cbs {
		cb(source, s)
	}
}

func (n *Notifier) EmitGameUpdated(players string) {
	n.mu.RLock()
	cbs := append([]GameUpdatedCallback(nil), n.gameCbs...)
	n.mu.RUnlock()
	for _, cb := range cbs {
		cb(players)
	}
}

func (n *Notifier) EmitClaim(f claims.Finding) {
	n.mu.RLock()
	cbs := append([]ClaimCallback(nil), n.claimCbs...)
	n.mu.RUnlock()
	for _, cb := range cbs {
		cb(f)
	}
}

func (n *Notifier) EmitPassComplete(source string, games int) {
	n.mu.RLock()
	cbs := append([]PassCompleteCallback(nil), n.passCbs...)
	n.mu.RUnlock()
	for _, cb := range cbs {
		cb(source, games)
	}
}

func (n *Notifier) EmitInputEnabled(enabled bool) {
	n.mu.RLock()
	cbs := append([]InputCallback(nil), n.inputCbs...)
	n.mu.RUnlock()
	for _, cb := range cbs {
		cb(enabled)
	}
}
