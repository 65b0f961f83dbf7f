package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mixelka/zeronode/pkg/models"
)

// ClientFactory builds the API client of an account
type ClientFactory func(account models.Account) (API, error)

// Manager manages all account loops
type Manager struct {
	workers map[string]*workerHandle
	mu      sync.RWMutex
	wg      sync.WaitGroup
	opts    Options
	factory ClientFactory
	logger  *slog.Logger
}

type workerHandle struct {
	worker *Worker
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new account manager
func NewManager(opts Options, factory ClientFactory) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		workers: make(map[string]*workerHandle),
		opts:    opts,
		factory: factory,
		logger:  opts.Logger.With("component", "scheduler"),
	}
}

// AddAccount creates the account's client and starts its loop.
// Adding an email twice is a no-op.
func (m *Manager) AddAccount(ctx context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workers[account.Email]; exists {
		return nil
	}

	api, err := m.factory(account)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	worker := NewWorker(account, api, m.opts)
	worker.Restore(ctx)

	workerCtx, cancel := context.WithCancel(ctx)
	handle := &workerHandle{
		worker: worker,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.workers[account.Email] = handle

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(handle.done)
		worker.Run(workerCtx)
	}()

	m.logger.Info("started account loop", "account", account.Number, "email", account.Email)
	return nil
}

// StartAll starts a loop for every account. Accounts that fail to start are logged and skipped.
func (m *Manager) StartAll(ctx context.Context, accounts []models.Account) int {
	m.logger.Info("starting account loops", "count", len(accounts))

	started := 0
	for _, account := range accounts {
		if err := m.AddAccount(ctx, account); err != nil {
			m.logger.Error("failed to start account", "account", account.Number, "email", account.Email, "error", err)
			continue
		}
		started++
	}
	return started
}

// RemoveAccount stops and removes an account loop
func (m *Manager) RemoveAccount(email string) {
	m.mu.Lock()
	handle, exists := m.workers[email]
	if exists {
		delete(m.workers, email)
	}
	m.mu.Unlock()

	if !exists {
		return
	}

	handle.cancel()
	<-handle.done
	m.logger.Info("removed account", "email", email)
}

// GetStatus returns the status of an account loop
func (m *Manager) GetStatus(email string) string {
	m.mu.RLock()
	handle, exists := m.workers[email]
	m.mu.RUnlock()

	if !exists {
		return "unknown"
	}

	select {
	case <-handle.done:
		return "stopped"
	default:
		return "running"
	}
}

// Count returns the number of managed accounts
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// Wait blocks until every loop has returned
func (m *Manager) Wait() {
	m.wg.Wait()
}

// StopAll cancels every loop and waits for them to return
func (m *Manager) StopAll() {
	m.mu.Lock()
	m.logger.Info("stopping all account loops")
	for email, handle := range m.workers {
		handle.cancel()
		delete(m.workers, email)
	}
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("all account loops stopped")
}
