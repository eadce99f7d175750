// Package state persists what the watcher last saw for each domain so that
// certificate rotations can be detected across restarts.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// stateFileName is the name of the state file inside the state directory
const stateFileName = ".cw-inspector-state.json"

// Observation is the last successful scan result recorded for a domain
type Observation struct {
	ScannedAt    time.Time `json:"scanned_at"`
	SerialNumber string    `json:"serial_number"`
	Issuer       string    `json:"issuer"`
	ValidTo      string    `json:"valid_to"`
}

// State holds persisted watcher state
type State struct {
	LastUpdated time.Time              `json:"last_updated"`
	Domains     map[string]Observation `json:"domains"`
}

func newState() *State {
	return &State{Domains: make(map[string]Observation)}
}

// Change describes how a new report differs from the previous observation
type Change struct {
	Previous Observation
	// First is true when the domain had never been observed
	First   bool
	Rotated bool
}

// Manager handles state persistence
type Manager struct {
	state    *State
	filePath string
	mu       sync.RWMutex
}

// NewManager creates a state manager storing its file in stateDir
func NewManager(stateDir string) *Manager {
	return &Manager{
		filePath: filepath.Join(stateDir, stateFileName),
		state:    newState(),
	}
}

// Load reads state from disk
// Returns nil if file doesn't exist (first run)
// Returns error if file exists but cannot be read/parsed
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = newState()
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	st := newState()
	if err := json.Unmarshal(data, st); err != nil {
		m.state = newState()
		return fmt.Errorf("failed to parse state file (treating as first run): %w", err)
	}
	if st.Domains == nil {
		st.Domains = make(map[string]Observation)
	}

	m.state = st
	return nil
}

// Save writes state to disk with secure permissions (0600)
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Get returns the last observation for domain
func (m *Manager) Get(domain string) (Observation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obs, ok := m.state.Domains[domain]
	return obs, ok
}

// Record stores the report as the latest observation and reports how it
// differs from the previous one (call Save() to persist)
func (m *Manager) Record(report *inspector.ScanReport) Change {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := report.Domain.String()
	prev, seen := m.state.Domains[key]

	m.state.Domains[key] = Observation{
		ScannedAt:    report.ScanTime,
		SerialNumber: report.Certificate.SerialNumber,
		Issuer:       report.Certificate.Issuer,
		ValidTo:      report.Certificate.ValidTo,
	}

	return Change{
		Previous: prev,
		First:    !seen,
		Rotated:  seen && prev.SerialNumber != report.Certificate.SerialNumber,
	}
}

// Forget drops domains that are no longer watched
func (m *Manager) Forget(keep []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(keep))
	for _, d := range keep {
		wanted[d] = true
	}

	removed := 0
	for d := range m.state.Domains {
		if !wanted[d] {
			delete(m.state.Domains, d)
			removed++
		}
	}
	return removed
}

// Len returns the number of observed domains
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.Domains)
}

// Reset clears all state
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = newState()

	if err := os.Remove(m.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}

	return nil
}

// FilePath returns the path to the state file
func (m *Manager) FilePath() string {
	return m.filePath
}
