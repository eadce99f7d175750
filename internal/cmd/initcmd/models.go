// Package initcmd provides the interactive init command wizard.
package initcmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-inspector/internal/config"
	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// DefaultConfigPath is where init writes when no path is given
const DefaultConfigPath = "./cw-inspector.yaml"

// WizardState holds all collected input during the wizard.
type WizardState struct {
	// Output configuration
	ConfigPath    string
	OverwriteFile bool

	// Inspector configuration
	LogLevel         string
	PortStr          string
	HandshakeTimeout string
	VerifyChain      bool

	// Transparency and cache configuration
	CTEnabled    bool
	CacheBackend string
	RedisAddr    string

	// Watch configuration
	Schedule   string
	WebhookURL string

	// Domains to watch
	Domains       []string
	CurrentDomain string
	AddAnother    bool
}

// NewWizardState creates a new WizardState with sensible defaults.
func NewWizardState() *WizardState {
	defaults := config.Default()
	return &WizardState{
		ConfigPath:       DefaultConfigPath,
		LogLevel:         defaults.LogLevel,
		PortStr:          strconv.Itoa(defaults.Inspector.Port),
		HandshakeTimeout: defaults.Inspector.HandshakeTimeout.String(),
		VerifyChain:      defaults.Inspector.VerifyChain,
		CTEnabled:        defaults.Transparency.Enabled,
		CacheBackend:     defaults.Cache.Backend,
		RedisAddr:        defaults.Cache.RedisAddr,
		Schedule:         defaults.Watch.Schedule,
		Domains:          make([]string, 0),
	}
}

// ToConfig converts the wizard state to a config.Config struct.
func (s *WizardState) ToConfig() (*config.Config, error) {
	cfg := config.Default()

	cfg.LogLevel = s.LogLevel

	if s.PortStr != "" {
		port, err := strconv.Atoi(s.PortStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		cfg.Inspector.Port = port
	}

	if s.HandshakeTimeout != "" {
		timeout, err := time.ParseDuration(s.HandshakeTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid handshake timeout: %w", err)
		}
		cfg.Inspector.HandshakeTimeout = timeout
	}

	cfg.Inspector.VerifyChain = s.VerifyChain
	cfg.Transparency.Enabled = s.CTEnabled

	cfg.Cache.Backend = s.CacheBackend
	if s.CacheBackend == config.CacheRedis {
		cfg.Cache.RedisAddr = s.RedisAddr
	}

	if s.Schedule != "" {
		cfg.Watch.Schedule = s.Schedule
	}
	cfg.Watch.WebhookURL = strings.TrimSpace(s.WebhookURL)

	domains := make([]string, 0, len(s.Domains))
	for _, raw := range s.Domains {
		domain, err := inspector.ParseDomain(raw)
		if err != nil {
			return nil, err
		}
		domains = append(domains, domain.String())
	}
	cfg.Watch.Domains = domains

	return cfg, nil
}

// parseDomainList parses comma-separated domains into a slice.
func parseDomainList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	parts := strings.Split(list, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		d := strings.TrimSpace(p)
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// ResetCurrentDomain resets the current domain input for the next entry.
func (s *WizardState) ResetCurrentDomain() {
	s.CurrentDomain = ""
	s.AddAnother = false
}

// SaveCurrentDomain saves the current domain to the list.
func (s *WizardState) SaveCurrentDomain() {
	if d := strings.TrimSpace(s.CurrentDomain); d != "" {
		s.Domains = append(s.Domains, d)
	}
}
