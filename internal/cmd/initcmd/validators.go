package initcmd

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/robfig/cron/v3"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// ValidateConfigPath validates the output file path.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				// created during write
				return nil
			}
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("'%s' is not a directory", dir)
		}
	}

	return nil
}

// ValidateDomain validates a domain to watch.
func ValidateDomain(domain string) error {
	_, err := inspector.ParseDomain(domain)
	return err
}

// ValidatePort validates a port number string.
func ValidatePort(portStr string) error {
	if portStr == "" {
		return nil // Will use default 443
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateWebhookURL validates the optional webhook URL.
func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use http or https")
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// ValidateRedisAddr validates a host:port Redis address.
func ValidateRedisAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("redis address is required")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("address must be host:port")
	}
	if host == "" {
		return fmt.Errorf("address must include a host")
	}

	return ValidatePort(port)
}

// ValidateSchedule validates a cron expression or @every descriptor.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// ValidateNewDomain rejects domains that are invalid or already listed.
func ValidateNewDomain(existing []string) func(string) error {
	return func(raw string) error {
		domain, err := inspector.ParseDomain(raw)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if d, parseErr := inspector.ParseDomain(e); parseErr == nil && d == domain {
				return fmt.Errorf("'%s' is already in the list", domain)
			}
		}
		return nil
	}
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ValidateLogLevel validates a log level name.
func ValidateLogLevel(level string) error {
	if !slices.Contains(validLogLevels, level) {
		return fmt.Errorf("log level must be one of: debug, info, warn, error")
	}
	return nil
}
