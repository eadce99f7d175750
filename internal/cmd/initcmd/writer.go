package initcmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/certwatch-app/cw-inspector/internal/config"
)

const configHeader = `# cw-inspector configuration
# Generated by 'cw-inspector init'. Environment variables prefixed with
# CWI_ override these values, e.g. CWI_LOG_LEVEL=debug.

`

// RenderConfig encodes cfg as YAML with a short header.
func RenderConfig(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	humanizeDurations(&doc)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.Bytes(), nil
}

// keys holding a time.Duration, which yaml.v3 would emit as nanoseconds
var durationKeys = map[string]bool{
	"dial_timeout":      true,
	"handshake_timeout": true,
	"timeout":           true,
	"ttl":               true,
}

// humanizeDurations rewrites duration values as "10s" style strings
func humanizeDurations(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if !durationKeys[key.Value] || val.Kind != yaml.ScalarNode {
				continue
			}
			if ns, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
				val.Tag = "!!str"
				val.Value = time.Duration(ns).String()
			}
		}
	}
	for _, c := range n.Content {
		humanizeDurations(c)
	}
}

// WriteConfig writes cfg to path, creating parent directories as needed.
func WriteConfig(cfg *config.Config, path string) error {
	data, err := RenderConfig(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// the webhook URL may embed a token
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
