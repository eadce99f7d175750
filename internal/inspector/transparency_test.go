package inspector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newCTServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/?q=%s&output=json"
}

func TestCorrelator_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCount int
		wantErr   error
	}{
		{"array of entries", http.StatusOK, `[{"id":1},{"id":2},{"id":3}]`, 3, nil},
		{"empty array", http.StatusOK, `[]`, 0, nil},
		{"null body", http.StatusOK, `null`, 0, nil},
		{"server error", http.StatusInternalServerError, `oops`, 0, ErrRemoteAPI},
		{"rate limited", http.StatusTooManyRequests, ``, 0, ErrRemoteAPI},
		{"malformed JSON", http.StatusOK, `<html>`, 0, ErrRemoteAPI},
		{"object instead of array", http.StatusOK, `{"id":1}`, 0, ErrRemoteAPI},
		{"empty body", http.StatusOK, ``, 0, ErrRemoteAPI},
		{"truncated array", http.StatusOK, `[{"id":1},{"id":`, 0, ErrRemoteAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := newCTServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			c := NewCorrelator(CorrelatorConfig{URLTemplate: tmpl, Timeout: 2 * time.Second}, zap.NewNop())
			entries, err := c.Fetch(context.Background(), "example.com")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if len(entries) != tt.wantCount {
				t.Errorf("len(entries) = %v, want %v", len(entries), tt.wantCount)
			}
		})
	}
}

func TestCorrelator_FetchLargeHistory(t *testing.T) {
	const count = 70000
	// ~1 KiB per entry, roughly 70 MB in total
	entry := `{"id":1,"name_value":"` + strings.Repeat("a", 1000) + `"}`

	tmpl := newCTServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("["))
		for i := 0; i < count; i++ {
			if i > 0 {
				_, _ = w.Write([]byte(","))
			}
			_, _ = w.Write([]byte(entry))
		}
		_, _ = w.Write([]byte("]"))
	})

	c := NewCorrelator(CorrelatorConfig{URLTemplate: tmpl, Timeout: 60 * time.Second}, zap.NewNop())
	entries, err := c.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != count {
		t.Errorf("len(entries) = %v, want %v", len(entries), count)
	}
	if string(entries[count-1]) != entry {
		t.Errorf("last entry = %.40s..., want %.40s...", entries[count-1], entry)
	}
}

func TestCorrelator_CorrelateSwallowsErrors(t *testing.T) {
	tmpl := newCTServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c := NewCorrelator(CorrelatorConfig{URLTemplate: tmpl, Timeout: 2 * time.Second}, zap.NewNop())
	entries := c.Correlate(context.Background(), "example.com")
	if entries == nil {
		t.Fatal("Correlate() = nil, want empty slice")
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %v, want 0", len(entries))
	}
}

func TestCorrelator_Timeout(t *testing.T) {
	release := make(chan struct{})
	tmpl := newCTServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	c := NewCorrelator(CorrelatorConfig{URLTemplate: tmpl, Timeout: 100 * time.Millisecond}, zap.NewNop())
	_, err := c.Fetch(context.Background(), "example.com")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Fetch() error = %v, want ErrTimeout", err)
	}
}

func TestCorrelator_RequestShape(t *testing.T) {
	var (
		gotQuery  string
		gotOutput string
		gotAgent  string
		gotAccept string
	)
	tmpl := newCTServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotOutput = r.URL.Query().Get("output")
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`[]`))
	})

	c := NewCorrelator(CorrelatorConfig{
		URLTemplate: tmpl,
		UserAgent:   "cw-inspector/test",
		Timeout:     2 * time.Second,
	}, zap.NewNop())

	if _, err := c.Fetch(context.Background(), "sub.example.com"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotQuery != "sub.example.com" {
		t.Errorf("q = %v, want sub.example.com", gotQuery)
	}
	if gotOutput != "json" {
		t.Errorf("output = %v, want json", gotOutput)
	}
	if gotAgent != "cw-inspector/test" {
		t.Errorf("User-Agent = %v, want cw-inspector/test", gotAgent)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %v, want application/json", gotAccept)
	}
}

func TestNewCorrelator_Defaults(t *testing.T) {
	c := NewCorrelator(CorrelatorConfig{}, zap.NewNop())
	if c.urlTemplate != DefaultCTURLTemplate {
		t.Errorf("urlTemplate = %v, want %v", c.urlTemplate, DefaultCTURLTemplate)
	}
}
