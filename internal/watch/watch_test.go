package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
	"github.com/certwatch-app/cw-inspector/internal/notify"
	"github.com/certwatch-app/cw-inspector/internal/state"
)

type fakeScanner struct {
	mu      sync.Mutex
	serials map[string]string
	calls   int
}

func (f *fakeScanner) setSerial(domain, serial string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serials[domain] = serial
}

func (f *fakeScanner) Rescan(_ context.Context, raw string) (*inspector.ScanReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	domain, err := inspector.ParseDomain(raw)
	if err != nil {
		return nil, err
	}
	serial, ok := f.serials[raw]
	if !ok {
		return nil, &inspector.ScanError{Kind: inspector.KindConnection, Domain: domain, Err: errors.New("connection refused")}
	}

	days := 10
	return &inspector.ScanReport{
		Domain:        domain,
		ScanTime:      time.Now().UTC(),
		Certificate:   inspector.CertificateRecord{Domain: domain, SerialNumber: serial, ValidTo: "Jun  1 00:00:00 2026 GMT"},
		DaysRemaining: &days,
		ExpiryStatus:  inspector.ExpiryWarning,
		Warnings: []inspector.Warning{
			{Type: inspector.WarningExpiringSoon, Message: "Certificate expires in 10 days"},
		},
	}, nil
}

func (f *fakeScanner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (f *fakeNotifier) Send(_ context.Context, ev notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeNotifier) byType() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, ev := range f.events {
		counts[ev.Type]++
	}
	return counts
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func TestWatcher_RunOnce(t *testing.T) {
	scanner := &fakeScanner{serials: map[string]string{
		"a.example.com": "01",
		"b.example.com": "02",
	}}
	notifier := &fakeNotifier{}
	dir := t.TempDir()
	st := state.NewManager(dir)

	w := New(Options{
		Schedule:    "@every 1h",
		Domains:     []string{"a.example.com", "b.example.com", "down.example.com"},
		Concurrency: 2,
	}, scanner, st, notifier, zap.NewNop())

	summary := w.RunOnce(context.Background())
	want := Summary{Scanned: 3, Failed: 1, Rotated: 0, Warnings: 2}
	if summary != want {
		t.Errorf("first RunOnce() = %+v, want %+v", summary, want)
	}
	counts := notifier.byType()
	if counts[notify.EventScanCompleted] != 2 || counts[notify.EventScanFailed] != 1 {
		t.Errorf("events = %v, want 2 completed and 1 failed", counts)
	}
	if got := testutil.ToFloat64(inspector.CertificateDaysUntilExpiry.WithLabelValues("a.example.com")); got != 10 {
		t.Errorf("days_until_expiry{a.example.com} = %v, want 10", got)
	}

	scanner.setSerial("b.example.com", "03")
	notifier.reset()

	summary = w.RunOnce(context.Background())
	if summary.Rotated != 1 {
		t.Errorf("second RunOnce() Rotated = %v, want 1", summary.Rotated)
	}
	counts = notifier.byType()
	if counts[notify.EventCertificateRotated] != 1 {
		t.Errorf("rotation events = %v, want 1", counts[notify.EventCertificateRotated])
	}

	reloaded := state.NewManager(dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	obs, ok := reloaded.Get("b.example.com")
	if !ok || obs.SerialNumber != "03" {
		t.Errorf("persisted b.example.com = %+v, %v, want serial 03", obs, ok)
	}
	if _, ok := reloaded.Get("down.example.com"); ok {
		t.Error("failed domain was recorded")
	}
}

func TestWatcher_ForgetsRemovedDomains(t *testing.T) {
	scanner := &fakeScanner{serials: map[string]string{"a.example.com": "01", "b.example.com": "02"}}
	st := state.NewManager(t.TempDir())

	New(Options{Domains: []string{"a.example.com", "b.example.com"}}, scanner, st, nil, zap.NewNop()).
		RunOnce(context.Background())
	if st.Len() != 2 {
		t.Fatalf("Len() = %v, want 2", st.Len())
	}

	New(Options{Domains: []string{"a.example.com"}}, scanner, st, nil, zap.NewNop()).
		RunOnce(context.Background())
	if st.Len() != 1 {
		t.Errorf("Len() = %v, want 1", st.Len())
	}
}

func TestWatcher_NotifierErrorsDoNotFailRun(t *testing.T) {
	scanner := &fakeScanner{serials: map[string]string{"a.example.com": "01"}}
	notifier := &fakeNotifier{err: errors.New("webhook down")}

	w := New(Options{Domains: []string{"a.example.com"}}, scanner, state.NewManager(t.TempDir()), notifier, zap.NewNop())
	summary := w.RunOnce(context.Background())
	if summary.Failed != 0 || summary.Scanned != 1 {
		t.Errorf("RunOnce() = %+v, want 1 scanned 0 failed", summary)
	}
}

func TestWatcher_Run(t *testing.T) {
	scanner := &fakeScanner{serials: map[string]string{"a.example.com": "01"}}
	w := New(Options{Schedule: "@every 1h", Domains: []string{"a.example.com"}},
		scanner, state.NewManager(t.TempDir()), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for scanner.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if scanner.callCount() == 0 {
		t.Fatal("initial run did not happen")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_RunInvalidSchedule(t *testing.T) {
	w := New(Options{Schedule: "whenever"}, &fakeScanner{}, state.NewManager(t.TempDir()), nil, zap.NewNop())
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want schedule error")
	}
}
