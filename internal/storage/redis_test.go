package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

var _ inspector.Cache = (*RedisCache)(nil)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisCacheWithClient(client, "", 0, zap.NewNop())
}

func testRecord(serial string) inspector.CertificateRecord {
	return inspector.CertificateRecord{
		Domain:       "example.com",
		Issuer:       "Example CA",
		ValidFrom:    "Jan  1 00:00:00 2026 GMT",
		ValidTo:      "Jun  1 00:00:00 2026 GMT",
		SerialNumber: serial,
	}
}

func TestRedisCache_CheckThenFill(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "example.com"); ok {
		t.Fatal("Get() on empty cache ok = true, want false")
	}

	stored, inserted := cache.Put(ctx, "example.com", testRecord("01"))
	if !inserted || stored.SerialNumber != "01" {
		t.Errorf("first Put() = %+v, %v, want serial 01 inserted", stored, inserted)
	}
	if !mr.Exists(DefaultKeyPrefix + "example.com") {
		t.Errorf("key %q not written", DefaultKeyPrefix+"example.com")
	}

	stored, inserted = cache.Put(ctx, "example.com", testRecord("02"))
	if inserted {
		t.Error("second Put() inserted = true, want false")
	}
	if stored.SerialNumber != "01" {
		t.Errorf("second Put() serial = %v, want 01", stored.SerialNumber)
	}

	got, ok := cache.Get(ctx, "example.com")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got != testRecord("01") {
		t.Errorf("Get() = %+v, want %+v", got, testRecord("01"))
	}

	cache.Invalidate(ctx, "example.com")
	if _, ok := cache.Get(ctx, "example.com"); ok {
		t.Error("Get() after Invalidate() ok = true, want false")
	}
}

func TestRedisCache_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	defer mr.Close()

	cache := NewRedisCache(Options{Addr: mr.Addr(), KeyPrefix: "test:", TTL: time.Minute}, zap.NewNop())
	defer cache.Close()
	ctx := context.Background()

	cache.Put(ctx, "example.com", testRecord("01"))
	if ttl := mr.TTL("test:example.com"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := cache.Get(ctx, "example.com"); ok {
		t.Error("Get() after expiry ok = true, want false")
	}
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	mr, cache := setupMiniredis(t)

	if err := mr.Set(DefaultKeyPrefix+"example.com", "{not json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := cache.Get(context.Background(), "example.com"); ok {
		t.Error("Get() on corrupt entry ok = true, want false")
	}
}

func TestRedisCache_UnavailableDegradesToMiss(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	if err := cache.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	mr.Close()

	if _, ok := cache.Get(ctx, "example.com"); ok {
		t.Error("Get() with Redis down ok = true, want false")
	}
	rec, inserted := cache.Put(ctx, "example.com", testRecord("01"))
	if inserted {
		t.Error("Put() with Redis down inserted = true, want false")
	}
	if rec.SerialNumber != "01" {
		t.Errorf("Put() with Redis down serial = %v, want 01", rec.SerialNumber)
	}
	if err := cache.Ping(ctx); err == nil {
		t.Error("Ping() with Redis down error = nil, want error")
	}
}

func TestRedisCache_ConcurrentPut(t *testing.T) {
	_, cache := setupMiniredis(t)
	ctx := context.Background()

	const writers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inserts int
		serials = make(map[string]struct{})
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rec := testRecord(string(rune('A' + n)))
			stored, inserted := cache.Put(ctx, "example.com", rec)

			mu.Lock()
			defer mu.Unlock()
			if inserted {
				inserts++
			}
			serials[stored.SerialNumber] = struct{}{}
		}(i)
	}
	wg.Wait()

	if inserts != 1 {
		t.Errorf("inserts = %v, want 1", inserts)
	}
	if len(serials) != 1 {
		t.Errorf("distinct stored records = %v, want 1", len(serials))
	}
}
