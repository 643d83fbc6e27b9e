package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMain(m *testing.M) {
	retryDelay = time.Millisecond
	os.Exit(m.Run())
}

// exercise runs the behaviour every backend shares.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "key"); hit || data != nil || err != nil {
		t.Error("NullCache should not store data")
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	exercise(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "short", []byte("a"), time.Minute)
	c.Set(ctx, "forever", []byte("b"), 0)
	garbage := c.path("garbage")
	os.MkdirAll(filepath.Dir(garbage), 0755)
	if err := os.WriteFile(garbage, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Prune removed %d entries, want 2", n)
	}
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL expired")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Clear() = %d, %v, want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: mr.Addr()}, WithPrefix("test:"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	exercise(t, c)

	if err := c.Set(ctx, "ttl", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("test:ttl") {
		t.Fatal("prefix not applied")
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "ttl"); hit {
		t.Error("entry outlived its TTL")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCache(context.Background(), RedisConfig{Addr: addr})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if n := len(Hash([]byte("hello"))); n != 64 {
		t.Errorf("Hash length should be 64, got %d", n)
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	base := LayoutKeyOpts{Width: 800, Height: 600}

	if k.LayoutKey("h", base) == k.LayoutKey("h", LayoutKeyOpts{Width: 800, Height: 600, Toggles: []string{"A"}}) {
		t.Error("toggles should change the layout key")
	}
	svg := k.ArtifactKey("h", ArtifactKeyOpts{LayoutKeyOpts: base, Format: "svg"})
	png := k.ArtifactKey("h", ArtifactKeyOpts{LayoutKeyOpts: base, Format: "png"})
	if svg == png {
		t.Error("format should change the artifact key")
	}
	if svg != k.ArtifactKey("h", ArtifactKeyOpts{LayoutKeyOpts: base, Format: "svg"}) {
		t.Error("artifact key is not deterministic")
	}

	scoped := NewScopedKeyer(nil, "chart:1:")
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}); got != "chart:1:"+k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}) {
		t.Errorf("scoped key = %s", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	permanent := errors.New("permanent")
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("non-retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err %v after %d calls", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v after %d calls", err, calls)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := RetryWithBackoff(cctx, func() error { return Retryable(ErrUnavailable) }); err != context.Canceled {
		t.Errorf("canceled: %v", err)
	}
}
