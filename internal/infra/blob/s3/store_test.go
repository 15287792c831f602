package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"discoverycore/internal/blob/core"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("DISCOVERYCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	const key = "roadmaps/tenant-1/roadmap.json"
	info, err := store.Put(ctx, key, strings.NewReader(`{"tickets":[]}`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != key {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}

	got, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"tickets":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("content type lost: %+v", got)
	}

	if _, err := store.Head(ctx, key); err != nil {
		t.Fatalf("head: %v", err)
	}

	infos, err := store.List(ctx, "roadmaps/")
	if err != nil || len(infos) != 1 || infos[0].Key != key {
		t.Fatalf("list: %+v err=%v", infos, err)
	}

	if ok, err := store.Delete(ctx, key); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, err := store.Head(ctx, key); err == nil {
		t.Fatalf("expected head to fail after delete")
	}
}

func TestMockStorePresign(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()

	url, err := store.PresignURL(ctx, "roadmaps/a/r.json", core.SignedURLOptions{})
	if err != nil || !strings.Contains(url, "roadmaps/a/r.json") {
		t.Fatalf("presign: url=%q err=%v", url, err)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
