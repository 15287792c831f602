package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"discoverycore/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	info, err := store.Put(ctx, "roadmaps/tenant-1/roadmap.json", strings.NewReader(`{"tickets":[]}`),
		core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"tenant": "tenant-1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"tickets":[]}`)) || info.ContentType != "application/json" {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := store.Put(ctx, "roadmaps/tenant-1/roadmap.json", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}

	got, rc, err := store.Get(ctx, "roadmaps/tenant-1/roadmap.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"tickets":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Metadata["tenant"] != "tenant-1" {
		t.Fatalf("metadata lost: %+v", got)
	}

	head, err := store.Head(ctx, "roadmaps/tenant-1/roadmap.json")
	if err != nil || head.Key != "roadmaps/tenant-1/roadmap.json" {
		t.Fatalf("head: %+v err=%v", head, err)
	}

	ok, err := store.Delete(ctx, "roadmaps/tenant-1/roadmap.json")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = store.Delete(ctx, "roadmaps/tenant-1/roadmap.json")
	if err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
}

func TestStoreListOrdersAndFilters(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, key := range []string{"roadmaps/b/r.json", "roadmaps/a/r.json", "other/x"} {
		if _, err := store.Put(ctx, key, strings.NewReader("data"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "roadmaps/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "roadmaps/a/r.json" || infos[1].Key != "roadmaps/b/r.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestStorePresignUnsupported(t *testing.T) {
	if _, err := New().PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestStoreGetCopiesData(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("immutable"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first, _ := io.ReadAll(rc)
	_ = rc.Close()
	first[0] = 'X'

	_, rc, err = store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	second, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(second) != "immutable" {
		t.Fatalf("stored data mutated: %q", second)
	}
}
