package memory

import (
	"context"
	"io"
	"testing"
)

func TestBlobStoreWriteCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	if err := store.Write(context.Background(), "dados_glp/a.csv", payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	payload[0] = 'C'
	stored, ok := store.Get("dados_glp/a.csv")
	if !ok || string(stored) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", stored)
	}
	if store.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", store.Writes())
	}
}

func TestBlobStoreExistsListOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewBlobStore()
	for _, locator := range []string{"ge/b.csv", "ge/a.csv", "ge/x.txt", "ge/sub/c.csv", "ge/e.CSV", "glp/d.csv"} {
		if err := store.Write(ctx, locator, []byte(locator)); err != nil {
			t.Fatalf("Write(%s) error = %v", locator, err)
		}
	}

	if ok, _ := store.Exists(ctx, "ge/a.csv"); !ok {
		t.Fatal("expected ge/a.csv to exist")
	}
	if ok, _ := store.Exists(ctx, "ge/zzz.csv"); ok {
		t.Fatal("expected ge/zzz.csv to be absent")
	}

	got, err := store.List(ctx, "ge", ".csv")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0] != "ge/a.csv" || got[1] != "ge/b.csv" {
		t.Fatalf("unexpected listing %v", got)
	}

	rc, err := store.Open(ctx, "glp/d.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "glp/d.csv" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := store.Open(ctx, "missing.csv"); err == nil {
		t.Fatal("expected error opening missing locator")
	}
	if err := store.Write(ctx, " ", nil); err == nil {
		t.Fatal("expected error for empty locator")
	}
}
