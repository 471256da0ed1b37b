package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"subwatch/internal/registry"
	logx "subwatch/pkg/logx"
)

func openTestStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subwatch.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	snap := &registry.Snapshot{
		Subscriptions: map[string][]string{
			"111": {"golang", "rust"},
			"222": {"golang"},
		},
		SeenPosts: map[string][]string{
			"golang": {"t3_a", "t3_b", "t3_c"},
		},
	}
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
	}
}

func TestFileStoreMissingSnapshot(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	_, err := st.Load(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load on missing file: %v, want ErrNoSnapshot", err)
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	t.Parallel()
	st, path := openTestStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := st.Load(context.Background())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("Load on corrupt file: %v, want ErrCorruptSnapshot", err)
	}
}

func TestFileStoreSaveLeavesNoTempResidue(t *testing.T) {
	t.Parallel()
	st, path := openTestStore(t)
	if err := st.Save(context.Background(), registry.EmptySnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	// Saved empty document loads back as empty maps, not nil.
	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Subscriptions == nil || got.SeenPosts == nil {
		t.Fatal("empty snapshot loaded with nil maps")
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	first := &registry.Snapshot{
		Subscriptions: map[string][]string{"111": {"golang"}},
		SeenPosts:     map[string][]string{"golang": {"t3_a"}},
	}
	if err := st.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &registry.Snapshot{
		Subscriptions: map[string][]string{},
		SeenPosts:     map[string][]string{"golang": {"t3_a", "t3_b"}},
	}
	if err := st.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("Load = %+v, want %+v", got, second)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("Open with unknown driver succeeded")
	}
}

func TestOpenDefaultsToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "snap.json")
	st, err := Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open with empty driver: %v", err)
	}
	_ = st.Close()
}
