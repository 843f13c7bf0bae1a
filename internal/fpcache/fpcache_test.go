package fpcache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestCache_PutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	if _, ok, err := c.Get("a:b"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	rec := Record{Address: "a:b", Fingerprint: "abc", Fields: map[string]string{"sources": "123"}}
	if err := c.Put(rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get("a:b")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Schema != SchemaVersion || got.Fingerprint != "abc" || got.Fields["sources"] != "123" {
		t.Fatalf("record = %+v", got)
	}
	if got.UpdatedUnix != 1700000000 {
		t.Fatalf("UpdatedUnix = %d", got.UpdatedUnix)
	}

	rec.Fingerprint = "def"
	if err := c.Put(rec); err != nil {
		t.Fatal(err)
	}
	got, _, _ = c.Get("a:b")
	if got.Fingerprint != "def" {
		t.Fatalf("overwrite lost: %+v", got)
	}

	entries, err := os.ReadDir(filepath.Join(c.Dir(), "targets"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single record file, got %d", len(entries))
	}
}

func TestCache_ForeignSchemaIsMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Record{Address: "a:b", Schema: SchemaVersion + 1}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get("a:b"); ok || err != nil {
		t.Fatalf("foreign schema: ok=%v err=%v", ok, err)
	}
}

func TestCache_CorruptRecord(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := c.pathFor("a:b")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get("a:b"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCache_RecordIsMsgpack(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Record{Address: "x:y", Fingerprint: "f"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(c.pathFor("x:y"))
	if err != nil {
		t.Fatal(err)
	}
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Address != "x:y" {
		t.Fatalf("address = %q", rec.Address)
	}
}

func TestCache_DropAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Record{Address: "a:b"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir still present: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("second DropAll: %v", err)
	}
	// Put после DropAll пересоздаёт каталог
	if err := c.Put(Record{Address: "a:b"}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get("a:b"); !ok {
		t.Fatal("record missing after re-put")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := []string{"a:1", "a:2"}[i%2]
			if err := c.Put(Record{Address: addr}); err != nil {
				t.Error(err)
			}
			if _, _, err := c.Get(addr); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
}

func TestOpen_EmptyDir(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error")
	}
}
