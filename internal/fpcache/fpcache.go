// Package fpcache stores the last known fingerprint of every target on disk,
// one msgpack record per target.
package fpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion - increment when Record format changes
const SchemaVersion uint16 = 1

// Record is the stored state of one target.
type Record struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Address     string
	Fingerprint string            // "" when the target had no fingerprint
	Fields      map[string]string // field key -> digest
	UpdatedUnix int64
}

// Updated returns the write time of the record.
func (r Record) Updated() time.Time { return time.Unix(r.UpdatedUnix, 0) }

// Cache is a directory of records. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// Open returns a cache rooted at dir, creating it if needed.
func Open(dir string) (*Cache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("fpcache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fpcache: %w", err)
	}
	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(address string) string {
	sum := sha256.Sum256([]byte(address))
	// подкаталог "targets", имя файла: хеш адреса
	return filepath.Join(c.dir, "targets", hex.EncodeToString(sum[:])+".mp")
}

// Put writes rec, replacing any previous record of the same address.
// Schema and UpdatedUnix are filled in when zero.
func (c *Cache) Put(rec Record) (err error) {
	if c == nil {
		return nil
	}
	if rec.Address == "" {
		return errors.New("fpcache: record without address")
	}
	if rec.Schema == 0 {
		rec.Schema = SchemaVersion
	}
	if rec.UpdatedUnix == 0 {
		rec.UpdatedUnix = c.now().Unix()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(rec.Address)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(&rec); err != nil {
		return fmt.Errorf("fpcache: encode %s: %w", rec.Address, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads the record of address. A missing record, or one written with a
// different schema, is reported as ok == false.
func (c *Cache) Get(address string) (Record, bool, error) {
	if c == nil {
		return Record{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(address))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	defer f.Close()

	var rec Record
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return Record{}, false, fmt.Errorf("fpcache: decode %s: %w", address, err)
	}
	if rec.Schema != SchemaVersion || rec.Address != address {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// DropAll removes every record, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	// переименуем каталог, затем удалим
	old := c.dir + ".old-" + c.now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
