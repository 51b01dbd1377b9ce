package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"kestrel/internal/diag"
	"kestrel/internal/scopescript"
)

// Current schema version - increment when CachedRun format changes
const cacheSchemaVersion uint16 = 1

// Digest identifies one evaluation: script path and bytes plus the options
// it ran with.
type Digest [sha256.Size]byte

// ResultCache хранит результаты вычисления скриптов на диске, по Digest.
// Thread-safe for concurrent access.
type ResultCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedRun is what a cache entry holds.
type CachedRun struct {
	Schema      uint16
	Diagnostics []diag.Diagnostic
	Dropped     int
	Result      *scopescript.Result
}

// OpenResultCache opens the cache under $XDG_CACHE_HOME/<app> (or ~/.cache).
func OpenResultCache(app string) (*ResultCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewResultCache(filepath.Join(base, app))
}

// NewResultCache opens a cache rooted at dir, creating it if needed.
func NewResultCache(dir string) (*ResultCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *ResultCache) Dir() string { return c.dir }

func (c *ResultCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "runs", fmt.Sprintf("%x.mp", key[:]))
}

// Put writes a run; the file is replaced atomically.
func (c *ResultCache) Put(key Digest, run *CachedRun) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	run.Schema = cacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(run); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a run. A missing entry or one written by another schema is a miss.
func (c *ResultCache) Get(key Digest) (*CachedRun, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var run CachedRun
	if err := msgpack.NewDecoder(f).Decode(&run); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if run.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &run, true, nil
}

// DropAll removes every entry.
func (c *ResultCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "runs"))
}

// runDigest: H(schema || path || data || options). Поля фиксированной ширины,
// строки с длиной, чтобы границы не сливались.
func runDigest(path string, data []byte, opts Options) Digest {
	h := sha256.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	writeBytes := func(b []byte) {
		writeU64(uint64(len(b)))
		_, _ = h.Write(b)
	}
	writeU64(uint64(cacheSchemaVersion))
	writeBytes([]byte(path))
	writeBytes(data)
	writeU64(uint64(opts.Defaults.Policy))
	writeU64(uint64(opts.Defaults.Buckets))
	writeU64(math.Float64bits(opts.Defaults.LoadFactor))
	writeU64(uint64(opts.maxDiagnostics()))

	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func runFromBag(bag *diag.Bag, result *scopescript.Result) *CachedRun {
	return &CachedRun{Diagnostics: bag.Items(), Dropped: bag.Dropped(), Result: result}
}

// restore refills bag from a cached run.
func (run *CachedRun) restore(bag *diag.Bag) {
	for _, d := range run.Diagnostics {
		bag.Add(d)
	}
	bag.AddDropped(run.Dropped)
}
