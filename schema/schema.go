package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// The three tables this system knows about. Everything else is rejected
// upstream by the safety filter and the prompt rules.
var KnownTables = []string{"products", "selling", "buying"}

// Snapshot maps a table name to its valid column names. A zero Snapshot means
// "schema unknown": callers must treat it as "no correction possible", never
// as an error.
type Snapshot struct {
	tables map[string][]string
}

func NewSnapshot(tables map[string][]string) Snapshot {
	copied := make(map[string][]string, len(tables))
	for t, cols := range tables {
		cs := append([]string(nil), cols...)
		sort.Strings(cs)
		copied[strings.ToLower(t)] = cs
	}
	return Snapshot{tables: copied}
}

func (s Snapshot) Empty() bool {
	for _, cols := range s.tables {
		if len(cols) > 0 {
			return false
		}
	}
	return true
}

// Columns returns the known columns of a table, sorted.
func (s Snapshot) Columns(table string) []string {
	return s.tables[strings.ToLower(table)]
}

// Match resolves a column name case-insensitively and returns its canonical
// spelling.
func (s Snapshot) Match(table, column string) (string, bool) {
	lc := strings.ToLower(column)
	for _, c := range s.Columns(table) {
		if strings.ToLower(c) == lc {
			return c, true
		}
	}
	return "", false
}

// Has reports whether the column exists exactly as spelled.
func (s Snapshot) Has(table, column string) bool {
	for _, c := range s.Columns(table) {
		if c == column {
			return true
		}
	}
	return false
}

// AllowedText renders the snapshot as the prompt fragment listing every name
// the model is allowed to use.
func (s Snapshot) AllowedText() string {
	if s.Empty() {
		return "Use only tables: [dbo].[products], [dbo].[selling], [dbo].[buying]."
	}
	return fmt.Sprintf(
		"Tables and columns (use ONLY these exact names):\n"+
			"- products: %s\n"+
			"- selling : %s\n"+
			"- buying  : %s\n",
		strings.Join(s.Columns("products"), ", "),
		strings.Join(s.Columns("selling"), ", "),
		strings.Join(s.Columns("buying"), ", "),
	)
}

// Source is the narrow interface the cache loads from; service.SQLServerService
// implements it against INFORMATION_SCHEMA.
type Source interface {
	SchemaColumns(ctx context.Context) (map[string][]string, error)
}

// Cache holds the Schema Snapshot for the process lifetime. It loads lazily on
// first use and caches only a successful load; a failed load returns an empty
// snapshot and the next call tries again. There is deliberately no
// invalidation: staleness is an accepted limitation.
type Cache struct {
	source Source
	logger *zap.Logger

	mu     sync.Mutex
	snap   Snapshot
	loaded bool
}

func NewCache(source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, logger: logger}
}

// Snapshot returns the cached snapshot, loading it on first call. Load
// failures are non-fatal.
func (c *Cache) Snapshot(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.snap
	}
	if c.source == nil {
		return Snapshot{}
	}
	tables, err := c.source.SchemaColumns(ctx)
	if err != nil {
		c.logger.Warn("schema load failed (non-fatal)", zap.Error(err))
		return Snapshot{}
	}
	c.snap = NewSnapshot(tables)
	c.loaded = true
	return c.snap
}

// AllowedText is the prompt fragment for the current snapshot.
func (c *Cache) AllowedText(ctx context.Context) string {
	return c.Snapshot(ctx).AllowedText()
}
