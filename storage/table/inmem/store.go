package inmem

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/storage/table"
)

// Store keeps the tables in memory. Safe for concurrent use.
type Store struct {
	mutex  sync.RWMutex
	tables map[table.Table][]table.Row
	down   error
}

var _ table.Store = (*Store)(nil)

func New() *Store {
	tables := make(map[table.Table][]table.Row, len(table.AllTables))
	for _, t := range table.AllTables {
		tables[t] = nil
	}
	return &Store{tables: tables}
}

// Open returns a Store seeded from the YAML file at path (empty path: no seed).
func Open(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading seed file")
	}
	if err := s.Seed(data); err != nil {
		return nil, errors.Wrapf(err, "seeding from %s", path)
	}
	return s, nil
}

// Seed loads YAML shaped as {Table: [{column: value}]} on top of the current rows.
func (s *Store) Seed(data []byte) error {
	var seed map[string][]map[string]interface{}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "decoding seed")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for name, rows := range seed {
		t := table.Table(name)
		if !t.Valid() {
			return errors.Wrap(table.ErrUnknownTable, name)
		}
		for _, r := range rows {
			row := make(table.Row, len(r))
			for col, val := range r {
				row[col] = seedValue(val)
			}
			s.tables[t] = append(s.tables[t], row)
		}
	}
	return nil
}

// SetUnavailable makes every call fail with a connectivity error wrapping err (nil restores service).
func (s *Store) SetUnavailable(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.down = err
}

func (s *Store) Ping(_ context.Context) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return core.NewConnectivityError(s.down)
}

func (s *Store) FetchTable(_ context.Context, t table.Table) ([]table.Row, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.down != nil {
		return nil, core.NewConnectivityError(s.down)
	}
	if !t.Valid() {
		return nil, errors.Wrap(table.ErrUnknownTable, string(t))
	}
	rows := make([]table.Row, 0, len(s.tables[t]))
	for _, r := range s.tables[t] {
		rows = append(rows, copyRow(r))
	}
	return rows, nil
}

func (s *Store) AppendRow(_ context.Context, t table.Table, values []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.down != nil {
		return core.NewConnectivityError(s.down)
	}
	if err := table.CheckAppend(t, values); err != nil {
		return err
	}
	row := make(table.Row, len(values))
	for i, col := range t.Columns() {
		row[col] = values[i]
	}
	s.tables[t] = append(s.tables[t], row)
	return nil
}

func (s *Store) UpdateCell(_ context.Context, t table.Table, rowKey, field, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.down != nil {
		return core.NewConnectivityError(s.down)
	}
	key, err := table.CheckUpdate(t, field)
	if err != nil {
		return err
	}
	for _, r := range s.tables[t] {
		if r[key] == rowKey {
			r[field] = value
			return nil
		}
	}
	return table.ErrRowNotFound
}

func copyRow(r table.Row) table.Row {
	c := make(table.Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func seedValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return table.FormatBool(val)
	case string:
		return val
	case time.Time:
		return val.Format(core.DateLayout)
	default:
		return fmt.Sprint(val)
	}
}
