package db

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"pharmadb/models"
)

type DB struct {
	badgerDB *badger.DB
}

func New(dbPath string) (*DB, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable badger logging for cleaner output

	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{badgerDB: badgerDB}, nil
}

func (d *DB) Close() error {
	return d.badgerDB.Close()
}

// StoreQueryRun records one answered question for the history endpoint. The
// run gets an ID if the caller did not assign one.
func (d *DB) StoreQueryRun(run *models.QueryRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp == "" {
		run.Timestamp = time.Now().Format(time.RFC3339)
	}

	return d.badgerDB.Update(func(txn *badger.Txn) error {
		key := []byte(fmt.Sprintf("run:%d:%s", time.Now().Unix(), run.ID))

		data, err := json.Marshal(run)
		if err != nil {
			return err
		}

		return txn.Set(key, data)
	})
}

// RecentQueryRuns returns up to limit runs, newest first.
func (d *DB) RecentQueryRuns(limit int) ([]models.QueryRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var runs []models.QueryRun

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("run:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var run models.QueryRun
				if err := json.Unmarshal(val, &run); err != nil {
					return err
				}
				runs = append(runs, run)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys sort oldest first; flip and trim.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp > runs[j].Timestamp
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}
