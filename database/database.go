package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fulldump/genmap/table"
	"github.com/fulldump/genmap/utils"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var (
	ErrTableNotFound      = errors.New("table not found")
	ErrTableAlreadyExists = errors.New("table already exists")
	ErrInvalidName        = errors.New("invalid table name")
)

type Config struct {
	Dir    string
	Logger *slog.Logger
}

type Database struct {
	config *Config
	logger *slog.Logger
	status string
	tables map[string]*table.Table
	mutex  sync.RWMutex
	exit   chan struct{}
	once   sync.Once
}

func NewDatabase(config *Config) *Database {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Database{
		config: config,
		logger: logger,
		status: StatusOpening,
		tables: map[string]*table.Table{},
		exit:   make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: '%s'", ErrInvalidName, name)
	}
	return nil
}

// CreateTable creates an empty table with capacity slots.
func (db *Database) CreateTable(name string, capacity int) (*table.Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := table.ValidateCapacity(capacity); err != nil {
		return nil, err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, exists := db.tables[name]; exists {
		return nil, fmt.Errorf("%w: '%s'", ErrTableAlreadyExists, name)
	}

	filename := path.Join(db.config.Dir, name)
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("%w: '%s' has a journal on disk", ErrTableAlreadyExists, name)
	}

	t, err := table.OpenTable(filename, capacity)
	if err != nil {
		return nil, err
	}

	db.tables[name] = t
	db.logger.Info("table created", "table", name, "capacity", capacity)

	return t, nil
}

func (db *Database) GetTable(name string) (*table.Table, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t, exists := db.tables[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrTableNotFound, name)
	}

	return t, nil
}

// ListTables returns a snapshot of the open tables.
func (db *Database) ListTables() map[string]*table.Table {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	result := make(map[string]*table.Table, len(db.tables))
	for name, t := range db.tables {
		result[name] = t
	}
	return result
}

// TableNames returns table names in lexical order.
func (db *Database) TableNames() []string {
	return utils.GetKeys(db.ListTables())
}

func (db *Database) DropTable(name string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, exists := db.tables[name]
	if !exists {
		return fmt.Errorf("%w: '%s'", ErrTableNotFound, name)
	}

	if err := t.Drop(); err != nil {
		return fmt.Errorf("drop '%s': %w", name, err)
	}

	delete(db.tables, name)
	db.logger.Info("table dropped", "table", name)

	return nil
}

// Load replays every journal in the data directory.
func (db *Database) Load() error {

	dir := db.config.Dir
	db.logger.Info("loading database", "dir", dir)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	err = filepath.WalkDir(dir, func(filename string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if filename != dir {
				return filepath.SkipDir
			}
			return nil
		}

		name := strings.TrimPrefix(filename, dir)
		name = strings.TrimPrefix(name, string(filepath.Separator))

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() == 0 {
			// a journal always starts with its create command
			db.logger.Warn("removing empty journal", "table", name)
			return os.Remove(filename)
		}

		t0 := time.Now()
		t, err := table.OpenTable(filename, 0)
		if err != nil {
			db.logger.Error("open table", "table", name, "err", err)
			return fmt.Errorf("open table '%s': %w", name, err)
		}
		db.logger.Info("table loaded", "table", name, "count", t.Count(), "capacity", t.Cap(), "took", time.Since(t0))

		db.mutex.Lock()
		db.tables[name] = t
		db.mutex.Unlock()

		return nil
	})

	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	db.setStatus(StatusOperating)

	return nil
}

// Start loads the database and blocks until Stop is called.
func (db *Database) Start() error {

	err := db.Load()
	if err != nil {
		return err
	}

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer db.once.Do(func() { close(db.exit) })

	db.setStatus(StatusClosing)

	var lastErr error
	for name, t := range db.ListTables() {
		db.logger.Info("closing table", "table", name)
		err := t.Close()
		if err != nil {
			db.logger.Error("close table", "table", name, "err", err)
			lastErr = err
		}
	}

	return lastErr
}
