package service

import (
	"errors"
	"fmt"

	"github.com/fulldump/genmap/database"
	"github.com/fulldump/genmap/table"
)

var (
	ErrorTableNotFound      = database.ErrTableNotFound
	ErrorTableAlreadyExists = database.ErrTableAlreadyExists
	ErrorCapacityTooLarge   = errors.New("capacity too large")
)

type Service struct {
	db              *database.Database
	DefaultCapacity int
	MaxCapacity     int // 0 means no limit
}

func NewService(db *database.Database, defaultCapacity, maxCapacity int) *Service {
	return &Service{
		db:              db,
		DefaultCapacity: defaultCapacity,
		MaxCapacity:     maxCapacity,
	}
}

func (s *Service) CreateTable(name string, capacity int) (*table.Table, error) {
	if capacity == 0 {
		capacity = s.DefaultCapacity
	}
	if s.MaxCapacity > 0 && capacity > s.MaxCapacity {
		return nil, fmt.Errorf("%w: %d, max is %d", ErrorCapacityTooLarge, capacity, s.MaxCapacity)
	}

	return s.db.CreateTable(name, capacity)
}

func (s *Service) GetTable(name string) (*table.Table, error) {
	return s.db.GetTable(name)
}

func (s *Service) GetOrCreateTable(name string) (*table.Table, error) {
	t, err := s.db.GetTable(name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrorTableNotFound) {
		return nil, err
	}

	t, err = s.CreateTable(name, s.DefaultCapacity)
	if errors.Is(err, ErrorTableAlreadyExists) {
		// created concurrently
		return s.db.GetTable(name)
	}
	return t, err
}

func (s *Service) ListTables() map[string]*table.Table {
	return s.db.ListTables()
}

func (s *Service) DeleteTable(name string) error {
	return s.db.DropTable(name)
}
