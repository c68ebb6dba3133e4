package service

import (
	"github.com/fulldump/genmap/table"
)

type Servicer interface {
	CreateTable(name string, capacity int) (*table.Table, error)
	GetTable(name string) (*table.Table, error)
	// GetOrCreateTable creates missing tables with the default capacity.
	GetOrCreateTable(name string) (*table.Table, error)
	ListTables() map[string]*table.Table
	DeleteTable(name string) error
}
