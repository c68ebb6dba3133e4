package service

import (
	"errors"
	"os"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/genmap/database"
)

func TestService(t *testing.T) {
	biff.Alternative("Service with default capacity 8 and max 16", func(a *biff.A) {

		dir, err := os.MkdirTemp("", "genmap-service-")
		biff.AssertNil(err)
		defer os.RemoveAll(dir)

		db := database.NewDatabase(&database.Config{Dir: dir})
		biff.AssertNil(db.Load())
		defer db.Stop()

		s := NewService(db, 8, 16)

		a.Alternative("Default capacity", func(a *biff.A) {
			users, err := s.CreateTable("users", 0)
			biff.AssertNil(err)
			biff.AssertEqual(users.Cap(), 8)
		})

		a.Alternative("Capacity too large", func(a *biff.A) {
			_, err := s.CreateTable("users", 17)
			biff.AssertTrue(errors.Is(err, ErrorCapacityTooLarge))
			biff.AssertEqual(len(s.ListTables()), 0)
		})

		a.Alternative("Get missing table", func(a *biff.A) {
			_, err := s.GetTable("users")
			biff.AssertTrue(errors.Is(err, ErrorTableNotFound))
		})

		a.Alternative("Get or create", func(a *biff.A) {
			first, err := s.GetOrCreateTable("users")
			biff.AssertNil(err)
			second, err := s.GetOrCreateTable("users")
			biff.AssertNil(err)
			biff.AssertTrue(first == second)
			biff.AssertEqual(first.Cap(), 8)
		})

		a.Alternative("Delete table", func(a *biff.A) {
			s.CreateTable("users", 2)
			biff.AssertNil(s.DeleteTable("users"))
			biff.AssertTrue(errors.Is(s.DeleteTable("users"), ErrorTableNotFound))
		})
	})
}
