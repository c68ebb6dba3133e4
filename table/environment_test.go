package table

import (
	"os"
	"path"
)

type JSON = map[string]any

func Environment(f func(filename string)) {
	dir, err := os.MkdirTemp("", "genmap-table-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	f(path.Join(dir, "table"))
}
