package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/genmap/utils"
)

type Config struct {
	Tests    string `usage:"comma separated tests to run, or ALL"`
	Base     string `usage:"base URL, empty starts a local server"`
	N        int64  `usage:"number of documents or cycles"`
	Workers  int    `usage:"number of workers"`
	Capacity int64  `usage:"churn table capacity, 0 means one slot per worker"`
}

var benchmarks = map[string]func(c Config){
	"INSERT": TestInsert,
	"CHURN":  TestChurn,
}

var cleanups []func()

func main() {
	os.Exit(run())
}

func run() int {

	c := Config{
		Tests:   "INSERT",
		N:       1_000_000,
		Workers: 16,
	}
	goconfig.Read(&c)

	selected, err := selectBenchmarks(c.Tests)
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		return 2
	}

	defer func() {
		fmt.Println("Cleaning up...")
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	for _, name := range selected {
		fmt.Println("=== " + name)
		benchmarks[name](c)
	}

	return 0
}

// selectBenchmarks resolves names before anything runs, so a typo does not
// leave a half finished run behind.
func selectBenchmarks(tests string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(tests), "ALL") {
		return utils.GetKeys(benchmarks), nil
	}

	selected := []string{}
	for _, name := range strings.Split(tests, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, exists := benchmarks[name]; !exists {
			return nil, fmt.Errorf("unknown test '%s', must be ALL or [%s]", name, strings.Join(utils.GetKeys(benchmarks), "|"))
		}
		selected = append(selected, name)
	}
	return selected, nil
}
