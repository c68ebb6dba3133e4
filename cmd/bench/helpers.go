package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fulldump/genmap/bootstrap"
	"github.com/fulldump/genmap/configuration"
)

type JSON = map[string]any

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "genmap_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

func CreateTable(base string, capacity int64) string {

	name := "table-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	payload, _ := json.Marshal(JSON{"name": name, "capacity": capacity})

	// the server answers 503 until the database is loaded
	for i := 0; ; i++ {
		req, _ := http.NewRequest("POST", base+"/v1/tables", bytes.NewReader(payload))
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			io.Copy(os.Stdout, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				return name
			}
		}
		if i == 50 {
			panic(fmt.Sprintf("create table '%s': %v", name, err))
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func CreateServer(c *Config) (dir string, start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.MaxCapacity = int(max(c.N, c.Capacity))
	conf.LogLevel = "warn"
	c.Base = "http://" + conf.HttpAddr

	start, stop = bootstrap.Bootstrap(conf)
	return dir, start, stop
}

func Report(operation string, n int64, took time.Duration) {
	fmt.Println(operation+":", n)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f ops/sec\n", float64(n)/took.Seconds())
}
