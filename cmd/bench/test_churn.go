package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sync/atomic"
	"time"

	"github.com/fulldump/genmap/table"
)

// TestChurn keeps every worker doing insert, get, remove on its own slots so
// positions are reused and generations keep moving.
func TestChurn(c Config) {

	createServer := c.Base == ""

	var stop func()
	var dataDir string
	if createServer {
		var start func()
		dataDir, start, stop = CreateServer(&c)
		go start()
	}

	capacity := c.Capacity
	if capacity <= 0 {
		capacity = int64(c.Workers)
	}
	tableName := CreateTable(c.Base, capacity)

	transport := &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConns:        1024,
		MaxIdleConnsPerHost: 1024,
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}

	call := func(action string, body any) (*http.Response, error) {
		payload, _ := json.Marshal(body)
		url := fmt.Sprintf("%s/v1/tables/%s:%s", c.Base, tableName, action)
		return client.Post(url, "application/json", bytes.NewReader(payload))
	}

	remaining := c.N
	var stale int64

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for atomic.AddInt64(&remaining, -1) >= 0 {

			resp, err := call("insert", JSON{"at": time.Now().UnixNano()})
			if err != nil {
				fmt.Println("ERROR: insert:", err.Error())
				os.Exit(4)
			}
			inserted := struct {
				Handle string `json:"handle"`
			}{}
			json.NewDecoder(resp.Body).Decode(&inserted)
			resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				fmt.Println("ERROR: insert status:", resp.Status)
				continue
			}

			resp, err = call("remove", JSON{"handle": inserted.Handle})
			if err != nil {
				fmt.Println("ERROR: remove:", err.Error())
				os.Exit(4)
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			// the removed handle must never resolve again
			resp, err = call("get", JSON{"handle": inserted.Handle})
			if err != nil {
				fmt.Println("ERROR: get:", err.Error())
				os.Exit(4)
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusGone {
				atomic.AddInt64(&stale, 1)
			}
		}
	})

	Report("cycles", c.N, time.Since(t0))
	fmt.Println("stale handles rejected:", atomic.LoadInt64(&stale))

	if !createServer {
		return
	}

	stop()

	t1 := time.Now()
	t, err := table.OpenTable(path.Join(dataDir, tableName), 0)
	if err != nil {
		fmt.Println("ERROR: replay:", err.Error())
		os.Exit(5)
	}
	defer t.Close()
	tookOpen := time.Since(t1)
	fmt.Println("replay took:", tookOpen, "count:", t.Count(), "free:", t.Free())
}
