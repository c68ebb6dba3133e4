package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fulldump/goconfig"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

type Config struct {
	Base    string `usage:"base URL"`
	Table   string `usage:"table name, created on first insert"`
	N       int    `usage:"number of documents"`
	Payload int    `usage:"payload size in words"`
}

// Streams documents into :insert and prints every handle as it comes back,
// while the request body is still being written.
func main() {

	c := Config{
		Base:    "http://localhost:8080",
		Table:   "streamtest",
		N:       1000,
		Payload: 1000,
	}
	goconfig.Read(&c)

	r, w := io.Pipe()

	e := json.NewEncoder(w)

	go func() {
		for i := 0; i < c.N; i++ {

			e.Encode(map[string]any{
				"id":      i,
				"payload": strings.Repeat("fake ", c.Payload),
			})

			fmt.Println("sent", i)
		}
		w.Close()
	}()

	req, err := http.NewRequest("POST", c.Base+"/v1/tables/"+c.Table+":insert", r)
	if err != nil {
		fmt.Println("ERROR: new request:", err.Error())
		os.Exit(3)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("ERROR: do request:", err.Error())
		os.Exit(4)
	}
	defer resp.Body.Close()

	d := jsontext.NewDecoder(resp.Body)

	for {
		received := struct {
			Handle string `json:"handle"`
		}{}
		err := json2.UnmarshalDecode(d, &received)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Println("ERROR: response body:", err.Error())
			os.Exit(5)
		}

		fmt.Println("RECEIVED:", received.Handle)
	}
}
