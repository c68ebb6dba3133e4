package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
)

// Save renders an acceptance step as a markdown example and writes it to
// GENMAP_DOCS_PATH. Nothing is written when the variable is empty.
func Save(response *apitest.Response, title, description string) {

	docsPath := os.Getenv("GENMAP_DOCS_PATH")
	if docsPath == "" {
		return
	}

	request := response.Request

	target := request.URL.Path
	if request.URL.RawQuery != "" {
		target += "?" + request.URL.RawQuery
	}

	requestBody := formatBody(response.BodyRequestString())

	s := &strings.Builder{}

	fmt.Fprintf(s, "# %s\n", title)
	fmt.Fprintf(s, "%s\n", cropTabs(description))

	s.WriteString("Curl example:\n\n```sh\ncurl ")
	if request.Method != "GET" {
		s.WriteString("-X " + request.Method + " ")
	}
	fmt.Fprintf(s, "\"https://example.com%s\"", target)
	for _, k := range sortedKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(s, " \\\n-H \"%s: %s\"", k, v)
		}
	}
	if requestBody != "" {
		fmt.Fprintf(s, " \\\n-d '%s'", requestBody)
	}
	s.WriteString("\n```\n\n\n")

	s.WriteString("HTTP request/response example:\n\n```http\n")
	fmt.Fprintf(s, "%s %s %s\nHost: example.com\n", request.Method, target, request.Proto)
	for _, k := range sortedKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(s, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(s, "\n%s\n\n", requestBody)

	fmt.Fprintf(s, "%s %s\n", response.Proto, response.Status)
	for _, k := range sortedKeys(response.Header) {
		if k == "Date" {
			s.WriteString("Date: Mon, 15 Aug 2022 02:08:13 GMT\n")
			continue
		}
		for _, v := range response.Header[k] {
			fmt.Fprintf(s, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(s, "\n%s\n```\n\n\n", formatBody(response.BodyString()))

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(docsPath, path.Clean(filename))
	fmt.Println("Saving", p)
	if err := os.WriteFile(p, []byte(s.String()), 0666); err != nil {
		fmt.Println("Saving err:", err)
	}
}

func sortedKeys(header map[string][]string) []string {
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatBody indents a JSON body. NDJSON bodies are left one value per line.
func formatBody(body string) string {

	var i any
	if err := json.Unmarshal([]byte(body), &i); err != nil {
		return strings.TrimSpace(body)
	}

	indented := &bytes.Buffer{}
	if err := json.Indent(indented, []byte(body), "", "    "); err != nil {
		return body
	}

	return indented.String()
}

// cropTabs removes the indentation shared by every line of a raw string
// literal written inside a test.
func cropTabs(d string) string {
	lines := strings.Split(d, "\n")

	inner := lines
	if len(lines) > 2 {
		inner = lines[1 : len(lines)-1]
	}

	minTabs := -1
	for _, line := range inner {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		if minTabs < 0 || tabs < minTabs {
			minTabs = tabs
		}
	}

	if minTabs > 0 {
		prefix := strings.Repeat("\t", minTabs)
		for i, line := range lines {
			lines[i] = strings.TrimPrefix(line, prefix)
		}
	}

	return strings.Join(lines, "\n")
}
