package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

func decodeLines(resp *apitest.Response) []interface{} {
	result := []interface{}{}
	d := json.NewDecoder(bytes.NewReader(resp.BodyBytes()))
	for {
		var item interface{}
		err := d.Decode(&item)
		if err == io.EOF {
			break
		}
		biff.AssertNil(err)
		result = append(result, item)
	}
	return result
}

func ndjson(documents ...JSON) string {
	body := ""
	for _, document := range documents {
		line, _ := json.Marshal(document)
		body += string(line) + "\n"
	}
	return body
}

// Acceptance runs the HTTP scenarios against a service with default capacity
// 3 and max capacity 10.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create table", func(a *biff.A) {
		resp := apiRequest("POST", "/tables").
			WithBodyJson(JSON{
				"name":     "users",
				"capacity": 3,
			}).Do()
		Save(resp, "Create table", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		expectedBody := JSON{
			"name":     "users",
			"count":    0,
			"capacity": 3,
			"indexes":  0,
		}
		biff.AssertEqualJson(resp.BodyJson(), expectedBody)

		a.Alternative("Create table twice", func(a *biff.A) {
			resp := apiRequest("POST", "/tables").
				WithBodyJson(JSON{"name": "users", "capacity": 3}).Do()
			Save(resp, "Create table - already exists", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Retrieve table", func(a *biff.A) {
			resp := apiRequest("GET", "/tables/users").Do()
			Save(resp, "Retrieve table", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), expectedBody)
		})

		a.Alternative("List tables", func(a *biff.A) {
			resp := apiRequest("GET", "/tables").Do()
			Save(resp, "List tables", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{expectedBody})
		})

		a.Alternative("Drop table", func(a *biff.A) {
			resp := apiRequest("POST", "/tables/users:dropTable").Do()
			Save(resp, "Drop table", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			a.Alternative("Get dropped table", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/users").Do()
				Save(resp, "Retrieve table - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})

		a.Alternative("Insert one", func(a *biff.A) {
			resp := apiRequest("POST", "/tables/users:insert").
				WithBodyJson(JSON{"name": "Alice"}).Do()
			Save(resp, "Insert one", `
				Every stored document is answered with its handle, 'position.generation'.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"handle": "0.0"})

			a.Alternative("Get by handle", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:get").
					WithBodyJson(JSON{"handle": "0.0"}).Do()
				Save(resp, "Get", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"name": "Alice"})
			})

			a.Alternative("Get without handle", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:get").
					WithBodyJson(JSON{}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Get malformed handle", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:get").
					WithBodyJson(JSON{"handle": "zero"}).Do()
				Save(resp, "Get - malformed handle", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Get out of range", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:get").
					WithBodyJson(JSON{"handle": "7.0"}).Do()
				Save(resp, "Get - out of range", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Remove", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:remove").
					WithBodyJson(JSON{"handle": "0.0"}).Do()
				Save(resp, "Remove", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"name": "Alice"})

				a.Alternative("Get stale handle", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:get").
						WithBodyJson(JSON{"handle": "0.0"}).Do()
					Save(resp, "Get - stale handle", `
						A removed handle never resolves again, even after its slot is reused.
					`)

					biff.AssertEqual(resp.StatusCode, http.StatusGone)
				})

				a.Alternative("Insert reuses the slot", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:insert").
						WithBodyJson(JSON{"name": "Bob"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusCreated)
					biff.AssertEqualJson(resp.BodyJson(), JSON{"handle": "0.1"})

					resp = apiRequest("POST", "/tables/users:get").
						WithBodyJson(JSON{"handle": "0.0"}).Do()
					biff.AssertEqual(resp.StatusCode, http.StatusGone)
				})
			})

			a.Alternative("Patch", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:patch").
					WithBodyJson(JSON{
						"handle": "0.0",
						"patch":  JSON{"age": 30},
					}).Do()
				Save(resp, "Patch", `
					The patch is a JSON merge patch, null removes a field.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"name": "Alice", "age": 30})
			})

			a.Alternative("Count", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:count").Do()
				Save(resp, "Count", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"count": 1, "capacity": 3, "free": 2})
			})

			a.Alternative("Find with fullscan", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:find").
					WithBodyJson(JSON{
						"mode":  "fullscan",
						"skip":  0,
						"limit": 1,
						"filter": JSON{
							"name": "Alice",
						},
					}).Do()
				Save(resp, "Find - fullscan", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"handle":   "0.0",
					"document": JSON{"name": "Alice"},
				})
			})

			a.Alternative("Find with bad mode", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:find").
					WithBodyJson(JSON{"mode": "telepathy"}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})
		})

		a.Alternative("Insert many", func(a *biff.A) {

			myDocuments := []JSON{
				{"id": "1", "name": "Alfonso", "team": "red"},
				{"id": "2", "name": "Gerardo", "team": "blue"},
				{"id": "3", "name": "Beatriz", "team": "red"},
			}

			resp := apiRequest("POST", "/tables/users:insert").
				WithBodyString(ndjson(myDocuments...)).Do()
			Save(resp, "Insert many", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(decodeLines(resp), []JSON{
				{"handle": "0.0"},
				{"handle": "1.0"},
				{"handle": "2.0"},
			})

			a.Alternative("Insert into a full table", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:insert").
					WithBodyJson(JSON{"id": "4"}).Do()
				Save(resp, "Insert - table full", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusInsufficientStorage)
			})

			a.Alternative("Find with limit 10", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:find").
					WithBodyJson(JSON{"limit": 10}).Do()
				Save(resp, "Find - fullscan with limit 10", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(decodeLines(resp), []JSON{
					{"handle": "0.0", "document": myDocuments[0]},
					{"handle": "1.0", "document": myDocuments[1]},
					{"handle": "2.0", "document": myDocuments[2]},
				})
			})

			a.Alternative("Create index - btree", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:createIndex").
					WithBodyJson(JSON{"name": "by-name", "type": "btree", "field": "name", "unique": true}).Do()
				Save(resp, "Create index - btree", ``)

				expectedIndex := JSON{
					"name":   "by-name",
					"type":   "btree",
					"field":  "name",
					"fields": []string{"name"},
					"sparse": false,
					"unique": true,
				}
				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				biff.AssertEqualJson(resp.BodyJson(), expectedIndex)

				a.Alternative("List indexes", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:listIndexes").Do()
					Save(resp, "List indexes", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), []JSON{expectedIndex})
				})

				a.Alternative("Find with BTree", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:find").
						WithBodyJson(JSON{
							"index": "by-name",
							"limit": 10,
						}).Do()
					Save(resp, "Find - by BTree", ``)

					names := []string{}
					for _, line := range decodeLines(resp) {
						names = append(names, line.(JSON)["document"].(JSON)["name"].(string))
					}
					biff.AssertEqual(names, []string{"Alfonso", "Beatriz", "Gerardo"})
				})

				a.Alternative("Find with BTree - range and reverse", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:find").
						WithBodyJson(JSON{
							"index":   "by-name",
							"limit":   10,
							"from":    JSON{"name": "B"},
							"reverse": true,
						}).Do()
					Save(resp, "Find - by BTree reverse order", ``)

					names := []string{}
					for _, line := range decodeLines(resp) {
						names = append(names, line.(JSON)["document"].(JSON)["name"].(string))
					}
					biff.AssertEqual(names, []string{"Gerardo", "Beatriz"})
				})

				a.Alternative("Unique conflict", func(a *biff.A) {
					apiRequest("POST", "/tables/users:remove").
						WithBodyJson(JSON{"handle": "1.0"}).Do()

					resp := apiRequest("POST", "/tables/users:insert").
						WithBodyJson(JSON{"id": "5", "name": "Alfonso"}).Do()
					Save(resp, "Insert - unique index conflict", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusConflict)

					resp = apiRequest("POST", "/tables/users:insert").
						WithBodyJson(JSON{"id": "5", "name": "Zoe"}).Do()
					biff.AssertEqualJson(resp.BodyJson(), JSON{"handle": "1.1"})
				})

				a.Alternative("Drop index", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:dropIndex").
						WithBodyJson(JSON{"name": "by-name"}).Do()
					Save(resp, "Drop index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

					resp = apiRequest("POST", "/tables/users:find").
						WithBodyJson(JSON{"index": "by-name"}).Do()
					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})

			a.Alternative("Create index - bitmap", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/users:createIndex").
					WithBodyJson(JSON{"name": "by-team", "type": "bitmap", "field": "team"}).Do()
				Save(resp, "Create index - bitmap", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)

				a.Alternative("Find with bitmap", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:find").
						WithBodyJson(JSON{
							"index": "by-team",
							"value": "red",
							"limit": 10,
						}).Do()
					Save(resp, "Find - by bitmap", ``)

					biff.AssertEqualJson(decodeLines(resp), []JSON{
						{"handle": "0.0", "document": myDocuments[0]},
						{"handle": "2.0", "document": myDocuments[2]},
					})
				})

				a.Alternative("Create twice", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/users:createIndex").
						WithBodyJson(JSON{"name": "by-team", "type": "bitmap", "field": "team"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				})
			})
		})
	})

	a.Alternative("Create table too large", func(a *biff.A) {
		resp := apiRequest("POST", "/tables").
			WithBodyJson(JSON{"name": "huge", "capacity": 11}).Do()
		Save(resp, "Create table - capacity too large", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Insert on not existing table", func(a *biff.A) {
		resp := apiRequest("POST", "/tables/my-table:insert").
			WithBodyJson(JSON{"id": "my-id"}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(resp.BodyJson(), JSON{"handle": "0.0"})

		a.Alternative("Table has default capacity", func(a *biff.A) {
			resp := apiRequest("GET", "/tables/my-table").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"name":     "my-table",
				"count":    1,
				"capacity": 3,
				"indexes":  0,
			})
		})
	})

	a.Alternative("Insert something that is not an object", func(a *biff.A) {
		resp := apiRequest("POST", "/tables/my-table:insert").
			WithBodyString(`[1,2,3]`).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Find with table not found", func(a *biff.A) {
		resp := apiRequest("POST", "/tables/your-table:find").
			WithBodyJson(JSON{}).Do()
		Save(resp, "Find - table not found", ``)

		errorMessage := resp.BodyJson().(JSON)["error"].(JSON)["message"].(string)
		biff.AssertTrue(strings.HasPrefix(errorMessage, "table not found"))
		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})
}
