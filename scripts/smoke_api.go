//go:build ignore

// Smoke test against a running server:
//
//	SMOKE_TOKEN=<bearer> go run scripts/smoke_api.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

func baseURL() string {
	if u := os.Getenv("SMOKE_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8000/api"
}

// Pretty print JSON helper
func prettyPrint(raw []byte) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, path, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL()+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(title string, wantStatus int, method, path, token string, body interface{}) []byte {
	color.Cyan("\n==> %s (%s %s)", title, method, path)

	resp, raw, err := sendRequest(method, path, token, body)
	if err != nil {
		color.Red("request failed: %v", err)
		os.Exit(1)
	}

	if resp.StatusCode != wantStatus {
		color.Red("FAIL: status %d, want %d", resp.StatusCode, wantStatus)
		prettyPrint(raw)
		os.Exit(1)
	}

	color.Green("OK: %d", resp.StatusCode)
	prettyPrint(raw)
	return raw
}

func main() {
	token := os.Getenv("SMOKE_TOKEN")
	if token == "" {
		color.Yellow("SMOKE_TOKEN is not set, protected routes will be skipped")
	}

	step("Health", http.StatusOK, http.MethodGet, "/health", "", nil)
	step("Unauthenticated list", http.StatusUnauthorized, http.MethodGet, "/tasks", "", nil)

	if token == "" {
		return
	}

	step("Empty task", http.StatusBadRequest, http.MethodPost, "/tasks", token, map[string]string{"text": "   "})

	raw := step("Create task", http.StatusOK, http.MethodPost, "/tasks", token,
		map[string]string{"text": "remind me to call mom tomorrow"})

	var created struct {
		Task struct {
			Id int64 `json:"id"`
		} `json:"task"`
	}
	if err := json.Unmarshal(raw, &created); err != nil || created.Task.Id == 0 {
		color.Red("could not read created task id")
		os.Exit(1)
	}

	step("List tasks", http.StatusOK, http.MethodGet, "/tasks", token, nil)
	step("Search", http.StatusOK, http.MethodPost, "/search", token, map[string]string{"query": "call mom"})
	step("Delete task", http.StatusOK, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.Task.Id), token, nil)
	step("Delete again", http.StatusNotFound, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.Task.Id), token, nil)

	color.Green("\nAll smoke checks passed")
}
