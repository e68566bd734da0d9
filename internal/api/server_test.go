package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/graybridge/internal/bridge"
	"github.com/nerrad567/graybridge/internal/infrastructure/config"
	"github.com/nerrad567/graybridge/internal/infrastructure/logging"
)

func newTestServer(t *testing.T, secret string) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	registry := bridge.New(bridge.Settings{DataDir: dir, BusyTimeout: 5})
	t.Cleanup(func() { registry.Close() })

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		Security: config.SecurityConfig{JWT: config.JWTConfig{Secret: secret}},
		Logger:   logging.Default(),
		Registry: registry,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, filepath.Join(dir, "api.db")
}

// post sends a JSON body and decodes the JSON response.
func post(t *testing.T, ts *httptest.Server, path, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response from %s: %v", path, err)
	}
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("health version = %v, want test", body["version"])
	}
}

func TestOpenSelectExecute(t *testing.T) {
	ts, dbPath := newTestServer(t, "")

	status, body := post(t, ts, "/api/v1/db/open", fmt.Sprintf(`{"path":%q}`, dbPath))
	if status != http.StatusOK {
		t.Fatalf("open status = %d, body = %v", status, body)
	}

	status, body = post(t, ts, "/api/v1/db/execute", fmt.Sprintf(
		`{"path":%q,"sql":"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"}`, dbPath))
	if status != http.StatusOK {
		t.Fatalf("create table status = %d, body = %v", status, body)
	}

	status, body = post(t, ts, "/api/v1/db/execute", fmt.Sprintf(
		`{"path":%q,"sql":"INSERT INTO users (id, name) VALUES (?, ?)","params":[1,"Bob"]}`, dbPath))
	if status != http.StatusOK {
		t.Fatalf("insert status = %d, body = %v", status, body)
	}
	if affected, ok := body["rows_affected"].(float64); !ok || affected != 1 {
		t.Errorf("rows_affected = %v, want 1", body["rows_affected"])
	}

	status, body = post(t, ts, "/api/v1/db/select", fmt.Sprintf(
		`{"path":%q,"sql":"SELECT id, name FROM users WHERE id = ?","params":[1]}`, dbPath))
	if status != http.StatusOK {
		t.Fatalf("select status = %d, body = %v", status, body)
	}

	rows, ok := body["rows"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("rows = %v, want one row", body["rows"])
	}
	row, ok := rows[0].(map[string]any)
	if !ok || row["name"] != "Bob" {
		t.Errorf("row = %v, want name Bob", rows[0])
	}
}

func TestLoadAndPragma(t *testing.T) {
	ts, _ := newTestServer(t, "")

	status, body := post(t, ts, "/api/v1/db/load", `{}`)
	if status != http.StatusOK {
		t.Fatalf("load status = %d, body = %v", status, body)
	}
	path, ok := body["path"].(string)
	if !ok || filepath.Base(path) != "graybridge.db" {
		t.Fatalf("load path = %v, want graybridge.db", body["path"])
	}

	status, body = post(t, ts, "/api/v1/db/pragma", fmt.Sprintf(
		`{"path":%q,"key":"cache_size","value":-2000}`, path))
	if status != http.StatusOK {
		t.Fatalf("pragma status = %d, body = %v", status, body)
	}

	status, body = post(t, ts, "/api/v1/db/pragma", fmt.Sprintf(
		`{"path":%q,"key":"cache_size; DROP TABLE x","value":1}`, path))
	if status != http.StatusBadRequest {
		t.Errorf("malicious pragma status = %d, want 400", status)
	}
	if body["code"] != "invalid_pragma" {
		t.Errorf("malicious pragma code = %v, want invalid_pragma", body["code"])
	}
}

func TestBatchRollback(t *testing.T) {
	ts, dbPath := newTestServer(t, "")

	post(t, ts, "/api/v1/db/open", fmt.Sprintf(`{"path":%q}`, dbPath))
	post(t, ts, "/api/v1/db/execute", fmt.Sprintf(
		`{"path":%q,"sql":"CREATE TABLE items (id INTEGER PRIMARY KEY)"}`, dbPath))

	status, body := post(t, ts, "/api/v1/db/batch", fmt.Sprintf(
		`{"path":%q,"statements":[`+
			`{"sql":"INSERT INTO items (id) VALUES (?)","params":[1]},`+
			`{"sql":"INSERT INTO missing (id) VALUES (?)","params":[2]}]}`, dbPath))
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("failing batch status = %d, body = %v", status, body)
	}
	if body["code"] != "batch_failed" {
		t.Errorf("failing batch code = %v, want batch_failed", body["code"])
	}

	_, body = post(t, ts, "/api/v1/db/select", fmt.Sprintf(
		`{"path":%q,"sql":"SELECT COUNT(*) AS n FROM items"}`, dbPath))
	rows := body["rows"].([]any)
	if n := rows[0].(map[string]any)["n"].(float64); n != 0 {
		t.Errorf("items after rollback = %v, want 0", n)
	}
}

func TestErrorEnvelopes(t *testing.T) {
	ts, dbPath := newTestServer(t, "")

	t.Run("not connected", func(t *testing.T) {
		status, body := post(t, ts, "/api/v1/db/select", fmt.Sprintf(
			`{"path":%q,"sql":"SELECT 1"}`, dbPath))
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
		if body["code"] != "not_connected" {
			t.Errorf("code = %v, want not_connected", body["code"])
		}
	})

	t.Run("missing path", func(t *testing.T) {
		status, body := post(t, ts, "/api/v1/db/select", `{"sql":"SELECT 1"}`)
		if status != http.StatusBadRequest || body["code"] != "bad_request" {
			t.Errorf("status = %d, code = %v, want 400/bad_request", status, body["code"])
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		status, body := post(t, ts, "/api/v1/db/open", `{not json`)
		if status != http.StatusBadRequest || body["code"] != "bad_request" {
			t.Errorf("status = %d, code = %v, want 400/bad_request", status, body["code"])
		}
	})

	t.Run("invalid parameter kind", func(t *testing.T) {
		post(t, ts, "/api/v1/db/open", fmt.Sprintf(`{"path":%q}`, dbPath))
		status, body := post(t, ts, "/api/v1/db/execute", fmt.Sprintf(
			`{"path":%q,"sql":"SELECT ?","params":[{"nested":"object"}]}`, dbPath))
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if body["code"] != "invalid_parameter" {
			t.Errorf("code = %v, want invalid_parameter", body["code"])
		}
	})

	t.Run("query failed", func(t *testing.T) {
		post(t, ts, "/api/v1/db/open", fmt.Sprintf(`{"path":%q}`, dbPath))
		status, body := post(t, ts, "/api/v1/db/select", fmt.Sprintf(
			`{"path":%q,"sql":"SELEKT broken"}`, dbPath))
		if status != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", status)
		}
		if body["code"] != "query_failed" {
			t.Errorf("code = %v, want query_failed", body["code"])
		}
	})
}

func TestAuth(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	ts, dbPath := newTestServer(t, secret)

	body := fmt.Sprintf(`{"path":%q}`, dbPath)

	t.Run("missing token rejected", func(t *testing.T) {
		status, resp := post(t, ts, "/api/v1/db/open", body)
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
		if resp["code"] != "unauthorised" {
			t.Errorf("code = %v, want unauthorised", resp["code"])
		}
	})

	t.Run("health stays open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/health")
		if err != nil {
			t.Fatalf("GET /health: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token := signToken(t, "wrong-secret-wrong-secret-wrong!")
		if status := postWithToken(t, ts, "/api/v1/db/open", body, token); status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("valid token accepted", func(t *testing.T) {
		token := signToken(t, secret)
		if status := postWithToken(t, ts, "/api/v1/db/open", body, token); status != http.StatusOK {
			t.Errorf("status = %d, want 200", status)
		}
	})
}

func signToken(t *testing.T, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "test",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func postWithToken(t *testing.T, ts *httptest.Server, path, body, token string) int {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodPost, ts.URL+path, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}
