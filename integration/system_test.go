//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	passphrase := getenv("E2E_OWNER_PASSPHRASE", "owner")

	var session struct {
		AccessToken string `json:"access_token"`
	}
	doJSON(t, http.MethodPost, baseURL+"/session", "", map[string]any{
		"passphrase": passphrase,
	}, &session, 200)
	if session.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	token := session.AccessToken

	var avail []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/books/available", "", nil, &avail, 200)
	if len(avail) == 0 {
		t.Fatalf("expected available books")
	}

	id, ok := avail[0]["id"].(float64)
	if !ok || id == 0 {
		t.Fatalf("book id missing in response: %#v", avail[0])
	}
	bookID := int64(id)

	doJSON(t, http.MethodPost, baseURL+"/cart", token, map[string]any{
		"book_id": bookID, "quantity": 1,
	}, nil, 200)

	var order struct {
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	doJSON(t, http.MethodPost, baseURL+"/checkout", token, nil, &order, 201)
	if order.Data.OrderID == "" {
		t.Fatalf("order id missing: %#v", order)
	}

	var library []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/library", token, nil, &library, 200)
	if len(library) == 0 {
		t.Fatalf("expected purchased copies in library")
	}

	doJSON(t, http.MethodPut, fmt.Sprintf("%s/books/%d/progress", baseURL, bookID), token, map[string]any{
		"progress": 100,
	}, nil, 200)

	doJSON(t, http.MethodGet, baseURL+"/library", token, nil, &library, 200)
	found := false
	for _, e := range library {
		if bid, _ := e["book_id"].(float64); int64(bid) == bookID {
			if e["status"] == "completed" {
				found = true
			}
			break
		}
	}
	if !found {
		t.Fatalf("progress update not reflected: %#v", library)
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service never became ready: %v", ctx.Err())
		default:
		}

		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func doJSON(t *testing.T, method, url, token string, body any, out any, wantStatus int) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status=%d want=%d body=%s", method, url, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
