package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/HerencsarMichal/citacka/internal/auth"
	"github.com/HerencsarMichal/citacka/internal/bookstore"
	"github.com/HerencsarMichal/citacka/internal/httpapi"
	"github.com/HerencsarMichal/citacka/internal/snapshot"
)

const testPassphrase = "test-pass"

type staticSource struct {
	books []bookstore.Book
}

func (s staticSource) Load(ctx context.Context) ([]bookstore.Book, error) {
	return s.books, nil
}

func newTS(t *testing.T, books []bookstore.Book) *httptest.Server {
	t.Helper()

	kv := snapshot.NewMemKV()
	st := bookstore.New(kv, nil, zap.NewNop())
	st.Initialize(context.Background(), staticSource{books: books})
	if err := st.Err(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	owner, err := auth.NewOwner(testPassphrase)
	if err != nil {
		t.Fatalf("new owner: %v", err)
	}

	s := &httpapi.Server{
		Store: st,
		Owner: owner,
		JWT:   auth.NewTokenMaker("test-secret"),
		KV:    kv,
		Log:   zap.NewNop(),
	}

	h := httpapi.NewHandler(s, httpapi.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "bookstore",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func defaultBooks() []bookstore.Book {
	return []bookstore.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", PriceCents: 1000, Stock: 5},
		{ID: 2, Title: "Hyperion", Author: "Dan Simmons", PriceCents: 1490, Stock: 2},
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

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	doJSON(t, http.MethodPost, ts.URL+"/session", "", map[string]any{
		"passphrase": testPassphrase,
	}, &resp, http.StatusOK)

	if resp.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	return resp.AccessToken
}

func TestSession_WrongPassphrase(t *testing.T) {
	ts := newTS(t, defaultBooks())

	doJSON(t, http.MethodPost, ts.URL+"/session", "", map[string]any{
		"passphrase": "nope",
	}, nil, http.StatusUnauthorized)
}

func TestCart_RequiresToken(t *testing.T) {
	ts := newTS(t, defaultBooks())

	doJSON(t, http.MethodGet, ts.URL+"/cart", "", nil, nil, http.StatusUnauthorized)
	doJSON(t, http.MethodPost, ts.URL+"/cart", "garbage-token", map[string]any{
		"book_id": 1, "quantity": 1,
	}, nil, http.StatusUnauthorized)
}

func TestBooks_Public(t *testing.T) {
	ts := newTS(t, defaultBooks())

	var listing struct {
		Books   []bookstore.Book `json:"books"`
		Loading bool             `json:"loading"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/books", "", nil, &listing, http.StatusOK)
	if len(listing.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(listing.Books))
	}
	if listing.Loading {
		t.Fatalf("loading flag still set")
	}

	doJSON(t, http.MethodGet, ts.URL+"/books/99", "", nil, nil, http.StatusNotFound)
	doJSON(t, http.MethodGet, ts.URL+"/books/abc", "", nil, nil, http.StatusBadRequest)
}

func TestBookContent_NullWhenUnavailable(t *testing.T) {
	ts := newTS(t, defaultBooks())

	var bc struct {
		Book    bookstore.Book `json:"book"`
		Content *string        `json:"content"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/books/1/content", "", nil, &bc, http.StatusOK)
	if bc.Book.ID != 1 {
		t.Fatalf("wrong book: %+v", bc.Book)
	}
	if bc.Content != nil {
		t.Fatalf("expected null content, got %q", *bc.Content)
	}
}

func TestShopFlow(t *testing.T) {
	ts := newTS(t, defaultBooks())
	token := login(t, ts)

	type cartView struct {
		Lines      []bookstore.CartLine `json:"lines"`
		ItemCount  int                  `json:"item_count"`
		TotalCents int64                `json:"total_cents"`
	}
	var msg struct {
		Message string   `json:"message"`
		Data    cartView `json:"data"`
	}

	doJSON(t, http.MethodPost, ts.URL+"/cart", token, map[string]any{
		"book_id": 1, "quantity": 3,
	}, &msg, http.StatusOK)
	if msg.Data.ItemCount != 3 || msg.Data.TotalCents != 3000 {
		t.Fatalf("unexpected cart: %+v", msg.Data)
	}

	// prospective total 3+3 exceeds stock 5
	doJSON(t, http.MethodPost, ts.URL+"/cart", token, map[string]any{
		"book_id": 1, "quantity": 3,
	}, nil, http.StatusConflict)

	doJSON(t, http.MethodPut, ts.URL+"/cart/1", token, map[string]any{
		"quantity": 5,
	}, &msg, http.StatusOK)
	if msg.Data.ItemCount != 5 {
		t.Fatalf("expected quantity 5, got %+v", msg.Data)
	}

	var order struct {
		Message string                 `json:"message"`
		Data    bookstore.OrderSummary `json:"data"`
	}
	doJSON(t, http.MethodPost, ts.URL+"/checkout", token, nil, &order, http.StatusCreated)
	if order.Data.TotalCents != 5000 || len(order.Data.Lines) != 1 {
		t.Fatalf("unexpected order: %+v", order.Data)
	}

	var lib []bookstore.LibraryEntry
	doJSON(t, http.MethodGet, ts.URL+"/library", token, nil, &lib, http.StatusOK)
	if len(lib) != 5 {
		t.Fatalf("expected 5 copies, got %d", len(lib))
	}

	doJSON(t, http.MethodPut, ts.URL+"/books/1/progress", token, map[string]any{
		"progress": 100,
	}, nil, http.StatusOK)

	doJSON(t, http.MethodGet, ts.URL+"/library", token, nil, &lib, http.StatusOK)
	if lib[0].Status != bookstore.StatusCompleted {
		t.Fatalf("expected completed, got %s", lib[0].Status)
	}

	copyID := lib[1].CopyID
	doJSON(t, http.MethodPut, ts.URL+"/library/"+copyID+"/progress", token, map[string]any{
		"progress": 40,
	}, nil, http.StatusOK)

	doJSON(t, http.MethodGet, ts.URL+"/library", token, nil, &lib, http.StatusOK)
	if lib[1].Status != bookstore.StatusReading || lib[1].Progress != 40 {
		t.Fatalf("copy progress not applied: %+v", lib[1])
	}

	// checkout drained the stock, the book left the available listing
	var avail []bookstore.Book
	doJSON(t, http.MethodGet, ts.URL+"/books/available", "", nil, &avail, http.StatusOK)
	if len(avail) != 1 || avail[0].ID != 2 {
		t.Fatalf("unexpected availability: %+v", avail)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	ts := newTS(t, defaultBooks())
	token := login(t, ts)

	doJSON(t, http.MethodPost, ts.URL+"/checkout", token, nil, nil, http.StatusBadRequest)
}

func TestCart_RemoveAndClear(t *testing.T) {
	ts := newTS(t, defaultBooks())
	token := login(t, ts)

	doJSON(t, http.MethodPost, ts.URL+"/cart", token, map[string]any{
		"book_id": 1, "quantity": 1,
	}, nil, http.StatusOK)

	// removing an absent line is fine
	doJSON(t, http.MethodDelete, ts.URL+"/cart/2", token, nil, nil, http.StatusOK)

	var msg struct {
		Data struct {
			ItemCount int `json:"item_count"`
		} `json:"data"`
	}
	doJSON(t, http.MethodDelete, ts.URL+"/cart", token, nil, &msg, http.StatusOK)
	if msg.Data.ItemCount != 0 {
		t.Fatalf("cart not cleared: %+v", msg.Data)
	}
}

func TestAddToCart_UnknownBook(t *testing.T) {
	ts := newTS(t, defaultBooks())
	token := login(t, ts)

	doJSON(t, http.MethodPost, ts.URL+"/cart", token, map[string]any{
		"book_id": 77, "quantity": 1,
	}, nil, http.StatusNotFound)
}
