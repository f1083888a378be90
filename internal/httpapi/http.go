package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/HerencsarMichal/citacka/internal/auth"
	"github.com/HerencsarMichal/citacka/internal/bookstore"
	"github.com/HerencsarMichal/citacka/internal/snapshot"
	"github.com/HerencsarMichal/citacka/pkg/kit"
)

type Server struct {
	Store   *bookstore.Store
	Owner   *auth.Owner
	JWT     *auth.TokenMaker
	KV      snapshot.KV
	Log     *zap.Logger
	Limiter *kit.IPRateLimiter
	Metrics *StoreMetrics
}

const (
	maxBodyBytes = 1 << 20
	tokenTTL     = 12 * time.Hour
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	session := r.With()
	if s.Limiter != nil {
		session = r.With(s.Limiter.Middleware)
	}
	session.Post("/session", s.createSession)

	r.Get("/books", s.listBooks)
	r.Get("/books/available", s.listAvailable)
	r.Get("/books/{id}", s.getBook)
	r.Get("/books/{id}/content", s.getBookContent)

	r.Group(func(pr chi.Router) {
		pr.Use(RequireOwner(s.JWT))

		pr.Get("/cart", s.getCart)
		pr.Post("/cart", s.addToCart)
		pr.Put("/cart/{id}", s.updateCartLine)
		pr.Delete("/cart/{id}", s.removeCartLine)
		pr.Delete("/cart", s.clearCart)
		pr.Post("/checkout", s.checkout)

		pr.Get("/library", s.getLibrary)
		pr.Put("/library/{copyID}/progress", s.updateCopyProgress)
		pr.Put("/books/{id}/progress", s.updateBookProgress)
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.KV.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// --- session ---

type sessionReq struct {
	Passphrase string `json:"passphrase"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Owner.Verify(req.Passphrase); err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(tokenTTL)
	if err != nil {
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": tok,
		"expires_in":   int(tokenTTL.Seconds()),
	})
}

// --- catalog ---

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"books":   s.Store.Books(),
		"loading": s.Store.Loading(),
	})
}

func (s *Server) listAvailable(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.AvailableBooks())
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad book id", nil)
		return
	}

	b, ok := s.Store.Book(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"book":         b,
		"in_cart":      s.Store.IsInCart(id),
		"is_purchased": s.Store.IsPurchased(id),
	})
}

func (s *Server) getBookContent(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad book id", nil)
		return
	}

	bc, ok := s.Store.LoadBookContent(r.Context(), id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, bc)
}

// --- cart ---

type cartView struct {
	Lines      []bookstore.CartLine `json:"lines"`
	ItemCount  int                  `json:"item_count"`
	TotalCents int64                `json:"total_cents"`
}

func (s *Server) cartView() cartView {
	return cartView{
		Lines:      s.Store.Cart(),
		ItemCount:  s.Store.CartItemCount(),
		TotalCents: s.Store.CartTotalCents(),
	}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

type addToCartReq struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Store.AddToCart(req.BookID, req.Quantity); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "added to cart", s.cartView())
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func (s *Server) updateCartLine(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad book id", nil)
		return
	}

	var req quantityReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Store.UpdateCartQuantity(id, req.Quantity); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "cart updated", s.cartView())
}

func (s *Server) removeCartLine(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad book id", nil)
		return
	}

	s.Store.RemoveFromCart(id)
	kit.WriteMessage(w, http.StatusOK, "removed from cart", s.cartView())
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.Store.ClearCart()
	kit.WriteMessage(w, http.StatusOK, "cart cleared", s.cartView())
}

// --- checkout & library ---

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Store.Checkout()
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	if s.Metrics != nil {
		s.Metrics.Checkouts.Inc()
		for _, line := range summary.Lines {
			s.Metrics.CopiesSold.Add(float64(line.Quantity))
		}
	}

	kit.WriteMessage(w, http.StatusCreated, "order completed", summary)
}

func (s *Server) getLibrary(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.Library())
}

type progressReq struct {
	Progress int `json:"progress"`
}

func (s *Server) updateCopyProgress(w http.ResponseWriter, r *http.Request) {
	copyID := chi.URLParam(r, "copyID")

	var req progressReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Store.UpdateCopyProgress(copyID, req.Progress); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "progress updated", nil)
}

func (s *Server) updateBookProgress(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad book id", nil)
		return
	}

	var req progressReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Store.UpdateReadingProgress(id, req.Progress); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteMessage(w, http.StatusOK, "progress updated", nil)
}

// --- helpers ---

func bookID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bookstore.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, bookstore.ErrInsufficientStock):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, bookstore.ErrEmptyCart):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	default:
		if s.Log != nil {
			s.Log.Error("store operation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
