package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/receipt"
	"github.com/mroshb/receipt_bot/internal/security"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/mroshb/receipt_bot/pkg/logger"
)

// InvoiceLoader loads a saved invoice by key.
type InvoiceLoader interface {
	Load(key string) (*models.Invoice, error)
}

// Server serves receipt PDFs behind signed, expiring links.
type Server struct {
	invoices InvoiceLoader
	secret   string
	baseURL  string
	opts     receipt.Options
	router   *mux.Router
	http     *http.Server
}

// New builds the server. Middlewares apply to /receipts only, so health
// checks are never throttled.
func New(addr, baseURL, secret string, invoices InvoiceLoader, opts receipt.Options, mw ...mux.MiddlewareFunc) *Server {
	s := &Server{
		invoices: invoices,
		secret:   secret,
		baseURL:  strings.TrimRight(baseURL, "/"),
		opts:     opts,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	receipts := s.router.PathPrefix("/receipts").Subrouter()
	receipts.Use(mw...)
	receipts.HandleFunc("/{token}", s.handleReceipt).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Enabled reports whether links can be handed out.
func (s *Server) Enabled() bool {
	return s.baseURL != ""
}

// ReceiptURL signs a link to the PDF of the invoice saved under key.
func (s *Server) ReceiptURL(key string, telegramID int64) (string, error) {
	if !s.Enabled() {
		return "", errors.New(errors.ErrCodeForbidden, "receipt links are disabled")
	}
	token, err := security.GenerateReceiptToken(key, telegramID, s.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign receipt link")
	}
	return s.baseURL + "/receipts/" + url.PathEscape(token), nil
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("Receipt server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	claims, err := security.ValidateReceiptToken(mux.Vars(r)["token"], s.secret)
	if err != nil {
		logger.Warn("Rejected receipt link", "error", err, "remote", r.RemoteAddr)
		http.Error(w, "invalid or expired link", http.StatusUnauthorized)
		return
	}

	inv, err := s.invoices.Load(claims.InvoiceKey)
	if err != nil || inv == nil {
		if inv == nil && (err == nil || errors.HasCode(err, errors.ErrCodeNotFound)) {
			http.Error(w, "receipt not found", http.StatusNotFound)
			return
		}
		logger.Error("Failed to load invoice for receipt link", "key", claims.InvoiceKey, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pdf, err := receipt.PDF(inv, s.opts)
	if err != nil {
		logger.Error("Failed to render receipt", "key", claims.InvoiceKey, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+claims.InvoiceKey+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Write(pdf)
}
