package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/receipt"
	"github.com/mroshb/receipt_bot/internal/security"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/mroshb/receipt_bot/pkg/numerals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_minimum_32_chars"

type fakeLoader map[string]*models.Invoice

func (f fakeLoader) Load(key string) (*models.Invoice, error) {
	if key == "invoice-broken" {
		return nil, errors.Wrap(fmt.Errorf("disk"), errors.ErrCodeInternalError, "failed to load invoice")
	}
	inv, ok := f[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "invoice not found")
	}
	return inv, nil
}

func newTestServer() *Server {
	invoices := fakeLoader{
		"invoice-01012345678": {
			MobileNumber: "01012345678",
			Date:         "2024-06-01",
			CustomerName: "Ahmed",
			Items: []models.LineItem{{
				ID:          "r1",
				Description: "Ring",
				Weight:      models.Weight{Grams: "10", Milligrams: "500"},
				Karat:       "21",
				Price:       models.Money{Pound: "100", Piaster: "50"},
			}},
		},
	}
	return New(":0", "https://receipts.example.com/", testSecret, invoices, receipt.Options{Locale: numerals.Western, Page: receipt.PageA5})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReceiptURL(t *testing.T) {
	s := newTestServer()

	link, err := s.ReceiptURL("invoice-01012345678", 42)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://receipts.example.com/receipts/"))

	token := strings.TrimPrefix(link, "https://receipts.example.com/receipts/")
	claims, err := security.ValidateReceiptToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "invoice-01012345678", claims.InvoiceKey)
	assert.Equal(t, int64(42), claims.TelegramID)

	disabled := New(":0", "", testSecret, fakeLoader{}, receipt.Options{})
	_, err = disabled.ReceiptURL("invoice-01012345678", 42)
	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))
}

func TestReceipt(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name     string
		key      string
		secret   string
		wantCode int
	}{
		{name: "Valid link", key: "invoice-01012345678", secret: testSecret, wantCode: http.StatusOK},
		{name: "Unknown invoice", key: "invoice-01099999999", secret: testSecret, wantCode: http.StatusNotFound},
		{name: "Wrong signature", key: "invoice-01012345678", secret: "some_other_secret_minimum_32_chars", wantCode: http.StatusUnauthorized},
		{name: "Storage failure", key: "invoice-broken", secret: testSecret, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := security.GenerateReceiptToken(tt.key, 1, tt.secret)
			require.NoError(t, err)

			rec := get(t, s, "/receipts/"+token)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
				assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
			}
		})
	}
}

func TestReceipt_GarbageToken(t *testing.T) {
	rec := get(t, newTestServer(), "/receipts/not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReceipt_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReceipt_Throttled(t *testing.T) {
	calls := 0
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls > 1 {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	s := New(":0", "https://receipts.example.com", testSecret, fakeLoader{}, receipt.Options{}, limit)

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/receipts/first").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, s, "/receipts/second").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code, "health is not throttled")
	assert.Equal(t, 2, calls)
}
