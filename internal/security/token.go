package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ReceiptTokenTTL bounds how long a shared receipt link stays valid
const ReceiptTokenTTL = 24 * time.Hour

type ReceiptClaims struct {
	InvoiceKey string `json:"invoice_key"`
	TelegramID int64  `json:"telegram_id"`
	jwt.RegisteredClaims
}

// GenerateReceiptToken signs a link token for one saved invoice
func GenerateReceiptToken(invoiceKey string, telegramID int64, secret string) (string, error) {
	return generateReceiptToken(invoiceKey, telegramID, secret, time.Now(), ReceiptTokenTTL)
}

func generateReceiptToken(invoiceKey string, telegramID int64, secret string, now time.Time, ttl time.Duration) (string, error) {
	if invoiceKey == "" {
		return "", fmt.Errorf("invoice key is required")
	}

	claims := &ReceiptClaims{
		InvoiceKey: invoiceKey,
		TelegramID: telegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   invoiceKey,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateReceiptToken validates and parses a receipt link token
func ValidateReceiptToken(tokenString, secret string) (*ReceiptClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ReceiptClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ReceiptClaims); ok && token.Valid && claims.InvoiceKey != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
