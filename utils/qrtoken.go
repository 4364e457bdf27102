package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// The QR code printed on a card (and rendered on the public card page)
// carries a signed token rather than the bare card code, so a scanner can
// verify the payload was minted by us and not typed in by hand. The nonce
// doubles as the fallback idempotency source for scanners that do not send
// their own key.

// QRPayload is the verified content of a card QR token.
type QRPayload struct {
	CardCode string
	Nonce    string
}

// MintQRToken creates a signed QR token for a card code.
func MintQRToken(cardCode string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"card":  cardCode,
		"nonce": uuid.New().String(),
		"iat":   time.Now().Unix(),
	})
	return token.SignedString(qrTokenSecret())
}

// ParseQRToken verifies a QR token and returns its payload.
func ParseQRToken(tokenString string) (*QRPayload, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return qrTokenSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid QR token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid QR token claims")
	}
	cardCode, _ := claims["card"].(string)
	nonce, _ := claims["nonce"].(string)
	if cardCode == "" || nonce == "" {
		return nil, fmt.Errorf("invalid QR token claims")
	}

	return &QRPayload{CardCode: cardCode, Nonce: nonce}, nil
}

// DeriveScanKey builds an idempotency key from a QR nonce and a timestamp
// bucket. Two reads of the same physical QR within the bucket collapse to
// one accrual; used only when the scanner supplies no key of its own.
func DeriveScanKey(nonce string, at time.Time) string {
	bucket := at.Unix() / 10
	return fmt.Sprintf("%s:%d", nonce, bucket)
}

func qrTokenSecret() []byte {
	return []byte(os.Getenv("QR_TOKEN_SECRET"))
}
