package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CallbackClaims ride on the payment-gateway return URLs, so a
// callback can only settle the pending payment it was minted for.
type CallbackClaims struct {
	PaymentID string `json:"payment_id"`
	BuyerID   string `json:"buyer_id"`
	jwt.RegisteredClaims
}

func SignCallback(secret []byte, paymentID, buyerID uuid.UUID, ttl time.Duration) (string, error) {
	claims := CallbackClaims{
		PaymentID: paymentID.String(),
		BuyerID:   buyerID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseCallback(secret []byte, tokenStr string) (paymentID, buyerID uuid.UUID, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CallbackClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid callback token: %w", err)
	}
	claims, ok := token.Claims.(*CallbackClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("unexpected claims type")
	}
	paymentID, err = uuid.Parse(claims.PaymentID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("bad payment id in token: %w", err)
	}
	buyerID, err = uuid.Parse(claims.BuyerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("bad buyer id in token: %w", err)
	}
	return paymentID, buyerID, nil
}
