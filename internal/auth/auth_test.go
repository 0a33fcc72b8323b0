package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter2" {
		t.Fatal("password stored as plaintext")
	}
	if !CheckPassword("hunter2", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestCallbackTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	paymentID := uuid.New()
	buyerID := uuid.New()

	token, err := SignCallback(secret, paymentID, buyerID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	gotPayment, gotBuyer, err := ParseCallback(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if gotPayment != paymentID || gotBuyer != buyerID {
		t.Errorf("claims mismatch: got (%s, %s)", gotPayment, gotBuyer)
	}
}

func TestCallbackTokenWrongSecret(t *testing.T) {
	token, err := SignCallback([]byte("secret-a"), uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseCallback([]byte("secret-b"), token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestCallbackTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignCallback(secret, uuid.New(), uuid.New(), -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseCallback(secret, token); err == nil {
		t.Fatal("expired token accepted")
	}
}
