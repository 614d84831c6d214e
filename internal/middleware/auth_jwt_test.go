package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestSignAndVerifyJWT(t *testing.T) {
	token, err := SignJWT(testSecret, TokenClaims{
		Sub:    "0xABCD000000000000000000000000000000001234",
		Name:   "Alice",
		Exp:    time.Now().Add(time.Hour).Unix(),
		Issuer: "givechain",
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Name != "Alice" {
		t.Fatalf("name = %q", claims.Name)
	}
}

func TestVerifyJWTRejectsTampering(t *testing.T) {
	token, _ := SignJWT(testSecret, TokenClaims{Sub: "0x1", Exp: time.Now().Add(time.Hour).Unix()})
	if _, err := VerifyJWT("wrong-secret", token); err == nil {
		t.Fatal("verification with wrong secret succeeded")
	}
	if _, err := VerifyJWT(testSecret, token+"x"); err == nil {
		t.Fatal("verification of tampered token succeeded")
	}
}

func TestVerifyJWTRejectsExpired(t *testing.T) {
	token, _ := SignJWT(testSecret, TokenClaims{Sub: "0x1", Exp: time.Now().Add(-time.Minute).Unix()})
	if _, err := VerifyJWT(testSecret, token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestAuthJWTLowercasesWallet(t *testing.T) {
	token, _ := SignJWT(testSecret, TokenClaims{
		Sub: "0xABCD000000000000000000000000000000001234",
		Exp: time.Now().Add(time.Hour).Unix(),
	})

	var got string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = WalletFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "0xabcd000000000000000000000000000000001234" {
		t.Fatalf("wallet = %q", got)
	}
}

func TestAuthJWTMissingHeader(t *testing.T) {
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without token")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
