package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protected(t *testing.T, secret string) (http.Handler, *string) {
	t.Helper()
	var gotUser string
	h := AuthJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &gotUser
}

func TestAuthJWTAcceptsValidToken(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{Sub: "u-1", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	h, gotUser := protected(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if *gotUser != "u-1" {
		t.Fatalf("user id = %q", *gotUser)
	}
}

func TestAuthJWTRejections(t *testing.T) {
	expired, _ := SignJWT("secret", TokenClaims{Sub: "u-1", Exp: time.Now().Add(-time.Minute).Unix()})
	foreign, _ := SignJWT("other-secret", TokenClaims{Sub: "u-1"})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + foreign},
		{"expired", "Bearer " + expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := protected(t, "secret")
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body not JSON: %s", rec.Body.String())
			}
			if body["error"] != "UNAUTHORIZED" {
				t.Fatalf("error code = %q", body["error"])
			}
		})
	}
}

func TestVerifyJWTRoundTrip(t *testing.T) {
	claims := TokenClaims{Sub: "u-9", Plan: "pro", Locale: "id", Exp: time.Now().Add(time.Hour).Unix()}
	token, err := SignJWT("s3cr3t", claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := VerifyJWT("s3cr3t", token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Sub != "u-9" || got.Plan != "pro" || got.Locale != "id" {
		t.Fatalf("claims = %+v", got)
	}
}
