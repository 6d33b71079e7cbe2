package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123"

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("gateway-3", RoleOperator, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "gateway-3" || claims.Role != RoleOperator {
		t.Errorf("claims = %s/%s", claims.Subject, claims.Role)
	}
	if claims.ID == "" || claims.Issuer != Issuer {
		t.Errorf("jti = %q, iss = %q", claims.ID, claims.Issuer)
	}
	if d := time.Until(claims.ExpiresAt.Time); d < 59*time.Minute || d > time.Hour {
		t.Errorf("expiry in %v, want ~1h", d)
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	token, err := GenerateAccessToken("ops", RoleViewer, testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	diff := claims.ExpiresAt.Time.Sub(time.Now().Add(DefaultAccessTokenTTL))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL off by %v", diff)
	}
}

func TestGenerateAccessToken_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		role    Role
		wantErr error
	}{
		{"no subject", "", RoleAdmin, ErrTokenInvalid},
		{"unknown role", "ops", Role("owner"), ErrInvalidRole},
		{"empty role", "ops", "", ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateAccessToken(tt.subject, tt.role, testSecret, time.Minute); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateAccessToken("ops", RoleAdmin, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return s
	}
	now := time.Now()
	base := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "ops",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	expired := base
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	foreign := base
	foreign.Issuer = "someone-else"
	noExpiry := base
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"garbage", "not-a-jwt", testSecret},
		{"empty", "", testSecret},
		{"wrong secret", valid, "a-different-secret-of-enough-length"},
		{"expired", sign(CustomClaims{RegisteredClaims: expired, Role: RoleAdmin}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"foreign issuer", sign(CustomClaims{RegisteredClaims: foreign, Role: RoleAdmin}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"no expiry", sign(CustomClaims{RegisteredClaims: noExpiry, Role: RoleAdmin}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"unknown role", sign(CustomClaims{RegisteredClaims: base, Role: "owner"}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"hs512", sign(CustomClaims{RegisteredClaims: base, Role: RoleAdmin}, jwt.SigningMethodHS512, []byte(testSecret)), testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
