package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-transducers/internal/auth"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"transducerctl"}, args...))
	return strings.TrimSpace(out.String()), err
}

func TestIssueAndVerify(t *testing.T) {
	t.Setenv("GRAYLOGIC_JWT_SECRET", "")
	t.Setenv("GRAYLOGIC_CONFIG", "")

	token, err := runApp(t, "--secret", testSecret, "token", "issue", "--subject", "alice", "--role", "admin", "--ttl", "5m")
	if err != nil {
		t.Fatalf("issue error = %v", err)
	}

	claims, err := auth.ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "alice" || claims.Role != auth.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}

	out, err := runApp(t, "--secret", testSecret, "token", "verify", token)
	if err != nil {
		t.Fatalf("verify error = %v", err)
	}
	if !strings.Contains(out, "subject: alice") || !strings.Contains(out, "role: admin") {
		t.Errorf("verify output = %q", out)
	}
}

func TestIssue_Errors(t *testing.T) {
	t.Setenv("GRAYLOGIC_JWT_SECRET", "")
	t.Setenv("GRAYLOGIC_CONFIG", "")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no secret", args: []string{"token", "issue", "--subject", "bob"}, wantErr: errNoSecret},
		{name: "bad role", args: []string{"--secret", testSecret, "token", "issue", "--subject", "bob", "--role", "root"}, wantErr: auth.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Setenv("GRAYLOGIC_JWT_SECRET", "")
	t.Setenv("GRAYLOGIC_CONFIG", "")

	token, err := auth.GenerateAccessToken("carol", auth.RoleViewer, testSecret, auth.DefaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := runApp(t, "--secret", strings.Repeat("x", 32), "token", "verify", token); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("verify error = %v, want ErrTokenInvalid", err)
	}
}

func TestIssue_SecretFromConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "mqtt:\n  enabled: false\nsecurity:\n  jwt:\n    secret: \"" + testSecret + "\"\n    access_token_ttl: 60\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GRAYLOGIC_CONFIG", path)

	token, err := runApp(t, "token", "issue", "--subject", "dave")
	if err != nil {
		t.Fatalf("issue error = %v", err)
	}
	claims, err := auth.ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Role != auth.RoleOperator {
		t.Errorf("Role = %q, want operator default", claims.Role)
	}
}
