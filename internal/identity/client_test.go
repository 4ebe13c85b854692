package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deanwaring-hub/voicecraft/internal/config"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.IdentityConfig{
		BaseURL:        srv.URL,
		ClientID:       "client-1",
		IdentityPoolID: "pool-1",
	})
}

func TestAuthenticate_Success(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["clientId"] != "client-1" || body["username"] != "a@b.c" {
			t.Errorf("unexpected request body %v", body)
		}
		_ = json.NewEncoder(w).Encode(TokenSet{
			IDToken:     "idt",
			AccessToken: "act",
			ExpiresIn:   3600,
		})
	})

	tokens, err := c.Authenticate(context.Background(), "a@b.c", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.IDToken != "idt" || tokens.ExpiresIn != 3600 {
		t.Errorf("unexpected token set %+v", tokens)
	}
}

func TestAuthenticate_ProviderErrorCode(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ProviderError{
			Code:    "NotAuthorizedException",
			Message: "Incorrect username or password.",
		})
	})

	_, err := c.Authenticate(context.Background(), "a@b.c", "wrong")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Code != "NotAuthorizedException" {
		t.Errorf("unexpected code %q", pe.Code)
	}
}

func TestExchangeForStorageCredentials(t *testing.T) {
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/credentials" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["identityPoolId"] != "pool-1" || body["idToken"] != "idt" {
			t.Errorf("unexpected request body %v", body)
		}
		_ = json.NewEncoder(w).Encode(StorageCredentials{
			AccessKeyID:     "ak",
			SecretAccessKey: "sk",
			SessionToken:    "st",
		})
	})

	creds, err := c.ExchangeForStorageCredentials(context.Background(), "idt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.AccessKeyID != "ak" || creds.SessionToken != "st" {
		t.Errorf("unexpected credentials %+v", creds)
	}
}

func TestSignOut_SendsBearer(t *testing.T) {
	var gotAuth string
	c := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})

	if err := c.SignOut(context.Background(), "act"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer act" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestUserMessage_KnownCodes(t *testing.T) {
	cases := map[string]string{
		"NotAuthorizedException":    "Incorrect email or password.",
		"UserNotConfirmedException": "Your account is not confirmed yet. Check your email for the confirmation code.",
		"ExpiredCodeException":      "That confirmation code has expired. Request a new one.",
	}
	for code, want := range cases {
		if got := UserMessage(&ProviderError{Code: code}); got != want {
			t.Errorf("code %s: expected %q, got %q", code, want, got)
		}
	}
}

func TestUserMessage_UnknownCodeFallsBackToProviderMessage(t *testing.T) {
	got := UserMessage(&ProviderError{Code: "SomethingNewException", Message: "odd failure"})
	if got != "odd failure" {
		t.Errorf("expected provider message fallback, got %q", got)
	}
}

func TestUserMessage_NonProviderError(t *testing.T) {
	got := UserMessage(errors.New("dial tcp: connection refused"))
	if got != "Something went wrong. Please try again." {
		t.Errorf("expected generic message, got %q", got)
	}
}
