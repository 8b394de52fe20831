package mailbox

import (
	"reflect"
	"strings"
	"testing"
)

func TestDirectCredentialValid(t *testing.T) {
	tests := []struct {
		name string
		cred *DirectCredential
		want bool
	}{
		{"nil", nil, false},
		{"empty", &DirectCredential{}, false},
		{"missing secret", &DirectCredential{Address: "a@gmail.com"}, false},
		{"missing address", &DirectCredential{Secret: "abcd efgh ijkl mnop"}, false},
		{"complete", &DirectCredential{Address: "a@gmail.com", Secret: "abcd efgh ijkl mnop"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelegatedCredentialRoundTrip(t *testing.T) {
	orig := &DelegatedCredential{
		AccessToken:   "ya29.access",
		RefreshToken:  "1//refresh",
		TokenEndpoint: "https://oauth2.googleapis.com/token",
		ClientID:      "client-id.apps.googleusercontent.com",
		ClientSecret:  "client-secret",
		Scopes: []string{
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/gmail.send",
		},
		Expiry: "2026-08-29T12:00:00Z",
	}

	data, err := orig.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := UnmarshalDelegatedCredential(data)
	if err != nil {
		t.Fatalf("UnmarshalDelegatedCredential() error = %v", err)
	}
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("round trip changed credential:\n got  %+v\n want %+v", got, orig)
	}
}

func TestDelegatedCredentialMarshalEmptyScopes(t *testing.T) {
	cred := &DelegatedCredential{AccessToken: "tok", TokenEndpoint: DefaultTokenEndpoint}

	data, err := cred.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), `"scopes":null`) {
		t.Errorf("nil scopes serialized as null: %s", data)
	}
	if !strings.Contains(string(data), `"scopes":[]`) {
		t.Errorf("expected empty scope list in %s", data)
	}
	if cred.Scopes != nil {
		t.Error("Marshal mutated the credential's scope slice")
	}
}

func TestUnmarshalDelegatedCredentialDefaults(t *testing.T) {
	// A credential stored before the token_uri field existed.
	got, err := UnmarshalDelegatedCredential([]byte(`{"token":"tok","refresh_token":"ref"}`))
	if err != nil {
		t.Fatalf("UnmarshalDelegatedCredential() error = %v", err)
	}
	if got.TokenEndpoint != DefaultTokenEndpoint {
		t.Errorf("TokenEndpoint = %q, want default %q", got.TokenEndpoint, DefaultTokenEndpoint)
	}
	if got.Scopes == nil {
		t.Error("Scopes = nil, want empty slice")
	}
	if got.Expiry != "" {
		t.Errorf("Expiry = %q, want empty", got.Expiry)
	}
}

func TestUnmarshalDelegatedCredentialRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalDelegatedCredential([]byte("not json")); err == nil {
		t.Error("expected error for malformed data")
	}
}

func TestNewDirectSession(t *testing.T) {
	sess := NewDirectSession("a@gmail.com", "abcd efgh ijkl mnop")

	if sess.Tag != TransportAppPassword {
		t.Errorf("Tag = %q, want %q", sess.Tag, TransportAppPassword)
	}
	if sess.Address != "a@gmail.com" {
		t.Errorf("Address = %q", sess.Address)
	}
	if !sess.Direct.Valid() {
		t.Error("direct credential should be valid")
	}
	if sess.Delegated != nil {
		t.Error("direct session must not carry a delegated credential")
	}
}

func TestNewDelegatedSession(t *testing.T) {
	cred := &DelegatedCredential{AccessToken: "tok"}
	sess := NewDelegatedSession("", cred)

	if sess.Tag != TransportOAuth {
		t.Errorf("Tag = %q, want %q", sess.Tag, TransportOAuth)
	}
	if sess.Address != "" {
		t.Errorf("Address = %q, want empty until resolved", sess.Address)
	}
	if sess.Delegated != cred {
		t.Error("session should hold the given credential")
	}
	if sess.Direct != nil {
		t.Error("delegated session must not carry a direct credential")
	}
}
