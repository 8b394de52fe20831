package mailbox

import "encoding/json"

// TransportTag selects which mail transport a session uses.
type TransportTag string

const (
	// TransportAppPassword is the direct IMAP/SMTP path.
	TransportAppPassword TransportTag = "app-password"
	// TransportOAuth is the delegated Gmail API path.
	TransportOAuth TransportTag = "oauth"
)

// DirectCredential is a static address and App Password pair. It lives
// in memory and the OS keyring only; it must never be written to config
// files or logs, and has no serialized form.
type DirectCredential struct {
	Address string
	Secret  string
}

// Valid reports whether the credential can be used for a transport
// call. Both fields are required.
func (c *DirectCredential) Valid() bool {
	return c != nil && c.Address != "" && c.Secret != ""
}

// DefaultTokenEndpoint is Google's OAuth token endpoint, assumed when a
// stored credential predates the field.
const DefaultTokenEndpoint = "https://oauth2.googleapis.com/token"

// DelegatedCredential is the OAuth token bundle for the Gmail API path.
// The zero Expiry means the access token's lifetime is unknown; the
// transport then refreshes eagerly when a refresh token is present.
type DelegatedCredential struct {
	AccessToken   string   `json:"token"`
	RefreshToken  string   `json:"refresh_token,omitempty"`
	TokenEndpoint string   `json:"token_uri"`
	ClientID      string   `json:"client_id"`
	ClientSecret  string   `json:"client_secret"`
	Scopes        []string `json:"scopes"`
	Expiry        string   `json:"expiry,omitempty"`
}

// Marshal serializes the credential for the session store. The round
// trip is lossless over all fields; an empty scope set serializes as an
// empty list, never null.
func (c *DelegatedCredential) Marshal() ([]byte, error) {
	if c.Scopes == nil {
		clone := *c
		clone.Scopes = []string{}
		return json.Marshal(&clone)
	}
	return json.Marshal(c)
}

// UnmarshalDelegatedCredential restores a credential serialized by
// Marshal, filling in defaults for absent optional fields.
func UnmarshalDelegatedCredential(data []byte) (*DelegatedCredential, error) {
	var c DelegatedCredential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.TokenEndpoint == "" {
		c.TokenEndpoint = DefaultTokenEndpoint
	}
	if c.Scopes == nil {
		c.Scopes = []string{}
	}
	return &c, nil
}

// Session binds one credential to one transport for the duration of a
// user session. Facade calls take the session explicitly; there is no
// ambient account state. A session owns exactly one credential and is
// never shared.
type Session struct {
	Tag TransportTag
	// Address is the account's mail address when known. On the direct
	// path it always equals the credential's address.
	Address   string
	Direct    *DirectCredential
	Delegated *DelegatedCredential
}

// NewDirectSession builds a session for the app-password transport.
func NewDirectSession(address, secret string) *Session {
	return &Session{
		Tag:     TransportAppPassword,
		Address: address,
		Direct:  &DirectCredential{Address: address, Secret: secret},
	}
}

// NewDelegatedSession builds a session for the OAuth transport. The
// address may be empty; the facade resolves it lazily when sending.
func NewDelegatedSession(address string, cred *DelegatedCredential) *Session {
	return &Session{
		Tag:       TransportOAuth,
		Address:   address,
		Delegated: cred,
	}
}
