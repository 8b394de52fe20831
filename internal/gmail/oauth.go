package gmail

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mdewey/gmcli/internal/mailbox"
)

// Scopes requested during authorization. Read and send access to the
// mailbox plus enough identity to resolve the account address.
var Scopes = []string{
	gmailapi.GmailReadonlyScope,
	gmailapi.GmailSendScope,
	"https://www.googleapis.com/auth/userinfo.email",
	"openid",
}

// Flow drives one delegated authorization round trip: authorization
// URL, loopback callback, code exchange.
type Flow struct {
	cfg *oauth2.Config
	log *zap.Logger
}

func NewFlow(clientID, clientSecret, redirectURL string, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		log: log,
	}
}

// NewState returns a fresh nonce binding one authorization round trip
// to its callback.
func NewState() string {
	return fmt.Sprintf("st%d", rand.Int64())
}

// AuthorizationURL builds the provider consent URL for the given state.
// `ApprovalForce` is needed in combination with `AccessTypeOffline` in
// order to get a refresh token.
func (f *Flow) AuthorizationURL(state string) string {
	return f.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// WaitForCode serves the loopback redirect endpoint until the provider
// delivers an authorization code for the given state. Requests carrying
// a different state are rejected and the wait continues.
func (f *Flow) WaitForCode(ctx context.Context, listenAddr, state string) (string, error) {
	u, err := url.Parse(f.cfg.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	pattern := "GET " + u.Path
	if u.Path == "" || u.Path == "/" {
		pattern = "GET /{$}"
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", listenAddr, err)
	}

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, func(rw http.ResponseWriter, req *http.Request) {
		if req.FormValue("state") != state {
			f.log.Error("state mismatch on callback")
			http.Error(rw, "Invalid State", http.StatusBadRequest)
			return
		}
		code := req.FormValue("code")
		if code == "" {
			f.log.Error("callback missing code")
			http.Error(rw, "Invalid Code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(rw, "<h1>Authorized!</h1>")
		select {
		case codeCh <- code:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			f.log.Error("callback server", zap.Error(err))
		}
	}()
	defer srv.Close()

	f.log.Debug("waiting for authorization callback", zap.String("addr", ln.Addr().String()))

	select {
	case code := <-codeCh:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Exchange redeems a single-use authorization code for a credential. A
// reused or mismatched code is rejected by the provider and surfaces as
// an ExchangeError.
func (f *Flow) Exchange(ctx context.Context, code string) (*mailbox.DelegatedCredential, error) {
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &mailbox.ExchangeError{Detail: err.Error(), Err: err}
	}
	return credentialFromToken(f.cfg, tok), nil
}

func credentialFromToken(cfg *oauth2.Config, tok *oauth2.Token) *mailbox.DelegatedCredential {
	cred := &mailbox.DelegatedCredential{
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		TokenEndpoint: cfg.Endpoint.TokenURL,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		Scopes:        append([]string(nil), cfg.Scopes...),
	}
	if !tok.Expiry.IsZero() {
		cred.Expiry = tok.Expiry.Format(time.RFC3339)
	}
	return cred
}
