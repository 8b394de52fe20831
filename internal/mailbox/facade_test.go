package mailbox

import (
	"context"
	"errors"
	"testing"
)

type fakeDirect struct {
	authErr  error
	batch    Batch
	listErr  error
	authed   bool
	listed   bool
	lastAddr string
}

func (f *fakeDirect) Authenticate(_ context.Context, address, secret string) error {
	f.authed = true
	f.lastAddr = address
	return f.authErr
}

func (f *fakeDirect) ListRecent(_ context.Context, address, secret string, count int) (Batch, error) {
	f.listed = true
	f.lastAddr = address
	return f.batch, f.listErr
}

type fakeSubmit struct {
	err    error
	called bool
	lastTo string
}

func (f *fakeSubmit) Send(_ context.Context, address, secret, to, subject, body string) error {
	f.called = true
	f.lastTo = to
	return f.err
}

type fakeDelegated struct {
	batch    Batch
	listErr  error
	sendErr  error
	address  string
	lastFrom string
	called   int
	// newToken, when set, simulates a refresh during the call.
	newToken string
}

func (f *fakeDelegated) touch(cred *DelegatedCredential) {
	f.called++
	if f.newToken != "" {
		cred.AccessToken = f.newToken
	}
}

func (f *fakeDelegated) ListRecent(_ context.Context, cred *DelegatedCredential, count int) (Batch, error) {
	f.touch(cred)
	return f.batch, f.listErr
}

func (f *fakeDelegated) Send(_ context.Context, cred *DelegatedCredential, to, subject, body, from string) error {
	f.touch(cred)
	f.lastFrom = from
	return f.sendErr
}

func (f *fakeDelegated) UserAddress(_ context.Context, cred *DelegatedCredential) string {
	f.touch(cred)
	if f.address == "" {
		return "Unknown"
	}
	return f.address
}

func TestAuthenticateDirectRequiresBothFields(t *testing.T) {
	direct := &fakeDirect{}
	f := NewFacade(direct, nil, nil, nil)

	for _, tt := range []struct{ address, secret string }{
		{"", ""},
		{"a@gmail.com", ""},
		{"", "secret"},
	} {
		err := f.AuthenticateDirect(context.Background(), tt.address, tt.secret)
		var authErr *AuthError
		if !errors.As(err, &authErr) || !authErr.BadCredentials {
			t.Errorf("(%q, %q): got %v, want bad-credentials AuthError", tt.address, tt.secret, err)
		}
	}
	if direct.authed {
		t.Error("transport was dialed with incomplete credentials")
	}

	if err := f.AuthenticateDirect(context.Background(), "a@gmail.com", "secret"); err != nil {
		t.Errorf("AuthenticateDirect() error = %v", err)
	}
	if !direct.authed {
		t.Error("complete credentials should reach the transport")
	}
}

func TestListRecentDispatch(t *testing.T) {
	direct := &fakeDirect{batch: makeBatch(2)}
	delegated := &fakeDelegated{batch: makeBatch(3)}
	f := NewFacade(direct, &fakeSubmit{}, delegated, nil)

	got, err := f.ListRecent(context.Background(), NewDirectSession("a@gmail.com", "pw"), 10)
	if err != nil || len(got) != 2 {
		t.Errorf("direct path: got %d messages, err %v", len(got), err)
	}
	if !direct.listed || delegated.called != 0 {
		t.Error("direct session reached the wrong transport")
	}

	got, err = f.ListRecent(context.Background(), NewDelegatedSession("", &DelegatedCredential{AccessToken: "tok"}), 10)
	if err != nil || len(got) != 3 {
		t.Errorf("oauth path: got %d messages, err %v", len(got), err)
	}
	if delegated.called != 1 {
		t.Errorf("delegated transport called %d times, want 1", delegated.called)
	}
}

func TestListRecentUnknownTransport(t *testing.T) {
	f := NewFacade(&fakeDirect{}, &fakeSubmit{}, &fakeDelegated{}, nil)

	_, err := f.ListRecent(context.Background(), &Session{Tag: "carrier-pigeon"}, 10)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want FetchError", err)
	}
}

func TestListRecentMissingCredential(t *testing.T) {
	f := NewFacade(&fakeDirect{}, &fakeSubmit{}, &fakeDelegated{}, nil)

	if _, err := f.ListRecent(context.Background(), &Session{Tag: TransportAppPassword}, 10); err == nil {
		t.Error("expected error for direct session without credential")
	}
	if _, err := f.ListRecent(context.Background(), &Session{Tag: TransportOAuth}, 10); err == nil {
		t.Error("expected error for oauth session without credential")
	}
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	submit := &fakeSubmit{}
	f := NewFacade(&fakeDirect{}, submit, &fakeDelegated{}, nil)
	sess := NewDirectSession("a@gmail.com", "pw")

	for _, to := range []string{"", "   ", "\t\n"} {
		err := f.Send(context.Background(), sess, to, "hi", "body")
		var se *SendError
		if !errors.As(err, &se) || !se.InvalidRecipient {
			t.Errorf("to=%q: got %v, want invalid-recipient SendError", to, err)
		}
	}
	if submit.called {
		t.Error("transport was dialed with an empty recipient")
	}
}

func TestSendDirectPath(t *testing.T) {
	submit := &fakeSubmit{}
	f := NewFacade(&fakeDirect{}, submit, &fakeDelegated{}, nil)

	err := f.Send(context.Background(), NewDirectSession("a@gmail.com", "pw"), "b@gmail.com", "hi", "body")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if submit.lastTo != "b@gmail.com" {
		t.Errorf("recipient = %q", submit.lastTo)
	}
}

func TestSendResolvesDelegatedFrom(t *testing.T) {
	delegated := &fakeDelegated{address: "me@gmail.com"}
	f := NewFacade(&fakeDirect{}, &fakeSubmit{}, delegated, nil)
	sess := NewDelegatedSession("", &DelegatedCredential{AccessToken: "tok"})

	if err := f.Send(context.Background(), sess, "b@gmail.com", "hi", "body"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if delegated.lastFrom != "me@gmail.com" {
		t.Errorf("from = %q, want resolved address", delegated.lastFrom)
	}
	if sess.Address != "me@gmail.com" {
		t.Errorf("session address = %q, want cached", sess.Address)
	}
}

func TestCredentialRefreshHook(t *testing.T) {
	delegated := &fakeDelegated{batch: Batch{}, newToken: "ya29.renewed"}
	f := NewFacade(&fakeDirect{}, &fakeSubmit{}, delegated, nil)

	var persisted *DelegatedCredential
	f.OnCredentialRefresh(func(c *DelegatedCredential) { persisted = c })

	cred := &DelegatedCredential{AccessToken: "ya29.stale", RefreshToken: "ref"}
	sess := NewDelegatedSession("me@gmail.com", cred)

	if _, err := f.ListRecent(context.Background(), sess, 10); err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if persisted == nil {
		t.Fatal("refresh hook did not fire")
	}
	if persisted.AccessToken != "ya29.renewed" {
		t.Errorf("persisted token = %q", persisted.AccessToken)
	}

	// A call that leaves the token unchanged must not fire the hook.
	persisted = nil
	delegated.newToken = ""
	if _, err := f.ListRecent(context.Background(), sess, 10); err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if persisted != nil {
		t.Error("hook fired without a token change")
	}
}

func TestUserAddress(t *testing.T) {
	delegated := &fakeDelegated{address: "me@gmail.com"}
	f := NewFacade(&fakeDirect{}, &fakeSubmit{}, delegated, nil)

	// Known addresses are returned without a transport call.
	sess := NewDirectSession("a@gmail.com", "pw")
	if got := f.UserAddress(context.Background(), sess); got != "a@gmail.com" {
		t.Errorf("UserAddress() = %q", got)
	}
	if delegated.called != 0 {
		t.Error("direct session should not query the delegated transport")
	}

	// An unresolved delegated session asks the provider once and caches.
	sess = NewDelegatedSession("", &DelegatedCredential{AccessToken: "tok"})
	if got := f.UserAddress(context.Background(), sess); got != "me@gmail.com" {
		t.Errorf("UserAddress() = %q", got)
	}
	if got := f.UserAddress(context.Background(), sess); got != "me@gmail.com" {
		t.Errorf("cached UserAddress() = %q", got)
	}
	if delegated.called != 1 {
		t.Errorf("provider queried %d times, want 1", delegated.called)
	}
}

func TestUserAddressDegradesToUnknown(t *testing.T) {
	delegated := &fakeDelegated{} // no address available
	f := NewFacade(&fakeDirect{}, &fakeSubmit{}, delegated, nil)
	sess := NewDelegatedSession("", &DelegatedCredential{AccessToken: "tok"})

	if got := f.UserAddress(context.Background(), sess); got != "Unknown" {
		t.Errorf("UserAddress() = %q, want Unknown", got)
	}
	if sess.Address != "" {
		t.Errorf("session cached %q, Unknown must not be cached", sess.Address)
	}
}
