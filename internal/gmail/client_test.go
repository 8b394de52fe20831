package gmail

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/mdewey/gmcli/internal/mailbox"
)

func apiMessage(id, snippet string, headers ...*gmailapi.MessagePartHeader) *gmailapi.Message {
	return &gmailapi.Message{
		Id:      id,
		Snippet: snippet,
		Payload: &gmailapi.MessagePart{Headers: headers},
	}
}

func hdr(name, value string) *gmailapi.MessagePartHeader {
	return &gmailapi.MessagePartHeader{Name: name, Value: value}
}

func TestConvertMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  *gmailapi.Message
		want mailbox.Message
	}{
		{
			name: "all headers present",
			msg: apiMessage("m1", "preview text",
				hdr("Subject", "Lunch plans"),
				hdr("From", "Alice <alice@gmail.com>"),
				hdr("Date", "Fri, 29 Aug 2026 15:04")),
			want: mailbox.Message{
				ID:      "m1",
				Subject: "Lunch plans",
				From:    "Alice <alice@gmail.com>",
				Date:    "Fri, 29 Aug 2026 15:04",
				Body:    "preview text",
			},
		},
		{
			name: "no payload",
			msg:  &gmailapi.Message{Id: "m2", Snippet: "snippet"},
			want: mailbox.Message{ID: "m2", Subject: "No Subject", From: "Unknown", Date: "Unknown", Body: "snippet"},
		},
		{
			name: "missing headers get placeholders",
			msg:  apiMessage("m3", ""),
			want: mailbox.Message{ID: "m3", Subject: "No Subject", From: "Unknown", Date: "Unknown"},
		},
		{
			name: "empty header value kept",
			msg:  apiMessage("m4", "", hdr("Subject", ""), hdr("From", "a@gmail.com")),
			want: mailbox.Message{ID: "m4", Subject: "", From: "a@gmail.com", Date: "Unknown"},
		},
		{
			name: "case-insensitive match",
			msg:  apiMessage("m5", "", hdr("subject", "lower"), hdr("FROM", "caps@gmail.com")),
			want: mailbox.Message{ID: "m5", Subject: "lower", From: "caps@gmail.com", Date: "Unknown"},
		},
		{
			name: "first occurrence wins",
			msg:  apiMessage("m6", "", hdr("Subject", "first"), hdr("Subject", "second")),
			want: mailbox.Message{ID: "m6", Subject: "first", From: "Unknown", Date: "Unknown"},
		},
		{
			name: "long date clipped",
			msg:  apiMessage("m7", "", hdr("Date", "Fri, 29 Aug 2026 15:04:05 +0000 (UTC)")),
			want: mailbox.Message{ID: "m7", Subject: "No Subject", From: "Unknown", Date: "Fri, 29 Aug 2026 15:04:05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertMessage(tt.msg); got != tt.want {
				t.Errorf("convertMessage() =\n %+v, want\n %+v", got, tt.want)
			}
		})
	}
}

func TestConvertMessageTruncatesSnippet(t *testing.T) {
	msg := apiMessage("m1", strings.Repeat("s", 900))
	got := convertMessage(msg)
	if !strings.HasSuffix(got.Body, "...") || len(got.Body) != 503 {
		t.Errorf("Body length = %d, want truncated to 503", len(got.Body))
	}
}

func TestClipDate(t *testing.T) {
	if got := clipDate("short"); got != "short" {
		t.Errorf("clipDate(short) = %q", got)
	}
	long := strings.Repeat("d", 40)
	if got := clipDate(long); got != strings.Repeat("d", 25) {
		t.Errorf("clipDate(long) = %q (%d chars)", got, len(got))
	}
}

func TestTokenFromCredential(t *testing.T) {
	t.Run("known expiry", func(t *testing.T) {
		cred := &mailbox.DelegatedCredential{
			AccessToken: "at",
			Expiry:      "2026-08-29T12:00:00Z",
		}
		tok := tokenFromCredential(cred)
		want := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
		if !tok.Expiry.Equal(want) {
			t.Errorf("Expiry = %v, want %v", tok.Expiry, want)
		}
	})

	t.Run("unknown expiry with refresh token forces refresh", func(t *testing.T) {
		cred := &mailbox.DelegatedCredential{AccessToken: "at", RefreshToken: "rt"}
		tok := tokenFromCredential(cred)
		if tok.Valid() {
			t.Error("token with unknown lifetime should not be considered valid")
		}
		if tok.Expiry.IsZero() {
			t.Error("expected an expired stamp, got zero expiry")
		}
	})

	t.Run("unknown expiry without refresh token", func(t *testing.T) {
		cred := &mailbox.DelegatedCredential{AccessToken: "at"}
		tok := tokenFromCredential(cred)
		if !tok.Expiry.IsZero() {
			t.Errorf("Expiry = %v, want zero when nothing can refresh", tok.Expiry)
		}
	})
}

func TestPropagate(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	cred := &mailbox.DelegatedCredential{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
	}

	propagate(cred, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: "renewed",
		Expiry:      expiry,
	}))

	if cred.AccessToken != "renewed" {
		t.Errorf("AccessToken = %q", cred.AccessToken)
	}
	if cred.RefreshToken != "old-refresh" {
		t.Errorf("RefreshToken = %q, an empty renewal must not clear it", cred.RefreshToken)
	}
	if cred.Expiry != expiry.Format(time.RFC3339) {
		t.Errorf("Expiry = %q, want %q", cred.Expiry, expiry.Format(time.RFC3339))
	}

	propagate(cred, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken:  "renewed-again",
		RefreshToken: "new-refresh",
	}))
	if cred.RefreshToken != "new-refresh" {
		t.Errorf("RefreshToken = %q, want rotated value", cred.RefreshToken)
	}
}

func TestClassifySendErr(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantAuth      bool
		wantRecipient bool
	}{
		{"bad request", &googleapi.Error{Code: 400, Message: "Invalid to header"}, false, true},
		{"unauthorized", &googleapi.Error{Code: 401, Message: "Invalid Credentials"}, true, false},
		{"forbidden", &googleapi.Error{Code: 403, Message: "insufficient scope"}, true, false},
		{"server error", &googleapi.Error{Code: 500, Message: "backend"}, false, false},
		{"plain error", errors.New("network down"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySendErr(tt.err)

			var se *mailbox.SendError
			if !errors.As(got, &se) {
				t.Fatalf("got %T, want SendError", got)
			}
			if se.AuthFailed != tt.wantAuth {
				t.Errorf("AuthFailed = %v, want %v", se.AuthFailed, tt.wantAuth)
			}
			if se.InvalidRecipient != tt.wantRecipient {
				t.Errorf("InvalidRecipient = %v, want %v", se.InvalidRecipient, tt.wantRecipient)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error lost its cause")
			}
		})
	}
}

func TestClassifyFetchErr(t *testing.T) {
	got := classifyFetchErr(&googleapi.Error{Code: 429}, "listing messages")
	var fe *mailbox.FetchError
	if !errors.As(got, &fe) {
		t.Fatalf("got %T, want FetchError", got)
	}
	if !strings.Contains(fe.Detail, "429") {
		t.Errorf("Detail = %q, want the status code", fe.Detail)
	}

	got = classifyFetchErr(errors.New("timeout"), "listing messages")
	if !errors.As(got, &fe) || fe.Detail != "listing messages" {
		t.Errorf("plain error classified as %v", got)
	}
}
