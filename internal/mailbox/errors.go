package mailbox

import "fmt"

// AppPasswordGuidance is appended to credential failures on the
// app-password path. Gmail rejects account passwords over IMAP/SMTP, so
// the distinction matters to the user.
const AppPasswordGuidance = "use an App Password, not your regular account password"

// AuthError reports a failed credential check.
type AuthError struct {
	// BadCredentials is set when the provider rejected the login itself,
	// as opposed to a connection or protocol failure.
	BadCredentials bool
	Detail         string
	Err            error
}

func (e *AuthError) Error() string {
	if e.BadCredentials {
		return fmt.Sprintf("authentication failed: %s - %s", e.Detail, AppPasswordGuidance)
	}
	return "authentication failed: " + e.Detail
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed inbox listing. Failures decoding a single
// message are not FetchErrors; they degrade that message in place.
type FetchError struct {
	Detail string
	Err    error
}

func (e *FetchError) Error() string { return "fetch failed: " + e.Detail }

func (e *FetchError) Unwrap() error { return e.Err }

// SendError reports a failed submission.
type SendError struct {
	AuthFailed       bool
	InvalidRecipient bool
	Detail           string
	Err              error
}

func (e *SendError) Error() string {
	switch {
	case e.AuthFailed:
		return "send failed: authentication rejected: " + e.Detail
	case e.InvalidRecipient:
		return "send failed: invalid recipient: " + e.Detail
	default:
		return "send failed: " + e.Detail
	}
}

func (e *SendError) Unwrap() error { return e.Err }

// ExchangeError reports a rejected authorization-code redemption.
// Codes are single-use by provider contract; a reused or mismatched
// code surfaces here rather than being swallowed.
type ExchangeError struct {
	Detail string
	Err    error
}

func (e *ExchangeError) Error() string { return "code exchange failed: " + e.Detail }

func (e *ExchangeError) Unwrap() error { return e.Err }
