package email

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emersion/go-smtp"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestDiagnoseSMTP(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		code      string
		temporary bool
	}{
		{"nil", nil, DiagUnknown, false},
		{"auth reply", &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "Authentication unsuccessful"}, DiagAuth, false},
		{"auth stage wraps anything", connectErr(stageAuth, "relay:587", errors.New("boom")), DiagAuth, false},
		{"auth stage throttled", connectErr(stageAuth, "relay:587", &smtp.SMTPError{Code: 421, Message: "Too many connections"}), DiagRateLimited, true},
		{"starttls missing", connectErr(stageStartTLS, "relay:587", ErrStartTLSUnsupported), DiagTLS, false},
		{"unknown user", &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "User unknown"}, DiagInvalidRecipient, false},
		{"policy reject", &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 7, 1}, Message: "Message rejected"}, DiagRejected, false},
		{"greylisted", &smtp.SMTPError{Code: 451, EnhancedCode: smtp.EnhancedCode{4, 7, 0}, Message: "Try again later"}, DiagRateLimited, true},
		{"other 4xx", &smtp.SMTPError{Code: 432, Message: "Transition needed"}, DiagRateLimited, true},
		{"net timeout", fmt.Errorf("write: %w", timeoutErr{}), DiagTimeout, true},
		{"refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), DiagDial, true},
		{"bad cert", errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority"), DiagTLS, false},
		{"auth text", errors.New("535 5.7.3 Authentication unsuccessful"), DiagAuth, false},
		{"whatever", errors.New("something odd"), DiagUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DiagnoseSMTP(tc.err)
			if d.Code != tc.code {
				t.Fatalf("code: got %q, want %q", d.Code, tc.code)
			}
			if d.Temporary != tc.temporary {
				t.Fatalf("temporary: got %v, want %v", d.Temporary, tc.temporary)
			}
		})
	}
}

func TestConnectErrorKeepsTransportText(t *testing.T) {
	inner := errors.New("535 Authentication unsuccessful")
	err := connectErr(stageAuth, "relay:587", inner)

	if err.Error() != inner.Error() {
		t.Fatalf("got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Fatal("ConnectError must unwrap to the transport error")
	}
	if !IsConnectError(fmt.Errorf("ctx: %w", err)) {
		t.Fatal("IsConnectError must see through wrapping")
	}
}
