package email

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/luiz-custodio/email-send/internal/email/emailtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSender = "sender@x.com"
	testSecret = "s3cret"
)

var testCreds = Credentials{Address: testSender, Secret: testSecret}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepRecorder) calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func startRelay(t *testing.T, cfg emailtest.Config) *emailtest.Relay {
	t.Helper()
	if cfg.Username == "" {
		cfg.Username = testSender
	}
	if cfg.Password == "" {
		cfg.Password = testSecret
	}
	return emailtest.Start(t, cfg)
}

func newDispatcher(r *emailtest.Relay, sl *sleepRecorder) *Dispatcher {
	return New(Options{
		Host:      r.Host(),
		Port:      r.Port(),
		Timeout:   5 * time.Second,
		SendDelay: time.Second,
		TLSConfig: r.ClientTLSConfig(),
		Sleep:     sl.sleep,
	})
}

func TestDispatch_AllRecipientsAccepted(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	sl := &sleepRecorder{}
	d := newDispatcher(relay, sl)

	report, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com", "b@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
		Content:    ContentPlain,
	}, testCreds)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, report.Successful)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, report.TotalSent())
	assert.Equal(t, 0, report.TotalFailed())

	assert.Equal(t, 1, relay.Connections(), "one session for the whole run")

	deliveries := relay.Deliveries()
	require.Len(t, deliveries, 2)
	for i, want := range []string{"a@x.com", "b@x.com"} {
		dl := deliveries[i]
		assert.Equal(t, testSender, dl.From)
		assert.Equal(t, []string{want}, dl.To)

		msg, err := dl.Message()
		require.NoError(t, err)
		assert.Equal(t, testSender, msg.Header.Get("From"))
		assert.Equal(t, want, msg.Header.Get("To"))
		assert.Equal(t, "Hi", msg.Header.Get("Subject"))
		assert.Contains(t, msg.Header.Get("Content-Type"), "text/plain")

		body, err := io.ReadAll(msg.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Hello")
	}
}

func TestDispatch_HTMLBody(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	d := newDispatcher(relay, &sleepRecorder{})

	_, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com"},
		Subject:    "Promo",
		Body:       "<h1>Hola</h1>",
		Content:    ContentHTML,
	}, testCreds)
	require.NoError(t, err)

	deliveries := relay.Deliveries()
	require.Len(t, deliveries, 1)
	msg, err := deliveries[0].Message()
	require.NoError(t, err)
	assert.Contains(t, msg.Header.Get("Content-Type"), "text/html")
}

func TestDispatch_FailuresAreIsolated(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	relay.RejectRecipient("bad@x.com", &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "Recipient address rejected: User unknown",
	})
	relay.RejectData("throttled@x.com", &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 7, 0},
		Message:      "Try again later",
	})
	sl := &sleepRecorder{}
	d := newDispatcher(relay, sl)

	recipients := []string{"a@x.com", "bad@x.com", "b@x.com", "throttled@x.com", "c@x.com"}
	report, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: recipients,
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, report.Successful)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "bad@x.com", report.Failed[0].Email)
	assert.Equal(t, "throttled@x.com", report.Failed[1].Email)
	for _, f := range report.Failed {
		assert.NotEmpty(t, f.Error)
	}
	assert.Equal(t, len(recipients), report.TotalSent()+report.TotalFailed())

	// la sesión sigue viva después de cada rechazo
	assert.Equal(t, 1, relay.Connections())
	assert.Len(t, relay.Deliveries(), 3)
	assert.Len(t, sl.calls(), len(recipients)-1)
}

func TestDispatch_ConnectionDroppedMidRun(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	relay.DropOnRecipient("b@x.com")
	sl := &sleepRecorder{}
	d := newDispatcher(relay, sl)

	recipients := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}
	report, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: recipients,
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.NoError(t, err, "a dropped session is reported per recipient, not as a connect error")
	assert.False(t, IsConnectError(err))

	assert.Equal(t, []string{"a@x.com"}, report.Successful)
	require.Len(t, report.Failed, 3)
	for i, want := range []string{"b@x.com", "c@x.com", "d@x.com"} {
		assert.Equal(t, want, report.Failed[i].Email)
		assert.NotEmpty(t, report.Failed[i].Error)
	}
	assert.Equal(t, len(recipients), report.TotalSent()+report.TotalFailed())
	assert.Len(t, relay.Deliveries(), 1)
	assert.Len(t, sl.calls(), len(recipients)-1)
}

func TestDispatch_LocalNameSentAfterStartTLS(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	d := New(Options{
		Host:      relay.Host(),
		Port:      relay.Port(),
		LocalName: "relay.example.org",
		TLSConfig: relay.ClientTLSConfig(),
		Sleep:     (&sleepRecorder{}).sleep,
	})

	_, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.NoError(t, err)
	assert.Equal(t, []string{"relay.example.org"}, relay.TLSHellos())
}

func TestDispatch_ThrottleBetweenRecipients(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	sl := &sleepRecorder{}
	d := newDispatcher(relay, sl)

	_, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com", "b@x.com", "c@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Second, time.Second}, sl.calls())
}

func TestDispatch_ZeroDelayNeverSleeps(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	sl := &sleepRecorder{}
	d := New(Options{
		Host:      relay.Host(),
		Port:      relay.Port(),
		TLSConfig: relay.ClientTLSConfig(),
		Sleep:     sl.sleep,
	})

	_, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com", "b@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.NoError(t, err)
	assert.Empty(t, sl.calls())
}

func TestDispatch_BadCredentialsFailBeforeAnyRecipient(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	d := newDispatcher(relay, &sleepRecorder{})

	report, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com", "b@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, Credentials{Address: testSender, Secret: "wrong"})
	require.Error(t, err)

	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, stageAuth, ce.Stage)
	assert.NotEmpty(t, err.Error())
	assert.Equal(t, DiagAuth, DiagnoseSMTP(err).Code)

	assert.Empty(t, report.Successful)
	assert.Empty(t, report.Failed)
	assert.Zero(t, relay.MailCommands())
	assert.Empty(t, relay.Deliveries())
}

func TestDispatch_UnreachableRelay(t *testing.T) {
	host, port := closedPort(t)
	d := New(Options{Host: host, Port: port, Timeout: 2 * time.Second})

	_, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.Error(t, err)
	assert.True(t, IsConnectError(err))
	assert.Equal(t, DiagDial, DiagnoseSMTP(err).Code)
}

func TestDispatch_RequiresStartTLS(t *testing.T) {
	relay := startRelay(t, emailtest.Config{DisableStartTLS: true})
	d := newDispatcher(relay, &sleepRecorder{})

	_, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartTLSUnsupported)
	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, stageStartTLS, ce.Stage)
	assert.Equal(t, DiagTLS, DiagnoseSMTP(err).Code)
	assert.Zero(t, relay.MailCommands())
}

func TestDispatch_LoginOnlyRelay(t *testing.T) {
	relay := startRelay(t, emailtest.Config{LoginOnly: true})
	d := newDispatcher(relay, &sleepRecorder{})

	report, err := d.Dispatch(context.Background(), SendRequest{
		Recipients: []string{"a@x.com"},
		Subject:    "Hi",
		Body:       "Hello",
	}, testCreds)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, report.Successful)
}

func TestDispatch_EmptyRecipientsProducesEmptyReport(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	sl := &sleepRecorder{}
	d := newDispatcher(relay, sl)

	report, err := d.Dispatch(context.Background(), SendRequest{Subject: "Hi", Body: "Hello"}, testCreds)
	require.NoError(t, err)
	assert.Empty(t, report.Successful)
	assert.Empty(t, report.Failed)
	assert.Empty(t, sl.calls())
	assert.Zero(t, relay.MailCommands())
}

func TestDispatch_MissingCredentials(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	d := newDispatcher(relay, &sleepRecorder{})

	_, err := d.Dispatch(context.Background(), SendRequest{Recipients: []string{"a@x.com"}}, Credentials{Address: testSender})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.False(t, IsConnectError(err))
	assert.Zero(t, relay.Connections())
}

func TestDispatch_RepeatedRunsAreIndependent(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	d := newDispatcher(relay, &sleepRecorder{})
	req := SendRequest{Recipients: []string{"a@x.com", "b@x.com"}, Subject: "Hi", Body: "Hello"}

	first, err := d.Dispatch(context.Background(), req, testCreds)
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), req, testCreds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, relay.Connections())
}

func TestCheckConnection(t *testing.T) {
	relay := startRelay(t, emailtest.Config{})
	d := newDispatcher(relay, &sleepRecorder{})

	t.Run("ok", func(t *testing.T) {
		st := d.CheckConnection(context.Background(), testCreds)
		assert.True(t, st.OK)
		assert.Equal(t, MsgConnectionOK, st.Message)
	})

	t.Run("bad credentials", func(t *testing.T) {
		st := d.CheckConnection(context.Background(), Credentials{Address: testSender, Secret: "nope"})
		assert.False(t, st.OK)
		assert.NotEmpty(t, st.Message)
	})

	t.Run("missing credentials does not dial", func(t *testing.T) {
		before := relay.Connections()
		st := d.CheckConnection(context.Background(), Credentials{})
		assert.False(t, st.OK)
		assert.Equal(t, MsgMissingCredentials, st.Message)
		assert.Equal(t, before, relay.Connections())
	})

	assert.Zero(t, relay.MailCommands(), "health check never sends")
}

func TestCheckConnection_Unreachable(t *testing.T) {
	host, port := closedPort(t)
	d := New(Options{Host: host, Port: port, Timeout: 2 * time.Second})

	st := d.CheckConnection(context.Background(), testCreds)
	assert.False(t, st.OK)
	assert.NotEmpty(t, st.Message)
}

func TestCredentialsStringRedactsSecret(t *testing.T) {
	s := testCreds.String()
	assert.Contains(t, s, testSender)
	assert.NotContains(t, s, testSecret)
}

// closedPort retorna un host:port donde nadie escucha.
func closedPort(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return host, port
}
