package mail

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	mailFrom string
	rcptTo   []string
	data     strings.Builder
	quit     bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.mailFrom = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcptTo = append(f.rcptTo, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                     { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                    { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error      { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error            { return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string) { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newFakeMailer(t *testing.T, cfg SMTPSettings) (*smtpMailer, *fakeSMTPClient) {
	t.Helper()
	mailer, err := NewSMTPMailer(cfg)
	require.NoError(t, err)
	m := mailer.(*smtpMailer)
	fake := &fakeSMTPClient{}
	m.dial = func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
		server, client := net.Pipe()
		_ = client.Close()
		return server, fake, nil
	}
	return m, fake
}

func TestSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: "a@example.com"})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendSingleRecipient(t *testing.T) {
	m, fake := newFakeMailer(t, SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "album@example.com",
	})

	err := m.Send(context.Background(), Message{
		To:      "grandma@example.com",
		Subject: "You are invited",
		Body:    "Join Maya's album.",
	})
	require.NoError(t, err)

	require.Equal(t, "album@example.com", fake.mailFrom)
	require.Equal(t, []string{"grandma@example.com"}, fake.rcptTo)
	require.Contains(t, fake.data.String(), "Subject: You are invited")
	require.Contains(t, fake.data.String(), "Join Maya's album.")
	require.True(t, fake.quit)
}

func TestSendRejectsBadRecipient(t *testing.T) {
	m, _ := newFakeMailer(t, SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "album@example.com",
	})

	err := m.Send(context.Background(), Message{To: "not-an-address"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid recipient")
}

func TestNewSMTPMailerValidation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true, Port: 587, From: "a@example.com"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com", From: "a@example.com"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587})
	require.Error(t, err)
}

func TestSubjectHeaderStripsNewlines(t *testing.T) {
	m, fake := newFakeMailer(t, SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "album@example.com",
	})

	err := m.Send(context.Background(), Message{
		To:      "grandma@example.com",
		Subject: "hello\r\nBcc: sneaky@example.com",
		Body:    "hi",
	})
	require.NoError(t, err)
	require.Contains(t, fake.data.String(), "Subject: hello  Bcc: sneaky@example.com")
}
