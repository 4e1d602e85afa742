package mail

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func TestBuildRawHeaders(t *testing.T) {
	raw := string(buildRaw("boutique@example.com", "client@example.com", "Réinitialisation", "<p>lien</p>"))
	require.True(t, strings.HasPrefix(raw, "From: boutique@example.com\r\nTo: client@example.com\r\n"))
	require.Contains(t, raw, "Subject: =?utf-8?q?R=C3=A9initialisation?=")
	require.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>lien</p>"))
}

func TestNewWithoutHostLogs(t *testing.T) {
	var buf bytes.Buffer
	m := New(config.Mail{}, logging.NewWriter(&buf, "info"))
	require.IsType(t, &LogMailer{}, m)
	require.NoError(t, m.Send(context.Background(), "a@b.c", "sujet", "corps"))
	require.Contains(t, buf.String(), "mail_not_sent")
	require.NotContains(t, buf.String(), "corps")
}

func TestLogMailerBodyOnlyAtDebug(t *testing.T) {
	link := `<a href="http://localhost/reinitialiser/tok-123">lien</a>`

	var info bytes.Buffer
	m := &LogMailer{Logger: logging.NewWriter(&info, "info")}
	require.NoError(t, m.Send(context.Background(), "a@b.c", "sujet", link))
	require.Contains(t, info.String(), "sujet")
	require.NotContains(t, info.String(), "tok-123")

	var debug bytes.Buffer
	m = &LogMailer{Logger: logging.NewWriter(&debug, "debug")}
	require.NoError(t, m.Send(context.Background(), "a@b.c", "sujet", link))
	require.Contains(t, debug.String(), "mail_body")
	require.Contains(t, debug.String(), "tok-123")
}
