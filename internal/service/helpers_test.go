package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/storage"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func seedProduct(t *testing.T, r *repo.GormRepo, name, price string, categoryID *uint) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Colors:     []string{"noir"},
		Sizes:      []string{"M"},
		CategoryID: categoryID,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func newLocalDisk(t *testing.T) *storage.Local {
	t.Helper()
	d, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return d
}

type event struct {
	Topic string
	Key   string
	Body  map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, e any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, _ := e.(map[string]any)
	p.events = append(p.events, event{Topic: topic, Key: key, Body: body})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		s, _ := e.Body["type"].(string)
		out = append(out, s)
	}
	return out
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// brokenDisk fails every write and records deletions.
type brokenDisk struct {
	deleted []string
}

func (d *brokenDisk) Put(context.Context, string, io.Reader, string) error {
	return errors.New("disk full")
}

func (d *brokenDisk) Delete(_ context.Context, path string) error {
	d.deleted = append(d.deleted, path)
	return nil
}

func (d *brokenDisk) Exists(context.Context, string) bool { return false }

func (d *brokenDisk) URL(path string) string { return "/uploads/" + path }
