package leads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"leadbot-backend/internal/config"
	"leadbot-backend/internal/db"
	"leadbot-backend/internal/dialog"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func completedHotelSession() *dialog.Session {
	s := dialog.NewSession("s-1", dialog.Hotel)
	s.Mode = dialog.ModeForm
	s.Data[dialog.FieldRoomType] = "Deluxe"
	s.Data[dialog.FieldCheckIn] = "2026-03-10"
	s.Data[dialog.FieldCheckOut] = "2026-03-12"
	s.Data[dialog.FieldName] = "Ada"
	s.Data[dialog.FieldPhone] = "555-0100"
	s.Record(dialog.RoleUser, "I want to book a room")
	s.Record(dialog.RoleBot, "Which room type do you want?")
	return s
}

func TestFromSession(t *testing.T) {
	lead := FromSession(completedHotelSession(), fixedNow)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "hotel", lead.Industry)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, SourceChatForm, lead.Source)
	assert.Equal(t, fixedNow, lead.CreatedAt)

	want := map[string]string{
		"roomType": "Deluxe",
		"checkIn":  "2026-03-10",
		"checkOut": "2026-03-12",
		"name":     "Ada",
		"phone":    "555-0100",
	}
	if diff := cmp.Diff(want, lead.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, lead.Transcript, 2)
	assert.Equal(t, dialog.RoleUser, lead.Transcript[0].Role)
}

func TestDocumentFlattensFields(t *testing.T) {
	lead := FromSession(completedHotelSession(), fixedNow)
	doc := lead.Document()

	assert.Equal(t, "Deluxe", doc["roomType"])
	assert.Equal(t, "hotel", doc["industry"])
	assert.Equal(t, "new", doc["status"])
	assert.Equal(t, lead.ID, doc["leadId"])
	assert.Len(t, doc["transcript"], 2)

	contact := FromContact(Contact{Name: "Bo", Email: "bo@example.com"}, fixedNow).Document()
	assert.Equal(t, "lead_capture_form", contact["source"])
	assert.NotContains(t, contact, "industry")
	assert.NotContains(t, contact, "transcript")
}

func TestMemorySink(t *testing.T) {
	m := NewMemorySink()
	lead := FromContact(Contact{Name: "Bo", Email: "bo@example.com"}, fixedNow)

	out := m.Record(context.Background(), lead)
	require.True(t, out.OK())
	assert.Equal(t, lead.ID, out.ID)
	assert.Len(t, m.Leads(), 1)

	m.Fail = assert.AnError
	out = m.Record(context.Background(), lead)
	assert.False(t, out.OK())
	assert.Len(t, m.Leads(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Fail = nil
	assert.ErrorIs(t, m.Record(ctx, lead).Err, context.Canceled)
}

func TestUnavailable(t *testing.T) {
	out := Unavailable{}.Record(context.Background(), Lead{})
	assert.ErrorIs(t, out.Err, ErrUnavailable)

	out = Unavailable{Reason: assert.AnError}.Record(context.Background(), Lead{})
	assert.ErrorIs(t, out.Err, ErrUnavailable)
	assert.ErrorIs(t, out.Err, assert.AnError)
}

func TestPostgresSink(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	lead := FromSession(completedHotelSession(), fixedNow)
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(lead.ID, "hotel", SourceChatForm, StatusNew, sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(lead.ID))

	sink := NewPostgresSink(db.Wrap(sqlDB, zaptest.NewLogger(t)))
	out := sink.Record(context.Background(), lead)
	require.True(t, out.OK(), "%v", out.Err)
	assert.Equal(t, lead.ID, out.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("INSERT INTO leads").WillReturnError(assert.AnError)

	out := NewPostgresSink(db.Wrap(sqlDB, nil)).Record(context.Background(), FromContact(Contact{Name: "x"}, fixedNow))
	assert.ErrorIs(t, out.Err, assert.AnError)
}

func TestSQLiteSink(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	lead := FromSession(completedHotelSession(), fixedNow)
	out := sink.Record(ctx, lead)
	require.True(t, out.OK(), "%v", out.Err)
	assert.Equal(t, lead.ID, out.ID)

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Primary key clash surfaces as a failed outcome.
	assert.False(t, sink.Record(ctx, lead).OK())
}

func TestElasticsearchSink(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotDoc  map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"es-1","result":"created"}`))
	}))
	defer srv.Close()

	sink, err := NewElasticsearchSink(ElasticsearchConfig{Addresses: []string{srv.URL}, Index: "leads-test"})
	require.NoError(t, err)

	lead := FromSession(completedHotelSession(), fixedNow)
	out := sink.Record(context.Background(), lead)
	require.True(t, out.OK(), "%v", out.Err)
	assert.Equal(t, "es-1", out.ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/leads-test/_doc/"+lead.ID, gotPath)
	assert.Equal(t, "Deluxe", gotDoc["roomType"])
	assert.Equal(t, "hotel", gotDoc["industry"])
}

func TestElasticsearchSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	sink, err := NewElasticsearchSink(ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	assert.False(t, sink.Record(context.Background(), FromContact(Contact{Name: "x"}, fixedNow)).OK())
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, Lead) error {
	r.calls++
	return r.err
}

func TestNotifying(t *testing.T) {
	ctx := context.Background()
	lead := FromContact(Contact{Name: "Bo"}, fixedNow)

	n := &recordingNotifier{err: errors.New("sns down")}
	sink := Notifying{Sink: NewMemorySink(), Notifier: n, Logger: zaptest.NewLogger(t)}
	out := sink.Record(ctx, lead)
	assert.True(t, out.OK(), "notifier failure must not fail the write")
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "memory", sink.Name())

	failing := NewMemorySink()
	failing.Fail = assert.AnError
	n = &recordingNotifier{}
	out = Notifying{Sink: failing, Notifier: n}.Record(ctx, lead)
	assert.False(t, out.OK())
	assert.Zero(t, n.calls, "no notification for an unsaved lead")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	sink, closeFn := Open(ctx, config.LeadsConfig{Sink: "memory"}, logger)
	assert.Equal(t, "memory", sink.Name())
	assert.NoError(t, closeFn())

	sink, closeFn = Open(ctx, config.LeadsConfig{Sink: "sqlite", SQLiteDSN: filepath.Join(t.TempDir(), "l.db")}, logger)
	assert.Equal(t, "sqlite", sink.Name())
	assert.NoError(t, closeFn())

	sink, closeFn = Open(ctx, config.LeadsConfig{Sink: "carrier-pigeon"}, logger)
	assert.Equal(t, "unavailable", sink.Name())
	assert.ErrorIs(t, sink.Record(ctx, Lead{}).Err, ErrUnavailable)
	assert.NoError(t, closeFn())

	sink, _ = Open(ctx, config.LeadsConfig{Sink: "postgres"}, logger)
	assert.Equal(t, "unavailable", sink.Name())
}

func TestPostgresSinkPing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	sink := NewPostgresSink(db.Wrap(sqlDB, nil))
	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), sink))

	mock.ExpectPing().WillReturnError(assert.AnError)
	assert.ErrorIs(t, Ping(context.Background(), sink), assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingOtherSinks(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, Ping(ctx, NewMemorySink()), "sinks without a backend are always ready")
	assert.ErrorIs(t, Ping(ctx, Unavailable{Reason: errors.New("no credentials")}), ErrUnavailable)
	assert.ErrorIs(t, Ping(ctx, Notifying{Sink: Unavailable{}}), ErrUnavailable)

	sqlite, err := NewSQLiteSink(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	assert.NoError(t, Ping(ctx, sqlite))
	require.NoError(t, sqlite.Close())
	assert.Error(t, Ping(ctx, sqlite))
}
