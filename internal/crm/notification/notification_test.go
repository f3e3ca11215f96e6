package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/minicrm/internal/crm/db"
	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/gartstein/minicrm/internal/pkg/utils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []Message
	failures int
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.messages = append(m.messages, msg)
	return nil
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[uint]int
}

func (p *recordingPusher) Push(userID uint, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed[userID]++
}

func setupRepo(t *testing.T) *db.Repository {
	repo, err := db.NewRepository(&db.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedUsers(t *testing.T, repo *db.Repository, names ...string) []models.User {
	users := make([]models.User, 0, len(names))
	for _, name := range names {
		u := models.User{Name: name, Email: strings.ToLower(name) + "@example.com", PasswordHash: "x"}
		require.NoError(t, repo.CreateUser(context.Background(), &u))
		users = append(users, u)
	}
	return users
}

func newTestDispatcher(t *testing.T, repo *db.Repository, mailer Mailer, pusher Pusher, logger *zap.Logger) *Dispatcher {
	renderer, err := NewRenderer(repo, "Mini CRM", "http://localhost:5173")
	require.NoError(t, err)
	d := NewDispatcher(repo, 2, logger,
		NewMailChannel(mailer, renderer),
		NewDatabaseChannel(repo, pusher),
	)
	d.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return d
}

func createCompany(t *testing.T, repo *db.Repository) *models.Company {
	company := &models.Company{Name: "Acme", Email: utils.Ptr("info@acme.test"), Website: utils.Ptr("https://acme.test")}
	require.NoError(t, repo.CreateCompany(context.Background(), company))
	return company
}

func TestDispatcherNotifiesEveryUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	users := seedUsers(t, repo, "Admin", "Alice", "Bob")
	company := createCompany(t, repo)

	mailer := &recordingMailer{}
	pusher := &recordingPusher{pushed: map[uint]int{}}
	d := newTestDispatcher(t, repo, mailer, pusher, zaptest.NewLogger(t))

	event := events.NewCompanyCreated(company, &users[0])
	require.NoError(t, d.HandleCompanyCreated(ctx, event))

	require.Len(t, mailer.messages, 3)
	for i, msg := range mailer.messages {
		assert.Equal(t, users[i].Email, msg.To)
		assert.Equal(t, "New Company Created: Acme", msg.Subject)
	}

	for _, user := range users {
		page, err := repo.ListNotifications(ctx, user.ID, false, pagination.Request{Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, "exactly one notification per user")

		n := page.Items[0]
		assert.Equal(t, models.CompanyCreatedNotification, n.Type)
		assert.False(t, n.IsRead())

		var data models.CompanyCreatedData
		require.NoError(t, json.Unmarshal(n.Data, &data))
		assert.Equal(t, company.ID, data.CompanyID)
		assert.Equal(t, "Acme", data.CompanyName)
		assert.Equal(t, "info@acme.test", *data.CompanyEmail)
		assert.Equal(t, users[0].ID, data.CreatedByID)
		assert.Equal(t, "Admin", data.CreatedByName)
		assert.Equal(t, "company_created", data.Action)
		assert.Equal(t, `New company "Acme" was created by Admin`, data.Message)
		assert.NotEmpty(t, data.CreatedAt)

		assert.Equal(t, 1, pusher.pushed[user.ID])
	}
}

func TestDispatcherMailFailureDoesNotBlockDatabase(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	users := seedUsers(t, repo, "Admin")
	company := createCompany(t, repo)

	core, recorded := observer.New(zap.WarnLevel)
	mailer := &recordingMailer{failures: 100}
	d := newTestDispatcher(t, repo, mailer, nil, zap.New(core))

	require.NoError(t, d.HandleCompanyCreated(ctx, events.NewCompanyCreated(company, &users[0])))

	assert.Empty(t, mailer.messages)
	assert.Equal(t, 2, recorded.FilterMessage("retrying notification delivery").Len())
	assert.Equal(t, 1, recorded.FilterMessage("notification delivery failed").Len())

	unread, err := repo.CountUnreadNotifications(ctx, users[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread, "the database channel still delivers")
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	repo := setupRepo(t)
	users := seedUsers(t, repo, "Admin")
	company := createCompany(t, repo)

	mailer := &recordingMailer{failures: 1}
	d := newTestDispatcher(t, repo, mailer, nil, zaptest.NewLogger(t))

	require.NoError(t, d.HandleCompanyCreated(context.Background(), events.NewCompanyCreated(company, &users[0])))
	assert.Len(t, mailer.messages, 1)
}

func TestDispatcherWithoutUsers(t *testing.T) {
	repo := setupRepo(t)
	company := createCompany(t, repo)
	mailer := &recordingMailer{}
	d := newTestDispatcher(t, repo, mailer, nil, zaptest.NewLogger(t))

	require.NoError(t, d.HandleCompanyCreated(context.Background(), events.NewCompanyCreated(company, nil)))
	assert.Empty(t, mailer.messages)
}

func TestDispatcherRejectsEmptyEvent(t *testing.T) {
	repo := setupRepo(t)
	d := newTestDispatcher(t, repo, &recordingMailer{}, nil, zaptest.NewLogger(t))

	assert.Error(t, d.HandleCompanyCreated(context.Background(), events.Event{Type: events.CompanyCreated}))
}

func TestDispatcherRegister(t *testing.T) {
	repo := setupRepo(t)
	users := seedUsers(t, repo, "Admin")
	company := createCompany(t, repo)
	mailer := &recordingMailer{}
	d := newTestDispatcher(t, repo, mailer, nil, zaptest.NewLogger(t))

	handlers := events.NewHandlers(zaptest.NewLogger(t))
	d.Register(handlers)

	require.NoError(t, handlers.Dispatch(context.Background(), events.NewCompanyCreated(company, &users[0])))
	assert.Len(t, mailer.messages, 1)
}

func TestRendererCompanyCreated(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	company := createCompany(t, repo)
	require.NoError(t, repo.CreateCompany(ctx, &models.Company{Name: "Globex"}))
	require.NoError(t, repo.CreateEmployee(ctx, &models.Employee{FirstName: "Ann", LastName: "Lee", CompanyID: &company.ID}))

	renderer, err := NewRenderer(repo, "Mini CRM", "http://localhost:5173/")
	require.NoError(t, err)

	msg, err := renderer.CompanyCreated(ctx, "Alice", &CompanyCreated{
		Company:   company,
		CreatedBy: events.Actor{ID: 1, Name: "Admin"},
	})
	require.NoError(t, err)

	assert.Equal(t, "New Company Created: Acme", msg.Subject)
	assert.Contains(t, msg.HTML, "Hello Alice,")
	assert.Contains(t, msg.HTML, "info@acme.test")
	assert.Contains(t, msg.HTML, "https://acme.test")
	assert.Contains(t, msg.HTML, "<strong>Created by:</strong> Admin")
	assert.Contains(t, msg.HTML, "Total Companies: 2")
	assert.Contains(t, msg.HTML, "Total Employees: 1")
	assert.Contains(t, msg.HTML, "Companies added today: 2")
	assert.Contains(t, msg.HTML, "http://localhost:5173/companies/1")
	assert.Contains(t, msg.HTML, "Thanks for using Mini CRM!")
	assert.NotContains(t, msg.HTML, "Company Logo")

	noEmail := &models.Company{ID: 5, Name: "Bare", Logo: utils.Ptr("logos/x.png"), CreatedAt: time.Now()}
	msg, err = renderer.CompanyCreated(ctx, "Alice", &CompanyCreated{Company: noEmail})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "<strong>Email:</strong> Not provided")
	assert.Contains(t, msg.HTML, "Company Logo")
}

func TestCompanyCreatedData(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	n := &CompanyCreated{
		Company:   &models.Company{ID: 4, Name: "Acme", CreatedAt: created},
		CreatedBy: events.Actor{ID: 2, Name: "Admin"},
	}

	data := n.Data()
	assert.EqualValues(t, 4, data.CompanyID)
	assert.Nil(t, data.CompanyEmail)
	assert.Equal(t, "2024-05-01T10:30:00.000000Z", data.CreatedAt)
}

func TestSMTPMailerBuild(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{From: "noreply@minicrm.local", FromName: "Mini CRM"})
	raw := string(m.build(Message{To: "a@example.com", ToName: "Alice", Subject: "Hi", HTML: "<p>x</p>"}))

	assert.Contains(t, raw, "From: Mini CRM <noreply@minicrm.local>\r\n")
	assert.Contains(t, raw, "To: Alice <a@example.com>\r\n")
	assert.Contains(t, raw, "Subject: Hi\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>x</p>"))

	assert.Error(t, NewSMTPMailer(SMTPConfig{}).Send(context.Background(), Message{To: "a@example.com"}))
}

func TestLogMailer(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	require.NoError(t, NewLogMailer(zap.New(core)).Send(context.Background(), Message{To: "a@example.com", Subject: "Hi"}))
	assert.Equal(t, 1, recorded.FilterField(zap.String("to", "a@example.com")).Len())
}

func TestHubPushesToUserConnections(t *testing.T) {
	hub := NewHub([]string{"http://localhost:5173"}, zaptest.NewLogger(t))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, 7)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Push(8, map[string]string{"type": "other user"})
	hub.Push(7, map[string]string{"type": "notification"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]string
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got["type"])

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connections(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"http://localhost:5173"}, zaptest.NewLogger(t))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, 1)
	}))
	defer server.Close()

	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
