package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/notify"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.InviteMessage
	err      error
}

func (n *fakeNotifier) SendInvite(_ context.Context, msg notify.InviteMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type memoryStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

// fixture wires every service over one sqlite database with a fixed clock.
type fixture struct {
	db       *gorm.DB
	logs     *observer.ObservedLogs
	notifier *fakeNotifier
	store    *memoryStore

	users   repository.UserRepository
	orgRepo repository.OrganizationRepository
	team    repository.TeamRepository

	auth     *AuthService
	orgs     *OrganizationService
	teamSvc  *TeamService
	invites  *InviteService
	invoices *InvoiceService
	clients  *ClientService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := openServiceTestDB(t)
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	f := &fixture{
		db:       db,
		logs:     logs,
		notifier: &fakeNotifier{},
		store:    newMemoryStore(),
		users:    repository.NewUserRepository(db),
		orgRepo:  repository.NewOrganizationRepository(db),
		team:     repository.NewTeamRepository(db),
	}
	clientRepo := repository.NewClientRepository(db)

	f.auth = NewAuthService(f.users, log)
	f.orgs = NewOrganizationService(f.orgRepo, f.team, f.store, log)
	f.orgs.now = func() time.Time { return fixedNow }
	f.teamSvc = NewTeamService(f.team, log)
	f.invites = NewInviteService(repository.NewInviteRepository(db), f.team, f.orgRepo, f.users, f.notifier, "https://app.example.com/", log)
	f.invites.now = func() time.Time { return fixedNow }
	f.invoices = NewInvoiceService(repository.NewInvoiceRepository(db), clientRepo, f.orgRepo, log)
	f.invoices.now = func() time.Time { return fixedNow }
	f.clients = NewClientService(clientRepo)
	return f
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: string(hash)}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) organization(t *testing.T, owner *models.User) *models.Organization {
	t.Helper()

	org, err := f.orgs.CreateOrganization(context.Background(), CreateOrganizationInput{Name: "Acme", OwnerID: owner.ID})
	require.NoError(t, err)
	return org
}

func (f *fixture) member(t *testing.T, orgID uint64, user *models.User, role models.MemberRole) *models.TeamMember {
	t.Helper()

	m := &models.TeamMember{OrganizationID: orgID, UserID: user.ID, Role: role, Status: models.MemberStatusActive}
	require.NoError(t, f.db.Omit("Organization", "User").Create(m).Error)
	return m
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

var errBoom = errors.New("boom")
