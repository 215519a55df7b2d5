package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/middleware"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/notify"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/agensea/agency-nexus-flow/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testUserHeader = "X-Test-User-ID"

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.InviteMessage
	err      error
}

func (n *recordingNotifier) SendInvite(_ context.Context, msg notify.InviteMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) last() notify.InviteMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.messages[len(n.messages)-1]
}

type fakeGenerator struct {
	tasks []services.GeneratedTask
	err   error
}

func (g *fakeGenerator) GenerateTasksFromText(context.Context, string) ([]services.GeneratedTask, error) {
	return g.tasks, g.err
}

type testEnv struct {
	db         *gorm.DB
	router     *gin.Engine
	notifier   *recordingNotifier
	generator  *fakeGenerator
	uploadDir  string
	orgService *services.OrganizationService
	teamRepo   repository.TeamRepository
	auth       *AuthHandler
}

func openHandlerTestDB(t *testing.T) *gorm.DB {
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

// testIdentity stands in for RequireAuth: the user id comes from a header
// and a cookie-backed session is still available for handlers that write it.
func testIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(testUserHeader); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err == nil {
				c.Set(constants.ContextKeyUserID, id)
			}
		}
		c.Next()
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openHandlerTestDB(t)
	log := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	clientRepo := repository.NewClientRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	chatRepo := repository.NewChatRepository(db)

	uploadDir := t.TempDir()
	notifier := &recordingNotifier{}
	generator := &fakeGenerator{}

	orgService := services.NewOrganizationService(orgRepo, teamRepo, storage.NewLocalStore(uploadDir, "http://localhost/uploads"), log)

	authHandler := NewAuthHandler(services.NewAuthService(userRepo, log))
	orgHandler := NewOrganizationHandler(orgService)
	teamHandler := NewTeamHandler(services.NewTeamService(teamRepo, log))
	inviteHandler := NewInviteHandler(services.NewInviteService(inviteRepo, teamRepo, orgRepo, userRepo, notifier, "http://app.test", log))
	taskHandler := NewTaskHandler(services.NewTaskService(taskRepo, orgRepo, teamRepo, clientRepo, generator))
	clientHandler := NewClientHandler(services.NewClientService(clientRepo))
	invoiceHandler := NewInvoiceHandler(services.NewInvoiceService(invoiceRepo, clientRepo, orgRepo, log))
	chatHandler := NewChatHandler(services.NewChatService(chatRepo))

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.Use(testIdentity())
	r.Static(constants.UploadsRoutePrefix, uploadDir)

	api := r.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.GetCurrentUser)
	api.PATCH("/auth/me", authHandler.UpdateProfile)
	api.POST("/auth/me/password", authHandler.ChangePassword)
	api.POST("/auth/me/welcomed", authHandler.MarkWelcomed)

	api.GET("/invites/:token", inviteHandler.GetInvite)
	api.POST("/invites/:token/accept", inviteHandler.AcceptInvite)
	api.POST("/invites/:token/decline", inviteHandler.DeclineInvite)

	api.POST("/organizations", orgHandler.CreateOrganization)
	api.GET("/organizations", orgHandler.ListOrganizations)
	org := api.Group("/organizations/:id", middleware.RequireOrganizationAccess(orgRepo, teamRepo))
	org.GET("", orgHandler.GetOrganization)
	org.PATCH("", orgHandler.UpdateOrganization)
	org.DELETE("", orgHandler.DeleteOrganization)
	org.PATCH("/settings", orgHandler.UpdateSettings)
	org.POST("/logo", orgHandler.UploadLogo)
	org.GET("/members", teamHandler.ListMembers)
	org.PATCH("/members/:member_id", teamHandler.UpdateMemberRole)
	org.DELETE("/members/:member_id", teamHandler.RemoveMember)
	org.GET("/invites", inviteHandler.ListInvites)
	org.POST("/invites", inviteHandler.CreateInvite)
	org.POST("/invites/:invite_id/revoke", inviteHandler.RevokeInvite)
	org.POST("/invites/:invite_id/resend", inviteHandler.ResendInvite)
	org.GET("/clients", clientHandler.ListClients)
	org.POST("/clients", clientHandler.CreateClient)
	org.GET("/clients/:client_id", clientHandler.GetClient)
	org.PATCH("/clients/:client_id", clientHandler.UpdateClient)
	org.DELETE("/clients/:client_id", clientHandler.DeleteClient)
	org.GET("/invoices", invoiceHandler.ListInvoices)
	org.POST("/invoices", invoiceHandler.CreateInvoice)
	org.GET("/invoices/:invoice_id", invoiceHandler.GetInvoice)
	org.PATCH("/invoices/:invoice_id", invoiceHandler.UpdateInvoice)
	org.DELETE("/invoices/:invoice_id", invoiceHandler.DeleteInvoice)
	org.PATCH("/invoices/:invoice_id/status", invoiceHandler.UpdateInvoiceStatus)
	org.GET("/invoices/:invoice_id/export", invoiceHandler.ExportInvoice)
	org.GET("/chat/rooms", chatHandler.ListRooms)
	org.POST("/chat/rooms", chatHandler.CreateRoom)
	org.POST("/chat/rooms/:room_id/archive", chatHandler.ArchiveRoom)
	org.GET("/chat/rooms/:room_id/messages", chatHandler.ListMessages)
	org.POST("/chat/rooms/:room_id/messages", chatHandler.PostMessage)
	org.PATCH("/chat/rooms/:room_id/messages/:message_id", chatHandler.EditMessage)
	org.DELETE("/chat/rooms/:room_id/messages/:message_id", chatHandler.DeleteMessage)

	requireTask := middleware.RequireTaskAccess(taskRepo, teamRepo)
	api.GET("/tasks", taskHandler.ListTasks)
	api.POST("/tasks", taskHandler.CreateTask)
	api.POST("/tasks/generate", taskHandler.GenerateTasks)
	api.GET("/tasks/:id", requireTask, taskHandler.GetTask)
	api.PATCH("/tasks/:id", requireTask, taskHandler.UpdateTask)
	api.DELETE("/tasks/:id", requireTask, taskHandler.DeleteTask)
	api.POST("/tasks/:id/assign", requireTask, taskHandler.AssignTask)
	api.POST("/tasks/:id/unassign", requireTask, taskHandler.UnassignTask)
	api.POST("/tasks/:id/toggle", requireTask, taskHandler.ToggleTask)

	return &testEnv{
		db:         db,
		router:     r,
		notifier:   notifier,
		generator:  generator,
		uploadDir:  uploadDir,
		orgService: orgService,
		teamRepo:   teamRepo,
		auth:       authHandler,
	}
}

// do sends a JSON request as userID (0 means anonymous).
func (e *testEnv) do(t *testing.T, method, path string, body any, userID uint64) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != 0 {
		req.Header.Set(testUserHeader, strconv.FormatUint(userID, 10))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: string(hash), FullName: email}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createOrganization(t *testing.T, name string, owner *models.User) *models.Organization {
	t.Helper()

	org, err := e.orgService.CreateOrganization(context.Background(), services.CreateOrganizationInput{
		Name:    name,
		OwnerID: owner.ID,
	})
	require.NoError(t, err)
	return org
}

func (e *testEnv) addMember(t *testing.T, orgID uint64, user *models.User, role models.MemberRole) *models.TeamMember {
	t.Helper()

	member := &models.TeamMember{
		OrganizationID: orgID,
		UserID:         user.ID,
		Role:           role,
		Status:         models.MemberStatusActive,
	}
	require.NoError(t, e.db.Create(member).Error)
	return member
}

func orgPath(orgID uint64, suffix string) string {
	return "/api/organizations/" + strconv.FormatUint(orgID, 10) + suffix
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}
