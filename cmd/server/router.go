package main

import (
	"net/http"

	"github.com/agensea/agency-nexus-flow/internal/config"
	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/handlers"
	"github.com/agensea/agency-nexus-flow/internal/middleware"
	"github.com/agensea/agency-nexus-flow/internal/notify"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/agensea/agency-nexus-flow/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type repositories struct {
	users    repository.UserRepository
	orgs     repository.OrganizationRepository
	team     repository.TeamRepository
	invites  repository.InviteRepository
	tasks    repository.TaskRepository
	clients  repository.ClientRepository
	invoices repository.InvoiceRepository
	chat     repository.ChatRepository
}

type routerDeps struct {
	cfg           *config.Config
	logger        *zap.Logger
	sessionStore  sessions.Store
	repos         repositories
	objectStore   storage.ObjectStore
	notifier      notify.Notifier
	taskGenerator services.TaskGenerator
}

func newRouter(deps routerDeps) *gin.Engine {
	repos := deps.repos

	authService := services.NewAuthService(repos.users, deps.logger)
	orgService := services.NewOrganizationService(repos.orgs, repos.team, deps.objectStore, deps.logger)
	teamService := services.NewTeamService(repos.team, deps.logger)
	inviteService := services.NewInviteService(repos.invites, repos.team, repos.orgs, repos.users, deps.notifier, deps.cfg.AppOrigin, deps.logger)
	taskService := services.NewTaskService(repos.tasks, repos.orgs, repos.team, repos.clients, deps.taskGenerator)
	clientService := services.NewClientService(repos.clients)
	invoiceService := services.NewInvoiceService(repos.invoices, repos.clients, repos.orgs, deps.logger)
	chatService := services.NewChatService(repos.chat)

	authHandler := handlers.NewAuthHandler(authService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	teamHandler := handlers.NewTeamHandler(teamService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	taskHandler := handlers.NewTaskHandler(taskService)
	clientHandler := handlers.NewClientHandler(clientService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	chatHandler := handlers.NewChatHandler(chatService)

	r := gin.New()
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(deps.logger))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.sessionStore))

	r.Static(constants.UploadsRoutePrefix, deps.cfg.UploadDir)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "AgencyOS API is running",
		})
	})

	requireOrg := middleware.RequireOrganizationAccess(repos.orgs, repos.team)
	requireTask := middleware.RequireTaskAccess(repos.tasks, repos.team)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)

			me := auth.Group("/me", middleware.RequireAuth())
			me.GET("", authHandler.GetCurrentUser)
			me.PATCH("", authHandler.UpdateProfile)
			me.POST("/password", authHandler.ChangePassword)
			me.POST("/welcomed", authHandler.MarkWelcomed)
		}

		// Public invite page; the token is the credential.
		invites := api.Group("/invites")
		{
			invites.GET("/:token", inviteHandler.GetInvite)
			invites.POST("/:token/accept", inviteHandler.AcceptInvite)
			invites.POST("/:token/decline", inviteHandler.DeclineInvite)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)

			org := orgs.Group("/:id", requireOrg)
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
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", requireTask, taskHandler.GetTask)
			tasks.PATCH("/:id", requireTask, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireTask, taskHandler.DeleteTask)
			tasks.POST("/:id/assign", requireTask, taskHandler.AssignTask)
			tasks.POST("/:id/unassign", requireTask, taskHandler.UnassignTask)
			tasks.POST("/:id/toggle", requireTask, taskHandler.ToggleTask)
		}
	}

	return r
}
