// Package handlers serves the CRM over HTTP with gin and exposes gRPC
// health checks. It translates requests into controller calls and domain
// results into JSON responses.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gartstein/minicrm/internal/crm/auth"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyController defines the company operations the HTTP handlers invoke.
type CompanyController interface {
	ListCompanies(ctx context.Context, req pagination.Request) (*pagination.Page[models.Company], error)
	CreateCompany(ctx context.Context, actor *models.User, fields validation.Fields, logo *upload.File) (*models.Company, error)
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	UpdateCompany(ctx context.Context, id uint, fields validation.Fields, logo *upload.File) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uint) error
}

type EmployeeController interface {
	ListEmployees(ctx context.Context, req pagination.Request, companyID *uint) (*pagination.Page[models.Employee], error)
	CreateEmployee(ctx context.Context, fields validation.Fields) (*models.Employee, error)
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id uint, fields validation.Fields) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id uint) error
}

type AuthController interface {
	Login(ctx context.Context, fields validation.Fields) (*models.User, string, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type NotificationController interface {
	List(ctx context.Context, user *models.User, unreadOnly bool, req pagination.Request) (*pagination.Page[models.Notification], error)
	MarkRead(ctx context.Context, user *models.User, id uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, user *models.User) (int64, error)
	UnreadCount(ctx context.Context, user *models.User) (int64, error)
}

// LiveNotifications attaches a websocket connection to a user.
type LiveNotifications interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uint)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds the controllers behind the HTTP routes.
type Handler struct {
	companies     CompanyController
	employees     EmployeeController
	auth          AuthController
	notifications NotificationController
	authenticator *auth.Authenticator
	uploads       *upload.Service
	live          LiveNotifications
	health        HealthChecker
	appURL        string
	convert       converter
	logger        *zap.Logger
	abort         func(c *gin.Context, err error)
}

// Dependencies groups the collaborators of a Handler.
type Dependencies struct {
	Companies     CompanyController
	Employees     EmployeeController
	Auth          AuthController
	Notifications NotificationController
	Authenticator *auth.Authenticator
	Uploads       *upload.Service
	Live          LiveNotifications
	Health        HealthChecker
	// AppURL prefixes the paths in pagination links.
	AppURL string
}

func NewHandler(deps Dependencies, logger *zap.Logger) *Handler {
	logger = logger.Named("http")
	return &Handler{
		companies:     deps.Companies,
		employees:     deps.Employees,
		auth:          deps.Auth,
		notifications: deps.Notifications,
		authenticator: deps.Authenticator,
		uploads:       deps.Uploads,
		live:          deps.Live,
		health:        deps.Health,
		appURL:        strings.TrimRight(deps.AppURL, "/"),
		convert:       converter{publicURL: deps.Uploads.PublicURL},
		logger:        logger,
		abort:         abortWithError(logger),
	}
}

// pageRequest reads page and per_page and binds the links to the public URL
// of the current path.
func (h *Handler) pageRequest(c *gin.Context) pagination.Request {
	return pagination.FromQuery(h.appURL+c.Request.URL.Path, c.Request.URL.Query())
}

// currentUser returns the user stored by the auth middleware.
func currentUser(c *gin.Context) *models.User {
	user, _ := auth.UserFromContext(c.Request.Context())
	return user
}

// Up reports whether the process and its database are reachable.
func (h *Handler) Up(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "timestamp": now()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": now()})
}

func (h *Handler) UploadConstraints(c *gin.Context) {
	c.JSON(http.StatusOK, h.uploads.Constraints())
}
