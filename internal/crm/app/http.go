package app

import (
	"net/http"

	"github.com/gartstein/minicrm/internal/crm/controller"
	"github.com/gartstein/minicrm/internal/crm/handlers"
)

// HTTPHandler builds the services and returns the complete HTTP stack:
// method override and body limit in front of the gin router.
func (a *App) HTTPHandler(metrics bool) http.Handler {
	companies := controller.NewCompanyService(a.Repo, a.Validator, a.Uploads, a.Publisher, a.logger)
	employees := controller.NewEmployeeService(a.Repo, a.Validator, a.logger)
	authSvc := controller.NewAuthService(a.Repo, a.Validator, a.Authenticator, a.logger)
	notifications := controller.NewNotificationService(a.Repo)

	h := handlers.NewHandler(handlers.Dependencies{
		Companies:     companies,
		Employees:     employees,
		Auth:          authSvc,
		Notifications: notifications,
		Authenticator: a.Authenticator,
		Uploads:       a.Uploads,
		Live:          a.Hub,
		Health:        a.Repo,
		AppURL:        a.Config.AppURL,
	}, a.logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:    a.Config.AppName,
		AllowedOrigins: a.Config.CORSAllowedOrigins,
		StorageRoot:    a.LocalStorageRoot(),
		Metrics:        metrics,
	}, h, a.logger)

	return handlers.MethodOverride(router, a.Config.MaxRequestBytes)
}
