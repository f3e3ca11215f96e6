// Command seed fills the database with demo records or sends a test
// CompanyCreated notification to every user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gartstein/minicrm/internal/crm/app"
	"github.com/gartstein/minicrm/internal/crm/auth"
	"github.com/gartstein/minicrm/internal/crm/config"
	"github.com/gartstein/minicrm/internal/crm/logging"
	"github.com/gartstein/minicrm/internal/crm/seed"
	"go.uber.org/zap"
)

func main() {
	data := flag.Bool("data", false, "create the demo admin, company and employee")
	notify := flag.Bool("notify", false, "create a company and send CompanyCreated notifications")
	flag.Parse()

	if !*data && !*notify {
		fmt.Fprintln(os.Stderr, "usage: seed [-data] [-notify]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Fatal("failed to load config", zap.Error(err))
	}
	logger := logging.New(logging.Options{Development: cfg.IsDevelopment(), File: cfg.LogFile})
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx := context.Background()
	crm, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	// Close drains queued events, so the notifications are delivered before exit.
	defer crm.Close()

	seeder := seed.New(crm.Repo, auth.HashPassword, logger)

	if *data {
		res, err := seeder.Data(ctx)
		if err != nil {
			logger.Error("failed to seed data", zap.Error(err))
			return
		}
		fmt.Printf("Login: %s / %s\n", res.User.Email, seed.DemoAdmin.Password)
		fmt.Printf("Company: %s (id %d)\n", res.Company.Name, res.Company.ID)
		fmt.Printf("Employee: %s %s (id %d)\n", res.Employee.FirstName, res.Employee.LastName, res.Employee.ID)
	}

	if *notify {
		res, err := seeder.Notification(ctx, crm.Publisher)
		if err != nil {
			logger.Error("failed to send test notification", zap.Error(err))
			return
		}
		fmt.Printf("Sent CompanyCreated for %q (id %d)\n", res.Company.Name, res.Company.ID)
	}
}
