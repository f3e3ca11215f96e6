package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Stats supplies the activity summary shown in the mail.
type Stats interface {
	CountCompanies(ctx context.Context) (int64, error)
	CountEmployees(ctx context.Context) (int64, error)
	CountCompaniesCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type mailData struct {
	AppName        string
	RecipientName  string
	CompanyName    string
	CompanyEmail   string
	CompanyWebsite string
	HasLogo        bool
	CreatedBy      string
	CreatedAt      string
	CompanyURL     string
	TotalCompanies int64
	TotalEmployees int64
	CompaniesToday int64
}

// Renderer renders the company-created mail. Counts are read at render time.
type Renderer struct {
	tmpl    *template.Template
	stats   Stats
	appName string
	appURL  string
	now     func() time.Time
}

func NewRenderer(stats Stats, appName, appURL string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{
		tmpl:    tmpl,
		stats:   stats,
		appName: appName,
		appURL:  strings.TrimRight(appURL, "/"),
		now:     time.Now,
	}, nil
}

func (r *Renderer) CompanyCreated(ctx context.Context, recipientName string, n *CompanyCreated) (Message, error) {
	data := mailData{
		AppName:       r.appName,
		RecipientName: recipientName,
		CompanyName:   n.Company.Name,
		HasLogo:       n.Company.HasLogo(),
		CreatedBy:     n.CreatedBy.Name,
		CreatedAt:     n.Company.CreatedAt.Format("January 2, 2006 at 3:04 PM"),
		CompanyURL:    fmt.Sprintf("%s/companies/%d", r.appURL, n.Company.ID),
	}
	if n.Company.Email != nil {
		data.CompanyEmail = *n.Company.Email
	}
	if n.Company.Website != nil {
		data.CompanyWebsite = *n.Company.Website
	}

	var err error
	if data.TotalCompanies, err = r.stats.CountCompanies(ctx); err != nil {
		return Message{}, err
	}
	if data.TotalEmployees, err = r.stats.CountEmployees(ctx); err != nil {
		return Message{}, err
	}
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if data.CompaniesToday, err = r.stats.CountCompaniesCreatedSince(ctx, today); err != nil {
		return Message{}, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "company_created.html", data); err != nil {
		return Message{}, fmt.Errorf("render mail: %w", err)
	}
	return Message{
		Subject: "New Company Created: " + n.Company.Name,
		HTML:    buf.String(),
	}, nil
}
