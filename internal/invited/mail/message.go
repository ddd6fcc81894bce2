// Package mail renders and dispatches invitation notification emails.
package mail

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/openoak/invited/internal/invited/domain"
)

//go:embed templates/*.txt
var templates embed.FS

// SiteInfo identifies the site on whose behalf invitations are sent.
type SiteInfo struct {
	Name    string
	BaseURL string // no trailing slash, e.g. https://example.org
}

// templateData is what the subject and body templates render against.
type templateData struct {
	SiteName       string
	BaseURL        string
	Code           string
	InviterName    string
	ExpirationDays int
}

// BuildMessage renders the invitation subject and body. The subject is
// collapsed to a single line: header injection via embedded newlines is
// not possible regardless of template content.
func BuildMessage(site SiteInfo, inv domain.Invitation, inviter domain.User, validityDays int) (subject, body string, err error) {
	tmpl, err := template.ParseFS(templates, "templates/*.txt")
	if err != nil {
		return "", "", fmt.Errorf("failed to parse mail templates: %w", err)
	}

	data := templateData{
		SiteName:       site.Name,
		BaseURL:        strings.TrimRight(site.BaseURL, "/"),
		Code:           inv.Code,
		InviterName:    inviter.Username,
		ExpirationDays: validityDays,
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "invitation_subject.txt", data); err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	// Email subjects must not contain newlines.
	subject = strings.Join(strings.Fields(sb.String()), " ")

	sb.Reset()
	if err := tmpl.ExecuteTemplate(&sb, "invitation_body.txt", data); err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	body = sb.String()

	return subject, body, nil
}
