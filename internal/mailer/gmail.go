// Package mailer sends the advisor notification email through the
// Gmail API on behalf of the signed-in student account.
package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// TemplateSource supplies the email template to render. Satisfied by
// *template.Store.
type TemplateSource interface {
	Active() models.EmailTemplate
}

// Gmail sends mail via the Gmail API using a stored OAuth token. The
// OAuth consent flow happens once, out of band; this mailer only
// consumes the resulting token.json and refreshes it as needed.
type Gmail struct {
	credentialsPath string
	tokenPath       string
	templates       TemplateSource
}

func NewGmail(credentialsPath, tokenPath string, templates TemplateSource) *Gmail {
	return &Gmail{
		credentialsPath: credentialsPath,
		tokenPath:       tokenPath,
		templates:       templates,
	}
}

// Send renders the active template for the given course and delivers
// it to the profile's advisor address. The authenticated Gmail account
// is the sender; the profile's student email is set as reply-to so the
// advisor answers the student directly.
func (g *Gmail) Send(ctx context.Context, p models.Profile, courseCode, section string) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}

	subject, body := g.templates.Active().Render(models.TemplateFields{
		CourseCode:  courseCode,
		Section:     section,
		StudentName: p.StudentName,
		StudentID:   p.StudentID,
	})

	raw := buildMessage(p.AdvisorEmail, p.StudentEmail, subject, body)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}

	if _, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sending mail to %s: %w", p.AdvisorEmail, err)
	}
	log.Printf("[mailer] Sent advisor email to %s for %s section %s", p.AdvisorEmail, courseCode, section)
	return nil
}

func (g *Gmail) service(ctx context.Context) (*gmail.Service, error) {
	credBytes, err := os.ReadFile(g.credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading oauth credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(credBytes, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parsing oauth credentials: %w", err)
	}

	tok, err := loadToken(g.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("loading oauth token (run the setup flow first): %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("creating gmail client: %w", err)
	}
	return svc, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// buildMessage assembles an RFC 2822 message. Gmail fills in the From
// header from the authenticated account.
func buildMessage(to, replyTo, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
