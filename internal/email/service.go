package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/metrics"
	"github.com/mrintern/server/internal/validation"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// ErrDisabled is returned when email delivery is turned off in config.
var ErrDisabled = errors.New("email delivery disabled")

// Service sends transactional email over SMTP or the Resend API.
type Service struct {
	config       config.EmailConfig
	provider     string
	baseURL      string
	resendClient *resend.Client
	html         *htmltemplate.Template
	text         *texttemplate.Template
	logger       zerolog.Logger
}

// message is a rendered email ready for a transport.
type message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// AlertData feeds the alert templates.
type AlertData struct {
	Name        string
	FilterName  string
	Count       int
	Listings    []alertListing
	ListingsURL string
}

type alertListing struct {
	Title     string
	Company   string
	Location  string
	Industry  string
	ApplyLink string
}

type testData struct {
	SentAt      string
	ListingsURL string
}

// NewService creates a new email service. baseURL is the public site root used
// for links in message bodies.
func NewService(cfg config.EmailConfig, baseURL string, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "smtp"
	}

	s := &Service{
		config:   cfg,
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		html:     html,
		text:     text,
		logger:   logger.With().Str("component", "email").Logger(),
	}

	switch provider {
	case "resend":
		if cfg.Enabled && cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend provider requires EMAIL_RESEND_API_KEY")
		}
		s.resendClient = resend.NewClient(cfg.ResendAPIKey)
	case "smtp":
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
	return s, nil
}

// Enabled reports whether messages will actually be delivered.
func (s *Service) Enabled() bool {
	return s.config.Enabled
}

// SendAlert mails a digest of new listings for one saved filter.
func (s *Service) SendAlert(ctx context.Context, alert alerts.Alert) error {
	if err := validateEmailAddress(alert.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	data := AlertData{
		Name:        alert.Name,
		FilterName:  alert.FilterName,
		Count:       len(alert.Listings),
		ListingsURL: s.baseURL + "/internships",
	}
	for _, l := range alert.Listings {
		link := l.ApplyLink
		// stored links are validated on write; this guards rows imported before that
		if validation.ValidateURL(link, "applyLink") != nil {
			link = ""
		}
		data.Listings = append(data.Listings, alertListing{
			Title:     l.Title,
			Company:   l.Company,
			Location:  l.Location,
			Industry:  string(l.Industry),
			ApplyLink: link,
		})
	}

	msg, err := s.render("alert", data)
	if err != nil {
		return err
	}
	msg.To = alert.To
	msg.Subject = "🔔 New Internships Matching Your Filter: " + alert.FilterName

	return s.deliver(ctx, "alert", msg)
}

// SendTest sends a short message used to verify the email configuration.
func (s *Service) SendTest(ctx context.Context, to string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}
	msg, err := s.render("test", testData{
		SentAt:      time.Now().UTC().Format(time.RFC1123),
		ListingsURL: s.baseURL + "/internships",
	})
	if err != nil {
		return err
	}
	msg.To = to
	msg.Subject = "Mr.Intern test email"
	return s.deliver(ctx, "test", msg)
}

func (s *Service) deliver(ctx context.Context, kind string, msg message) error {
	if !s.config.Enabled {
		s.logger.Info().
			Str("to", msg.To).
			Str("kind", kind).
			Msg("email service disabled, skipping email")
		metrics.EmailsSentTotal.WithLabelValues(kind, "skipped").Inc()
		return ErrDisabled
	}

	var err error
	if s.provider == "resend" {
		err = s.sendViaResend(ctx, kind, msg)
	} else {
		err = s.sendViaSMTP(msg)
	}
	if err != nil {
		metrics.EmailsSentTotal.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	metrics.EmailsSentTotal.WithLabelValues(kind, "success").Inc()
	s.logger.Info().Str("to", msg.To).Str("kind", kind).Msg("email sent")
	return nil
}

func (s *Service) render(name string, data any) (message, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := s.html.ExecuteTemplate(&htmlBuf, name+".html", data); err != nil {
		return message{}, fmt.Errorf("failed to execute template %s.html: %w", name, err)
	}
	if err := s.text.ExecuteTemplate(&textBuf, name+".txt", data); err != nil {
		return message{}, fmt.Errorf("failed to execute template %s.txt: %w", name, err)
	}
	return message{HTML: htmlBuf.String(), Text: strings.TrimSpace(textBuf.String()) + "\n"}, nil
}

// fromHeader renders the sender with its display name, e.g. "Mr.Intern" <a@b.c>.
func (s *Service) fromHeader() string {
	addr, err := mail.ParseAddress(s.config.From)
	if err != nil {
		return s.config.From
	}
	if addr.Name == "" {
		addr.Name = s.config.FromName
	}
	return addr.String()
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

// buildMIME assembles a multipart/alternative message with text and HTML parts.
func buildMIME(from string, msg message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	headers := [][2]string{
		{"From", from},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}
	for _, h := range headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h[0], h[1])
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// sendViaSMTP delivers msg over STARTTLS with PLAIN auth.
func (s *Service) sendViaSMTP(msg message) error {
	if err := validateEmailAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}
	raw, err := buildMIME(s.fromHeader(), msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	from, err := mail.ParseAddress(s.config.From)
	if err != nil {
		return fmt.Errorf("invalid sender email: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if s.config.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(from.Address); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to.Address); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}
