package outreach

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sells-group/leadgen-cli/internal/config"
)

// Envelope is a message ready for transport.
type Envelope struct {
	To      string
	Message *Message
}

// Mailer delivers a message and returns its Message-ID.
type Mailer interface {
	Send(ctx context.Context, env Envelope) (string, error)
}

// sender holds the From identity shared by the mailers.
type sender struct {
	name    string
	address string
	company string
}

func newSender(smtp config.SMTPConfig, campaign config.CampaignConfig) sender {
	return sender{name: campaign.SellerName, address: smtp.Sender(), company: campaign.CompanyName}
}

func (s sender) messageID() string {
	domain := "localhost"
	if _, d, ok := strings.Cut(s.address, "@"); ok && d != "" {
		domain = d
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func (s sender) build(env Envelope, messageID string) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetAddressHeader("From", s.address, s.name)
	m.SetHeader("To", env.To)
	m.SetHeader("Subject", env.Message.Subject)
	m.SetHeader("Reply-To", s.address)
	m.SetHeader("Message-ID", messageID)
	m.SetHeader("X-Mailer", s.company+" Lead Generation System")
	m.SetBody("text/plain", env.Message.Text)
	m.AddAlternative("text/html", env.Message.HTML)
	return m
}

// SMTPMailer sends over SMTP with STARTTLS.
type SMTPMailer struct {
	sender
	dialer *gomail.Dialer
}

// NewSMTPMailer creates an SMTPMailer from SMTP and campaign settings.
func NewSMTPMailer(smtp config.SMTPConfig, campaign config.CampaignConfig) *SMTPMailer {
	return &SMTPMailer{
		sender: newSender(smtp, campaign),
		dialer: gomail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Password),
	}
}

// Send dials, authenticates and sends one message.
func (m *SMTPMailer) Send(ctx context.Context, env Envelope) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "smtp: send")
	}
	id := m.messageID()
	if err := m.dialer.DialAndSend(m.build(env, id)); err != nil {
		return "", eris.Wrapf(err, "smtp: send to %s", env.To)
	}
	return id, nil
}

// DryRunMailer logs messages instead of sending them. Campaign records are
// still written.
type DryRunMailer struct {
	sender
}

// NewDryRunMailer creates a DryRunMailer with the configured identity.
func NewDryRunMailer(smtp config.SMTPConfig, campaign config.CampaignConfig) *DryRunMailer {
	return &DryRunMailer{sender: newSender(smtp, campaign)}
}

// Send logs a preview and returns a fresh message id.
func (m *DryRunMailer) Send(_ context.Context, env Envelope) (string, error) {
	id := m.messageID()
	zap.L().Info("test mode, not sending email",
		zap.String("to", env.To),
		zap.String("subject", env.Message.Subject),
		zap.String("preview", preview(env.Message.Text, 100)),
	)
	return id, nil
}

// NewMailer returns a DryRunMailer in test mode and an SMTPMailer otherwise.
func NewMailer(smtp config.SMTPConfig, campaign config.CampaignConfig) Mailer {
	if campaign.TestMode {
		return NewDryRunMailer(smtp, campaign)
	}
	return NewSMTPMailer(smtp, campaign)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
