package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/tooffoundation/site-backend/internal/observability"
)

type SMTPSettings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSPolicy string
	FromName  string
	FromEmail string
	Timeout   time.Duration
}

type SMTPPasswordResetNotifier struct {
	settings SMTPSettings
	now      func() time.Time
}

func NewSMTPPasswordResetNotifier(settings SMTPSettings) (*SMTPPasswordResetNotifier, error) {
	if settings.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if settings.FromEmail == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return &SMTPPasswordResetNotifier{settings: settings, now: time.Now}, nil
}

func (n *SMTPPasswordResetNotifier) SendPasswordResetCode(ctx context.Context, notification PasswordResetNotification) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordNotificationDelivery(ctx, "smtp", outcome, time.Since(start)) }()

	msg, err := n.buildMessage(notification)
	if err != nil {
		outcome = "error"
		return err
	}
	client, err := mail.NewClient(n.settings.Host, n.clientOptions()...)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		outcome = "error"
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (n *SMTPPasswordResetNotifier) buildMessage(notification PasswordResetNotification) (*mail.Msg, error) {
	rendered, err := renderPasswordResetEmail(notification, n.now())
	if err != nil {
		return nil, err
	}
	msg := mail.NewMsg()
	if n.settings.FromName != "" {
		if err := msg.FromFormat(n.settings.FromName, n.settings.FromEmail); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(n.settings.FromEmail); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(notification.Email); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(rendered.Subject)
	msg.SetBodyString(mail.TypeTextPlain, rendered.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, rendered.HTML)
	return msg, nil
}

func (n *SMTPPasswordResetNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.settings.Port),
		mail.WithTimeout(n.settings.Timeout),
	}
	switch n.settings.TLSPolicy {
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if n.settings.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	}
	if n.settings.Username != "" && n.settings.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.settings.Username),
			mail.WithPassword(n.settings.Password),
		)
	}
	return opts
}
