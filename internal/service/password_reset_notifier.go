package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"
)

const passwordResetSubject = "Your Password Reset Code - TOOF Foundation"

type PasswordResetNotification struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

type PasswordResetNotifier interface {
	SendPasswordResetCode(ctx context.Context, notification PasswordResetNotification) error
}

var passwordResetHTML = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #16a34a; color: white; padding: 20px; text-align: center;"><h1>{{.Org}}</h1></div>
    <div style="padding: 30px; background: #f9f9f9;">
      <h2>Password Reset Code</h2>
      <p>We received a request to reset your password. Use the code below to reset your password:</p>
      <div style="background: #16a34a; color: white; font-size: 32px; font-weight: bold; letter-spacing: 8px; padding: 20px 30px; text-align: center; border-radius: 10px; margin: 25px 0;">{{.Code}}</div>
      <p><strong>This code will expire in {{.Minutes}} minutes.</strong></p>
      <p>If you didn't request this password reset, you can safely ignore this email.</p>
    </div>
    <div style="padding: 20px; text-align: center; color: #666; font-size: 12px;">
      <p>&copy; {{.Year}} The Olanike Omopariola Foundation. All rights reserved.</p>
    </div>
  </div>
</body>
</html>`))

type passwordResetEmail struct {
	Subject string
	HTML    string
	Text    string
}

func renderPasswordResetEmail(n PasswordResetNotification, now time.Time) (passwordResetEmail, error) {
	minutes := int(n.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
	if minutes <= 0 {
		minutes = 10
	}
	var buf bytes.Buffer
	if err := passwordResetHTML.Execute(&buf, map[string]any{
		"Org":     "TOOF Foundation",
		"Code":    n.Code,
		"Minutes": minutes,
		"Year":    now.Year(),
	}); err != nil {
		return passwordResetEmail{}, fmt.Errorf("render password reset email: %w", err)
	}
	text := fmt.Sprintf("Your TOOF Foundation password reset code is %s.\n\nThis code will expire in %d minutes. "+
		"If you didn't request this password reset, you can safely ignore this email.\n", n.Code, minutes)
	return passwordResetEmail{Subject: passwordResetSubject, HTML: buf.String(), Text: text}, nil
}

// LogPasswordResetNotifier writes reset codes to the application log. It is
// meant for local development only.
type LogPasswordResetNotifier struct {
	logger *slog.Logger
}

func NewLogPasswordResetNotifier(logger *slog.Logger) *LogPasswordResetNotifier {
	return &LogPasswordResetNotifier{logger: logger}
}

func (n *LogPasswordResetNotifier) SendPasswordResetCode(ctx context.Context, notification PasswordResetNotification) error {
	n.logger.InfoContext(ctx, "password reset code issued",
		"email", notification.Email,
		"code", notification.Code,
		"expires_at", notification.ExpiresAt,
	)
	return nil
}
