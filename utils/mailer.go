package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"tasknest/config"
)

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>TaskNest</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>TaskNest</h2>
    </div>

    <div class="content">
        <p>{{.Message}}</p>
        {{if .Link}}<p><a href="{{.Link}}">Open in TaskNest</a></p>{{end}}
    </div>

    <div class="footer">
        <p>&copy; {{.Year}} TaskNest. You are receiving this because of activity on your tasks.</p>
    </div>
</body>
</html>`))

// Mailer sends notification emails over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns nil when SMTP is not configured; callers treat a nil
// mailer as "email channel disabled".
func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.FromEmail,
	}
}

func (m *Mailer) SendNotification(to, message, link string) error {
	var body bytes.Buffer
	err := notificationTemplate.Execute(&body, struct {
		Message string
		Link    string
		Year    int
	}{Message: message, Link: link, Year: time.Now().Year()})
	if err != nil {
		return fmt.Errorf("render notification email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "TaskNest update")
	msg.SetBody("text/html", body.String())

	return m.dialer.DialAndSend(msg)
}
