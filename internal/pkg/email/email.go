package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Notifier sends lifecycle notifications to applicants
type Notifier interface {
	SendSubmissionReceipt(msg StatusMessage) error
	SendStatusChange(msg StatusMessage) error
}

// StatusMessage carries the details rendered into a notification
type StatusMessage struct {
	ToEmail       string
	ToName        string
	ApplicationID int64
	CourseName    string
	FromStatus    string
	ToStatus      string
	Notes         string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string
}

type smtpNotifier struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(to, subject, htmlBody string) error
}

// NewNotifier creates a Notifier. Without SMTP credentials messages are only logged.
func NewNotifier(config SMTPConfig, logger zerolog.Logger) Notifier {
	n := &smtpNotifier{config: config, logger: logger}
	n.send = n.sendHTMLEmail
	return n
}

var statusTemplate = template.Must(template.New("status").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<p>Hello {{.ToName}},</p>
		<p>{{.Lead}}</p>
		<p><strong>Course:</strong> {{.CourseName}}<br>
		<strong>Status:</strong> {{.ToStatus}}</p>
		{{if .Notes}}<p><strong>Notes from the admissions team:</strong> {{.Notes}}</p>{{end}}
		<p><a href="{{.Link}}">View your application</a></p>
		<p>Best regards,<br>{{.Signature}}</p>
	</div>
</body>
</html>`))

// SendSubmissionReceipt confirms a submitted application
func (n *smtpNotifier) SendSubmissionReceipt(msg StatusMessage) error {
	subject := fmt.Sprintf("Application #%d received", msg.ApplicationID)
	return n.deliver(msg, subject, "We have received your application and it is now waiting for review.")
}

// SendStatusChange tells the applicant about a review decision
func (n *smtpNotifier) SendStatusChange(msg StatusMessage) error {
	subject := fmt.Sprintf("Application #%d is now %s", msg.ApplicationID, humanStatus(msg.ToStatus))
	lead := fmt.Sprintf("The status of your application changed from %s to %s.", humanStatus(msg.FromStatus), humanStatus(msg.ToStatus))
	return n.deliver(msg, subject, lead)
}

func (n *smtpNotifier) deliver(msg StatusMessage, subject, lead string) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("recipient address is empty")
	}

	if n.config.Username == "" || n.config.Password == "" {
		n.logger.Warn().
			Str("toEmail", msg.ToEmail).
			Int64("applicationID", msg.ApplicationID).
			Str("status", msg.ToStatus).
			Str("subject", subject).
			Msg("SMTP credentials not configured - notification not sent")
		return nil
	}

	var body bytes.Buffer
	err := statusTemplate.Execute(&body, map[string]string{
		"ToName":     msg.ToName,
		"Lead":       lead,
		"CourseName": msg.CourseName,
		"ToStatus":   humanStatus(msg.ToStatus),
		"Notes":      msg.Notes,
		"Link":       fmt.Sprintf("%s/api/v1/applications/%d", strings.TrimRight(n.config.BaseURL, "/"), msg.ApplicationID),
		"Signature":  n.config.FromName,
	})
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	return n.send(msg.ToEmail, subject, body.String())
}

// humanStatus turns UNDER_REVIEW into "under review"
func humanStatus(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

func (n *smtpNotifier) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)

	var message strings.Builder
	fmt.Fprintf(&message, "From: %s <%s>\r\n", n.config.FromName, n.config.FromEmail)
	fmt.Fprintf(&message, "To: %s\r\n", toEmail)
	fmt.Fprintf(&message, "Subject: %s\r\n", subject)
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	message.WriteString(htmlBody)

	serverAddress := n.config.Host + ":" + strconv.Itoa(n.config.Port)

	if !n.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, n.config.FromEmail, []string{toEmail}, []byte(message.String())); err != nil {
			n.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: n.config.Host})
	if err != nil {
		n.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		n.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(n.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	return w.Close()
}
