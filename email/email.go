// Package email sends error alerts to the site admin over SMTP.
package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	admin    string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
		admin:    os.Getenv("ADMIN_EMAIL"),
	}
}

// Configured reports whether the SMTP settings are present.
func (e *EmailService) Configured() bool {
	return e.host != "" && e.admin != ""
}

// SendErrorAlert mails the admin about a server error. Failures are
// logged, not returned: an alert must never take the site down further.
func (e *EmailService) SendErrorAlert(path string, recovered any) {
	if !e.Configured() {
		return
	}

	subject := "Application Error"
	body := fmt.Sprintf(`An error occurred while serving %s:

%v
`, path, recovered)

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.from, e.admin, subject, body)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := smtp.SendMail(addr, auth, e.from, []string{e.admin}, []byte(message)); err != nil {
		log.Printf("Error sending alert email: %v", err)
	}
}
