package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer sends the transactional emails. Every send is best-effort: the
// callers log failures and carry on, a broken SMTP relay must never fail
// the write it is attached to.
type Mailer interface {
	SendIntakeConfirmation(to, name string, intakeFormID uint, wantsConsultation bool) error
	SendResumeLink(to, name, resumeToken string) error
	SendVerificationCode(to, name, code string) error
	SendConsultationConfirmation(to, name, date, timeOfDay, timezone string, consultationID uint) error
	SendAdminNotification(subject, html string) error
}

type smtpMailer struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
	appURL     string
}

func NewSMTPMailer() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port == 0 {
		port = 587
	}

	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "WebCraft <hello@webcraft.com>"
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@webcraft.com"
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	return &smtpMailer{
		dialer:     gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD")),
		from:       from,
		adminEmail: adminEmail,
		appURL:     appURL,
	}
}

func (m *smtpMailer) send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (m *smtpMailer) SendIntakeConfirmation(to, name string, intakeFormID uint, wantsConsultation bool) error {
	schedule := ""
	if wantsConsultation {
		schedule = fmt.Sprintf(
			`<p>You requested a free consultation. Book your preferred time here: <a href="%s/schedule?intake=%d">Schedule Consultation</a></p>`,
			m.appURL, intakeFormID,
		)
	}

	html := fmt.Sprintf(`
		<h2>Thank You, %s!</h2>
		<p>We've received your website project questionnaire and we're excited to learn about your project.</p>
		<p>Our team will review your requirements within 24-48 hours and send you a detailed proposal with pricing and timeline.</p>
		%s
		<p>Reference ID: %d</p>
		<p>Best regards,<br>The WebCraft Team</p>`,
		name, schedule, intakeFormID,
	)
	return m.send(to, "Thank You for Your Website Project Inquiry", html)
}

func (m *smtpMailer) SendResumeLink(to, name, resumeToken string) error {
	html := fmt.Sprintf(`
		<h2>Hello %s!</h2>
		<p>Your website project questionnaire is saved. Pick up where you left off any time:</p>
		<p><a href="%s/intake?resume=%s">Continue Questionnaire</a></p>
		<p>Best regards,<br>The WebCraft Team</p>`,
		name, m.appURL, resumeToken,
	)
	return m.send(to, "Continue Your Website Project Questionnaire", html)
}

func (m *smtpMailer) SendVerificationCode(to, name, code string) error {
	html := fmt.Sprintf(`
		<h2>Hello %s!</h2>
		<p>You requested access to your Client Portal. Use this verification code to continue:</p>
		<p style="font-size:32px;font-weight:bold;letter-spacing:8px">%s</p>
		<p>This code expires in 10 minutes. If you didn't request it, please ignore this email.</p>
		<p>Best regards,<br>The WebCraft Team</p>`,
		name, code,
	)
	return m.send(to, "Your WebCraft Portal Verification Code", html)
}

func (m *smtpMailer) SendConsultationConfirmation(to, name, date, timeOfDay, timezone string, consultationID uint) error {
	html := fmt.Sprintf(`
		<h2>You're Booked, %s!</h2>
		<p>Your free 30-minute consultation is confirmed for <strong>%s at %s</strong> (%s).</p>
		<p>Need to change it? Reply to this email and we'll sort it out.</p>
		<p>Reference ID: %d</p>
		<p>Best regards,<br>The WebCraft Team</p>`,
		name, date, timeOfDay, timezone, consultationID,
	)
	return m.send(to, "Your Consultation is Confirmed", html)
}

func (m *smtpMailer) SendAdminNotification(subject, html string) error {
	return m.send(m.adminEmail, subject, html)
}
