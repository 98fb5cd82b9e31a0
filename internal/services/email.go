package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"

	"sakura-backend/internal/models"
)

type EmailService struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	devMode bool
	logger  *slog.Logger
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(host, port, user, pass, from string, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	devMode := host == "" || user == ""
	if devMode {
		logger.Warn("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		devMode: devMode,
		logger:  logger,
		send:    smtp.SendMail,
	}
}

func (s *EmailService) Name() string { return "email" }

// Notify mails a confirmation to the customer when the order has an e-mail.
func (s *EmailService) Notify(_ context.Context, order models.OrderRequest, event models.OrderEvent) error {
	if strings.TrimSpace(order.Email) == "" {
		return nil
	}
	return s.SendOrderConfirmation(order.Email, order.Name, event)
}

func (s *EmailService) SendOrderConfirmation(to, name string, event models.OrderEvent) error {
	subject := fmt.Sprintf("Sakura Sushi: заказ %s принят", event.OrderID)

	var rows strings.Builder
	for _, it := range event.Items {
		fmt.Fprintf(&rows, `<tr><td style="padding: 4px 0;">%s × %d</td><td style="text-align: right;">%d ₽</td></tr>`,
			html.EscapeString(it.Title), it.Quantity, it.Price*it.Quantity)
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #fdf2f8;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #e11d48 0%%, #f472b6 100%%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">Sakura Sushi</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Спасибо, %s!</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;">
        Ваш заказ <b>%s</b> принят. Мы свяжемся с вами в ближайшее время.
      </p>
      <table style="width: 100%%; font-size: 14px; color: #1e293b;">%s
        <tr><td style="padding-top: 12px; font-weight: 700;">Итого</td><td style="text-align: right; padding-top: 12px; font-weight: 700;">%d ₽</td></tr>
      </table>
    </div>
  </div>
</body>
</html>`, html.EscapeString(name), event.OrderID, rows.String(), event.Total)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.logger.Info("📧 [DEV EMAIL]", "to", to, "subject", subject)
		s.logger.Debug("📧 body", "html", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := s.send(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Info("📧 Email sent", "to", to, "subject", subject)
	return nil
}
