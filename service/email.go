package service

import (
	"fmt"
	"html"

	"sisgeagro/config"

	"gopkg.in/gomail.v2"
)

// Mailer 邮件发送接口
type Mailer interface {
	Send(to, subject, text, htmlBody string) error
}

// EmailService 基于 SMTP 的邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Send 发送纯文本 + HTML 双格式邮件
func (s *EmailService) Send(to, subject, text, htmlBody string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("el servicio de correo no está habilitado")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("error al enviar correo: %w", err)
	}
	return nil
}

// MovementAlert 大额收支提醒邮件内容
type MovementAlert struct {
	Username    string
	Description string
	Type        string
	Amount      float64
	Threshold   float64
	Entity      string
	Date        string
}

func (a MovementAlert) subject() string {
	return fmt.Sprintf("【SisGeAgro】Nuevo %s por $%.2f", a.Type, a.Amount)
}

func (a MovementAlert) text() string {
	return fmt.Sprintf("Hola %s,\n\nSe registró un %s de $%.2f (%s) con %s el %s.\n"+
		"Tu umbral de aviso es $%.2f.\n\n-- SisGeAgro",
		a.Username, a.Type, a.Amount, a.Description, a.Entity, a.Date, a.Threshold)
}

func (a MovementAlert) html() string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #15803d, #166534); color: white; padding: 30px; text-align: center; }
        .content { padding: 30px; color: #333; line-height: 1.8; }
        .amount { font-size: 28px; font-weight: bold; color: #166534; }
        .footer { background: #f8f9fa; padding: 20px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>🌾 SisGeAgro</h1></div>
        <div class="content">
            <p>Hola <strong>%s</strong>,</p>
            <p>Se registró un <strong>%s</strong>:</p>
            <p class="amount">$%.2f</p>
            <p>%s<br>%s · %s</p>
            <p>Tu umbral de aviso es $%.2f.</p>
        </div>
        <div class="footer"><p>Correo automático, no responder.</p></div>
    </div>
</body>
</html>
`, html.EscapeString(a.Username), html.EscapeString(a.Type), a.Amount,
		html.EscapeString(a.Description), html.EscapeString(a.Entity), html.EscapeString(a.Date), a.Threshold)
}
