package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"

	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
)

// Template names accepted by Send.
const (
	TemplatePaymentConfirmed = "payment_confirmed"
	TemplateSiteInProgress   = "site_in_progress"
	TemplateSiteReady        = "site_ready"
)

var subjects = map[string]string{
	TemplatePaymentConfirmed: "Pagamento confirmado, vamos começar seu site!",
	TemplateSiteInProgress:   "Seu site está sendo construído",
	TemplateSiteReady:        "Seu site está pronto para revisão",
}

var bodies = map[string]*template.Template{
	TemplatePaymentConfirmed: template.Must(template.New(TemplatePaymentConfirmed).Parse(`
		<h2>Olá, {{.CustomerName}}!</h2>
		<p>Recebemos seu pagamento do pedido <b>#{{.OrderID}}</b>.</p>
		<p>O próximo passo é preencher o briefing do seu site. É rápido e faz toda a diferença no resultado.</p>
		<p>Qualquer dúvida, é só responder este e-mail.</p>`)),
	TemplateSiteInProgress: template.Must(template.New(TemplateSiteInProgress).Parse(`
		<h2>Olá, {{.CustomerName}}!</h2>
		<p>Recebemos seu briefing e a construção do site <b>#{{.OrderID}}</b> já começou.</p>
		<p>Avisaremos assim que estiver pronto para sua revisão.</p>`)),
	TemplateSiteReady: template.Must(template.New(TemplateSiteReady).Parse(`
		<h2>Olá, {{.CustomerName}}!</h2>
		<p>Seu site do pedido <b>#{{.OrderID}}</b> está pronto!</p>
		<p>Acesse: <a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
		<p>Revise com calma e nos diga se quer algum ajuste.</p>`)),
}

// Mailer sends transactional mail over SMTP. Sends run in a goroutine and
// never block or fail the pipeline.
type Mailer struct {
	cfg Config
}

var _ interfaces.Notifier = (*Mailer)(nil)

func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(templateName string, to string, data map[string]string) {
	if !m.cfg.Enabled {
		slog.Info("mail disabled, skipping send", "template", templateName, "to", to)
		return
	}
	go func() {
		if err := m.send(templateName, to, data); err != nil {
			slog.Error("err sending mail", "template", templateName, "to", to, "error", err)
		}
	}()
}

func (m *Mailer) send(templateName, to string, data map[string]string) error {
	tmpl, ok := bodies[templateName]
	if !ok {
		return fmt.Errorf("unknown mail template %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("err rendering template %s, %v", templateName, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subjects[templateName])
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("err sending via %s, %v", addr, err)
	}
	return nil
}
