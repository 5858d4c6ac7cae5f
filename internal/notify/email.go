package notify

import (
	"bytes"
	"context"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
	"time"
)

const (
	defaultSubject = "Your payment verification code"

	defaultTextTmpl = `Hello,

A payment to this account needs confirmation because the SIM card for {{.Phone}} changed recently.

Verification code: {{.Code}}
{{if .Link}}Or open: {{.Link}}
{{end}}
The code expires in {{.TTL}}. If you did not request this payment, contact your union office.
`

	defaultHTMLTmpl = `<p>Hello,</p>
<p>A payment to this account needs confirmation because the SIM card for <b>{{.Phone}}</b> changed recently.</p>
<p style="font-size:20px;letter-spacing:4px"><b>{{.Code}}</b></p>
{{if .Link}}<p><a href="{{.Link}}">Confirm the payment</a></p>{{end}}
<p>The code expires in {{.TTL}}. If you did not request this payment, contact your union office.</p>
`
)

// emailVars son las variables de los templates.
type emailVars struct {
	Phone string
	Code  string
	Link  string
	TTL   string
}

// EmailNotifier renderiza y envía el código por email.
type EmailNotifier struct {
	sender  Sender
	subject string
	html    *htemplate.Template
	text    *ttemplate.Template
	now     func() time.Time
}

func NewEmailNotifier(sender Sender, subject string) (*EmailNotifier, error) {
	if subject == "" {
		subject = defaultSubject
	}
	h, err := htemplate.New("challenge_html").Parse(defaultHTMLTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse challenge HTML template: %w", err)
	}
	t, err := ttemplate.New("challenge_text").Parse(defaultTextTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse challenge text template: %w", err)
	}
	return &EmailNotifier{sender: sender, subject: subject, html: h, text: t, now: time.Now}, nil
}

func (n *EmailNotifier) Channel() string { return "email" }

func (n *EmailNotifier) Deliver(ctx context.Context, d Delivery) error {
	vars := emailVars{
		Phone: maskedPhone(d.Challenge.PhoneNumber),
		Code:  d.Secret,
		Link:  d.Link,
		TTL:   remaining(d.Challenge.ExpiresAt.Sub(n.now())),
	}
	var hb, tb bytes.Buffer
	if err := n.html.Execute(&hb, vars); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := n.text.Execute(&tb, vars); err != nil {
		return fmt.Errorf("render text: %w", err)
	}
	return n.sender.Send(ctx, d.Destination, n.subject, hb.String(), tb.String())
}

func remaining(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
