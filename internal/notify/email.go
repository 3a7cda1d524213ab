package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/knadh/smtppool"

	"aisurvey/internal/config"
	"aisurvey/internal/repository"
	"aisurvey/internal/survey"
)

const submissionTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif">
<h2>{{.Title}}</h2>
<p>Azonosító: <b>{{.ID}}</b><br>Csoport: <b>{{.Group}}</b><br>Beküldve: {{.SubmittedAt}}</p>
<table border="1" cellpadding="4" cellspacing="0">
{{range .Cells}}<tr><td>{{.Column}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
</body>
</html>`

type cell struct {
	Column string
	Value  string
}

type submissionView struct {
	Title       string
	ID          string
	Group       string
	SubmittedAt string
	Cells       []cell
}

type sender interface {
	Send(e smtppool.Email) error
	Close()
}

// EmailNotifier mails every submission, with the row attached as CSV, through
// a pooled SMTP connection.
type EmailNotifier struct {
	pool    sender
	from    string
	to      []string
	subject string
	tmpl    *template.Template
}

// NewEmailNotifier connects the SMTP pool described by cfg.
func NewEmailNotifier(cfg config.NotifyConfig) (*EmailNotifier, error) {
	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	pool, err := smtppool.New(smtppool.Opt{
		Host:            cfg.Host,
		Port:            cfg.Port,
		MaxConns:        cfg.Connections,
		IdleTimeout:     cfg.SendTimeout,
		PoolWaitTimeout: cfg.SendTimeout,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			ServerName:         cfg.Host,
		},
		Auth: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up smtp pool: %w", err)
	}
	return newEmailNotifier(pool, cfg)
}

func newEmailNotifier(pool sender, cfg config.NotifyConfig) (*EmailNotifier, error) {
	tmpl, err := template.New("submission").Parse(submissionTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}
	return &EmailNotifier{
		pool:    pool,
		from:    cfg.From,
		to:      cfg.To,
		subject: cfg.Subject,
		tmpl:    tmpl,
	}, nil
}

func (n *EmailNotifier) Notify(ctx context.Context, rec survey.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := n.compose(rec)
	if err != nil {
		return err
	}
	if err := n.pool.Send(poolEmail(msg)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func (n *EmailNotifier) Close() {
	n.pool.Close()
}

func (n *EmailNotifier) compose(rec survey.Record) (*email.Email, error) {
	view := submissionView{
		Title:       n.subject,
		ID:          survey.FormatCell(rec.Get(survey.ColumnID)),
		Group:       survey.FormatCell(rec.Get(survey.ColumnGroup)),
		SubmittedAt: survey.FormatCell(rec.Get(survey.ColumnSubmittedAt)),
	}
	cells := rec.Cells()
	for i, c := range rec.Columns {
		view.Cells = append(view.Cells, cell{Column: c, Value: cells[i]})
	}

	var body bytes.Buffer
	if err := n.tmpl.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}

	var attachment bytes.Buffer
	row := &repository.Table{Columns: rec.Columns, Rows: [][]string{cells}}
	if err := repository.WriteCSV(&attachment, row); err != nil {
		return nil, err
	}

	e := email.NewEmail()
	e.From = n.from
	e.To = n.to
	e.Subject = fmt.Sprintf("%s – %s", n.subject, view.ID)
	e.HTML = body.Bytes()
	if _, err := e.Attach(&attachment, fmt.Sprintf("response-%s.csv", view.ID), "text/csv; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("failed to attach row: %w", err)
	}
	return e, nil
}

func poolEmail(e *email.Email) smtppool.Email {
	out := smtppool.Email{
		From:    e.From,
		To:      e.To,
		ReplyTo: e.ReplyTo,
		Sender:  e.Sender,
		Subject: e.Subject,
		Text:    e.Text,
		HTML:    e.HTML,
		Headers: e.Headers,
	}
	for _, a := range e.Attachments {
		out.Attachments = append(out.Attachments, smtppool.Attachment{
			Filename: a.Filename,
			Header:   a.Header,
			Content:  a.Content,
		})
	}
	return out
}
