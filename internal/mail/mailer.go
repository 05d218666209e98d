// Package mail sends the monthly digest emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"

	"hearth/internal/core"
)

var digestTemplate = template.Must(template.New("digest").Parse(`Hi,

here is the {{.Month}} {{.Year}} summary for {{.Family}}.

Income:   {{.Income}}
Expenses: {{.Expense}}
Net:      {{.Net}}
{{if .Categories}}
Expenses by category:
{{- range .Categories}}
  {{.Name}}: {{.Amount}}
{{- end}}
{{end}}{{if .Wallets}}
Wallet balances:
{{- range .Wallets}}
  {{.Name}} ({{.Currency}}): {{.Balance}}
{{- end}}
{{end}}`))

type digestData struct {
	Family     string
	Month      time.Month
	Year       int
	Income     string
	Expense    string
	Net        string
	Categories []digestCategory
	Wallets    []digestWallet
}

type digestCategory struct {
	Name   string
	Amount string
}

type digestWallet struct {
	Name     string
	Currency string
	Balance  string
}

// Mailer delivers digests through a single SMTP account.
type Mailer struct {
	client *mail.Client
	from   string
}

func NewMailer(host string, port int, username, password, from string) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(30 * time.Second),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: from}, nil
}

// SendDigest mails a family's month summary to every recipient.
func (m *Mailer) SendDigest(ctx context.Context, recipients []string, family core.Family, summary core.MonthSummary) error {
	if len(recipients) == 0 {
		return nil
	}

	body, err := RenderDigest(family, summary)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s: your %s %d summary", family.Name, time.Month(summary.Month), summary.Year)

	msgs := make([]*mail.Msg, 0, len(recipients))
	for _, to := range recipients {
		msg := mail.NewMsg()
		if err := msg.From(m.from); err != nil {
			return fmt.Errorf("set sender: %w", err)
		}
		if err := msg.To(to); err != nil {
			return fmt.Errorf("set recipient %s: %w", to, err)
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextPlain, body)
		msgs = append(msgs, msg)
	}

	if err := m.client.DialAndSendWithContext(ctx, msgs...); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

func (m *Mailer) Close() error {
	return m.client.Close()
}

// RenderDigest produces the plain-text digest body.
func RenderDigest(family core.Family, summary core.MonthSummary) (string, error) {
	data := digestData{
		Family:  family.Name,
		Month:   time.Month(summary.Month),
		Year:    summary.Year,
		Income:  summary.IncomeTotal.Format(),
		Expense: summary.ExpenseTotal.Format(),
		Net:     summary.Net().Format(),
	}
	for _, ca := range summary.ByCategory {
		data.Categories = append(data.Categories, digestCategory{Name: ca.Name, Amount: ca.Amount.Format()})
	}
	for _, wb := range summary.Wallets {
		data.Wallets = append(data.Wallets, digestWallet{Name: wb.Name, Currency: wb.Currency, Balance: wb.Balance.Format()})
	}

	var sb strings.Builder
	if err := digestTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return sb.String(), nil
}
