// Package mail sends product change notifications by e-mail.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/unabstore/shop/pkg/config"
	"github.com/unabstore/shop/pkg/messaging/events"
	"gopkg.in/gomail.v2"
)

// Notifier reacts to a product change.
type Notifier interface {
	Notify(ctx context.Context, event events.ProductChangedEvent) error
}

// sender is the part of *gomail.Dialer the notifier uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

var subjects = map[events.ProductChangeKind]string{
	events.ProductCreated: "Producto agregado",
	events.ProductDeleted: "Producto eliminado",
}

var bodyTemplate = template.Must(template.New("product").Parse(`<h2>{{.Title}}</h2>
<p>Colección: <b>{{.Event.Collection}}</b></p>
<ul>
  <li>ID: {{.Event.ProductID}}</li>
  {{- if .Event.Name}}
  <li>Nombre: {{.Event.Name}}</li>
  {{- end}}
  {{- if .Event.Price}}
  <li>Precio: {{.Event.Price}}</li>
  {{- end}}
  <li>Fecha: {{.Event.At.Format "2006-01-02 15:04:05 MST"}}</li>
</ul>
`))

// MailNotifier e-mails every change to a fixed recipient.
type MailNotifier struct {
	sender sender
	from   string
	to     string
}

func NewMailNotifier(cfg config.MailConfig) *MailNotifier {
	return &MailNotifier{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
	}
}

func (n *MailNotifier) Notify(_ context.Context, event events.ProductChangedEvent) error {
	msg, err := n.message(event)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send e-mail: %w", err)
	}
	return nil
}

func (n *MailNotifier) message(event events.ProductChangedEvent) (*gomail.Message, error) {
	title := subjects[event.Kind]
	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		Title string
		Event events.ProductChangedEvent
	}{Title: title, Event: event})
	if err != nil {
		return nil, fmt.Errorf("failed to render e-mail: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", title)
	m.SetBody("text/html", body.String())
	return m, nil
}

// LogNotifier only logs changes. Used when mail is disabled.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, event events.ProductChangedEvent) error {
	n.Logger.InfoContext(ctx, "product change",
		slog.String("kind", string(event.Kind)),
		slog.String("product_id", event.ProductID),
		slog.String("collection", event.Collection))
	return nil
}
