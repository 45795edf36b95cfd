// Package mailer turns workflow events into e-mail messages.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/google/logger"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/donations/book_users/service"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	"sharebook_backend/internals/features/notifications/dispatcher"
	userModel "sharebook_backend/internals/features/users/user/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TplBookRequested           = "book_requested"
	TplBookRequestedDonor      = "book_requested_donor"
	TplBookRequestedInterested = "book_requested_interested"
	TplWinnerChosen            = "winner_chosen"
	TplDonationDeclined        = "donation_declined"
	TplWinnerChosenDonor       = "winner_chosen_donor"
	TplBookCanceledAdmins      = "book_canceled_admins"
	TplDonationCanceled        = "donation_canceled"
	TplTrackingNumberInformed  = "tracking_number_informed"
	TplChooseDateReminder      = "choose_date_reminder"
)

var subjects = map[string]string{
	TplBookRequested:           "Pedido de livro recebido",
	TplBookRequestedDonor:      "Seu livro recebeu um pedido",
	TplBookRequestedInterested: "Novo interessado no livro que você pediu",
	TplWinnerChosen:            "Você ganhou um livro!",
	TplDonationDeclined:        "Resultado da doação",
	TplWinnerChosenDonor:       "Notificação de escolha de ganhador",
	TplBookCanceledAdmins:      "Doação cancelada",
	TplDonationCanceled:        "Doação cancelada",
	TplTrackingNumberInformed:  "Seu livro foi enviado",
	TplChooseDateReminder:      "Hoje é dia de escolher o ganhador",
}

// Queue is the part of the dispatcher the mailer needs.
type Queue interface {
	Enqueue(msgs ...dispatcher.Message) error
	Deliver(ctx context.Context, msgs ...dispatcher.Message) error
}

type Mailer struct {
	queue     Queue
	templates *template.Template
	baseURL   string
}

var _ service.Notifier = (*Mailer)(nil)

func New(queue Queue, baseURL string) (*Mailer, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Mailer{queue: queue, templates: tpl, baseURL: baseURL}, nil
}

// render runs the content template, then wraps it in layout.html.
func (m *Mailer) render(name string, data map[string]any) (string, error) {
	data["BaseURL"] = m.baseURL

	var content bytes.Buffer
	if err := m.templates.ExecuteTemplate(&content, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	var out bytes.Buffer
	err := m.templates.ExecuteTemplate(&out, "layout.html", map[string]any{
		"Title":       subjects[name],
		"BaseURL":     m.baseURL,
		"PageContent": template.HTML(content.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render layout for %s: %w", name, err)
	}
	return out.String(), nil
}

// message renders one e-mail for one recipient.
func (m *Mailer) message(name string, to *userModel.UserModel, book bookModel.BookModel, data map[string]any) (dispatcher.Message, error) {
	if data == nil {
		data = map[string]any{}
	}
	data["RecipientName"] = to.Name
	data["Book"] = book
	data["BookURL"] = m.bookURL(book)

	html, err := m.render(name, data)
	if err != nil {
		return dispatcher.Message{}, err
	}
	return dispatcher.Message{
		To:       to.Email,
		Subject:  subjects[name],
		HTML:     html,
		Template: name,
		Meta: map[string]any{
			"book_id": book.BookID.String(),
			"user_id": to.ID.String(),
		},
	}, nil
}

func (m *Mailer) bookURL(book bookModel.BookModel) string {
	return fmt.Sprintf("%s/livro/%s", m.baseURL, book.BookSlug)
}

// optedIn filters broadcast recipients by their e-mail preference.
func optedIn(u *userModel.UserModel) bool {
	if u == nil || u.Email == "" {
		return false
	}
	return u.AllowSendingEmail || u.Role == constants.RoleAdmin
}

func (m *Mailer) enqueue(msgs ...dispatcher.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return m.queue.Enqueue(msgs...)
}

/* ====================== REQUEST ====================== */

func (m *Mailer) BookRequested(ctx context.Context, n service.RequestNotice) error {
	msg, err := m.message(TplBookRequested, &n.Requester, n.Book, map[string]any{
		"NickName": n.Request.BookUserNickName,
	})
	if err != nil {
		return err
	}
	return m.enqueue(msg)
}

func (m *Mailer) BookRequestedToDonor(ctx context.Context, n service.RequestNotice) error {
	data := map[string]any{
		"NickName": n.Request.BookUserNickName,
		"Reason":   n.Request.BookUserReason,
	}
	if n.Book.BookChooseDate != nil {
		data["ChooseDate"] = n.Book.BookChooseDate.Format("02/01/2006")
	}
	msg, err := m.message(TplBookRequestedDonor, &n.Donor, n.Book, data)
	if err != nil {
		return err
	}
	return m.enqueue(msg)
}

func (m *Mailer) BookRequestedToInterested(ctx context.Context, n service.RequestNotice) error {
	msgs := make([]dispatcher.Message, 0, len(n.Interested))
	for i := range n.Interested {
		u := &n.Interested[i]
		if !optedIn(u) {
			continue
		}
		msg, err := m.message(TplBookRequestedInterested, u, n.Book, map[string]any{
			"Total": len(n.Interested) + 1,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return m.enqueue(msgs...)
}

/* ====================== WINNER ====================== */

func (m *Mailer) WinnerChosen(ctx context.Context, n service.WinnerNotice) error {
	if n.Winner.User == nil {
		return fmt.Errorf("winner %s has no user loaded", n.Winner.BookUserUserID)
	}
	msg, err := m.message(TplWinnerChosen, n.Winner.User, n.Book, nil)
	if err != nil {
		return err
	}
	return m.enqueue(msg)
}

func (m *Mailer) LosersDeclined(ctx context.Context, n service.WinnerNotice) error {
	msgs := make([]dispatcher.Message, 0, len(n.Losers))
	for _, l := range n.Losers {
		if !optedIn(l.User) {
			continue
		}
		msg, err := m.message(TplDonationDeclined, l.User, n.Book, nil)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return m.enqueue(msgs...)
}

func (m *Mailer) WinnerChosenToDonor(ctx context.Context, n service.WinnerNotice) error {
	data := map[string]any{}
	if w := n.Winner.User; w != nil {
		data["WinnerName"] = w.Name
		data["WinnerEmail"] = w.Email
		data["WinnerPhone"] = w.Phone
		if w.Address != nil {
			data["WinnerAddress"] = w.Address.OneLine()
		}
	}
	if n.Winner.BookUserNote != nil {
		data["Note"] = *n.Winner.BookUserNote
	}
	msg, err := m.message(TplWinnerChosenDonor, &n.Donor, n.Book, data)
	if err != nil {
		return err
	}
	if n.Facilitator != nil && n.Facilitator.Email != "" {
		msg.Cc = []string{n.Facilitator.Email}
	}
	return m.enqueue(msg)
}

/* ====================== CANCEL ====================== */

// BookCanceledToAdmins is delivered synchronously; the caller reports the outcome.
func (m *Mailer) BookCanceledToAdmins(ctx context.Context, n service.CancelNotice) error {
	if len(n.Admins) == 0 {
		return fmt.Errorf("no administrators to notify")
	}
	msgs := make([]dispatcher.Message, 0, len(n.Admins))
	for i := range n.Admins {
		msg, err := m.message(TplBookCanceledAdmins, &n.Admins[i], n.Book, map[string]any{
			"Total": len(n.Requesters),
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := m.queue.Deliver(ctx, msgs...); err != nil {
		return err
	}
	logger.Infof("[MAIL] cancel notice for book %s delivered to %s", n.Book.BookID, dispatcher.Recipients(msgs))
	return nil
}

func (m *Mailer) BookCanceledToRequesters(ctx context.Context, n service.CancelNotice) error {
	msgs := make([]dispatcher.Message, 0, len(n.Requesters))
	for i := range n.Requesters {
		u := &n.Requesters[i]
		if !optedIn(u) {
			continue
		}
		msg, err := m.message(TplDonationCanceled, u, n.Book, nil)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return m.enqueue(msgs...)
}

/* ====================== SHIPPING ====================== */

func (m *Mailer) TrackingNumberInformed(ctx context.Context, n service.TrackingNotice) error {
	msg, err := m.message(TplTrackingNumberInformed, &n.Winner, n.Book, map[string]any{
		"TrackingNumber": n.TrackingNumber,
	})
	if err != nil {
		return err
	}
	return m.enqueue(msg)
}

/* ====================== REMINDER ====================== */

// ChooseDateReminder tells the donor that the winner may be chosen today.
func (m *Mailer) ChooseDateReminder(ctx context.Context, book bookModel.BookModel, donor userModel.UserModel, waiting int64) error {
	msg, err := m.message(TplChooseDateReminder, &donor, book, map[string]any{
		"Total": waiting,
	})
	if err != nil {
		return err
	}
	return m.enqueue(msg)
}
