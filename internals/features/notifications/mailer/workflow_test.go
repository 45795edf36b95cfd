package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	bookUserModel "sharebook_backend/internals/features/donations/book_users/model"
	"sharebook_backend/internals/features/donations/book_users/service"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
)

// donationStore holds one book and its requests. Preloads follow the gorm
// repository: WithUser loads the user only, WithAddress also loads the address.
type donationStore struct {
	book     bookModel.BookModel
	users    map[uuid.UUID]userModel.UserModel
	requests []bookUserModel.BookUserModel
}

func (s *donationStore) Transaction(ctx context.Context, fn func(tx service.Store) error) error {
	return fn(s)
}

func (s *donationStore) FindBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	if bookID != s.book.BookID {
		return nil, gorm.ErrRecordNotFound
	}
	b := s.book
	return &b, nil
}

func (s *donationStore) LockBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	return s.FindBook(ctx, bookID)
}

func (s *donationStore) SaveBook(ctx context.Context, book *bookModel.BookModel) error {
	s.book = *book
	return nil
}

func (s *donationStore) InsertRequest(ctx context.Context, req *bookUserModel.BookUserModel) error {
	s.requests = append(s.requests, *req)
	return nil
}

func (s *donationStore) matches(r bookUserModel.BookUserModel, f service.RequestFilter) bool {
	if f.BookID != nil && r.BookUserBookID != *f.BookID {
		return false
	}
	if f.UserID != nil && r.BookUserUserID != *f.UserID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if r.BookUserStatus == st {
			return true
		}
	}
	return false
}

func (s *donationStore) FindRequests(ctx context.Context, f service.RequestFilter) ([]bookUserModel.BookUserModel, error) {
	var out []bookUserModel.BookUserModel
	for _, r := range s.requests {
		if !s.matches(r, f) {
			continue
		}
		if f.WithUser || f.WithAddress {
			u := s.users[r.BookUserUserID]
			if !f.WithAddress {
				u.Address = nil
			}
			r.User = &u
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *donationStore) CountRequests(ctx context.Context, f service.RequestFilter) (int64, error) {
	rows, _ := s.FindRequests(ctx, f)
	return int64(len(rows)), nil
}

func (s *donationStore) TransitionRequest(ctx context.Context, bookID, userID uuid.UUID, from, to bookUserModel.Status, note *string) (int64, error) {
	for i, r := range s.requests {
		if r.BookUserBookID == bookID && r.BookUserUserID == userID && r.BookUserStatus == from {
			s.requests[i].BookUserStatus = to
			s.requests[i].BookUserNote = note
			return 1, nil
		}
	}
	return 0, nil
}

func (s *donationStore) DenyWaiting(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var n int64
	for i, r := range s.requests {
		if r.BookUserBookID == bookID && r.BookUserStatus == bookUserModel.StatusWaitingAction {
			s.requests[i].BookUserStatus = bookUserModel.StatusDenied
			n++
		}
	}
	return n, nil
}

func (s *donationStore) FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *donationStore) ListAdmins(ctx context.Context) ([]userModel.UserModel, error) {
	return nil, nil
}

func (s *donationStore) DonationHistory(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]service.DonationHistory, error) {
	return map[uuid.UUID]service.DonationHistory{}, nil
}

func TestSelectWinnerSendsShippingDataToDonor(t *testing.T) {
	donor := user("Bia", "bia@example.com", true)
	winner := user("Caio", "caio@example.com", true)
	winner.Phone = "+55 11 98888-7777"
	winner.Address = &userModel.AddressModel{AddressStreet: "Rua das Flores", AddressNumber: "42", AddressCity: "Campinas"}
	loser := user("Duda", "duda@example.com", true)

	yesterday := time.Now().AddDate(0, 0, -1)
	b := book()
	b.BookApproved = true
	b.BookUserID = donor.ID
	b.BookChooseDate = &yesterday

	store := &donationStore{
		book:  b,
		users: map[uuid.UUID]userModel.UserModel{donor.ID: donor, winner.ID: winner, loser.ID: loser},
		requests: []bookUserModel.BookUserModel{
			{BookUserID: uuid.New(), BookUserBookID: b.BookID, BookUserUserID: winner.ID, BookUserStatus: bookUserModel.StatusWaitingAction, BookUserNickName: "Interessado 1"},
			{BookUserID: uuid.New(), BookUserBookID: b.BookID, BookUserUserID: loser.ID, BookUserStatus: bookUserModel.StatusWaitingAction, BookUserNickName: "Interessado 2"},
		},
	}
	m, q := newMailer(t)
	svc := service.NewBookUserService(store, m)

	_, err := svc.SelectWinner(context.Background(), b.BookID, winner.ID, "entregar no período da tarde")
	require.NoError(t, err)

	var donorMsg, winnerMsg, loserMsg bool
	for _, msg := range q.queued {
		switch msg.Template {
		case TplWinnerChosenDonor:
			donorMsg = true
			assert.Equal(t, "bia@example.com", msg.To)
			assert.Contains(t, msg.HTML, "Caio")
			assert.Contains(t, msg.HTML, "11 98888-7777")
			assert.Contains(t, msg.HTML, "Rua das Flores, 42")
			assert.Contains(t, msg.HTML, "Campinas")
			assert.Contains(t, msg.HTML, "entregar no período da tarde")
		case TplWinnerChosen:
			winnerMsg = true
			assert.Equal(t, "caio@example.com", msg.To)
		case TplDonationDeclined:
			loserMsg = true
			assert.Equal(t, "duda@example.com", msg.To)
		}
	}
	assert.True(t, donorMsg, "donor e-mail")
	assert.True(t, winnerMsg, "winner e-mail")
	assert.True(t, loserMsg, "declined e-mail")
}
