package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sharebook_backend/internals/features/donations/book_users/model"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/apperror"
	"sharebook_backend/internals/helpers/dbtime"
)

// BookUserService runs the donation workflow: requests, winner selection,
// cancellation and shipping. All writes of an operation commit before any
// notification is handed to the Notifier.
type BookUserService struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

type Option func(*BookUserService)

// WithClock replaces the application clock, mainly for tests around the decision date.
func WithClock(now func() time.Time) Option {
	return func(s *BookUserService) { s.now = now }
}

func NewBookUserService(store Store, notifier Notifier, opts ...Option) *BookUserService {
	s := &BookUserService{store: store, notifier: notifier, now: dbtime.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CancelResult struct {
	Book           *bookModel.BookModel `json:"book"`
	AdminsNotified bool                 `json:"admins_notified"`
}

// RequestView is one request with the requester's donation history.
type RequestView struct {
	model.BookUserModel
	DonationHistory DonationHistory `json:"donation_history"`
}

// ========================== REQUEST BOOK ==========================

func (s *BookUserService) RequestBook(ctx context.Context, bookID, requesterID uuid.UUID, reason string) (*model.BookUserModel, error) {
	var (
		created model.BookUserModel
		book    *bookModel.BookModel
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return bookLookupError(err, bookID)
		}

		n, err := tx.CountRequests(ctx, RequestFilter{BookID: &bookID, UserID: &requesterID})
		if err != nil {
			return err
		}
		if n > 0 {
			return apperror.Conflict("Book already requested by this user")
		}

		total, err := tx.CountRequests(ctx, RequestFilter{BookID: &bookID})
		if err != nil {
			return err
		}

		created = model.BookUserModel{
			BookUserID:       uuid.New(),
			BookUserBookID:   bookID,
			BookUserUserID:   requesterID,
			BookUserStatus:   model.StatusWaitingAction,
			BookUserReason:   strings.TrimSpace(reason),
			BookUserNickName: model.NickName(total + 1),
		}
		if err := tx.InsertRequest(ctx, &created); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Wrap(apperror.KindConflict, err, "Book already requested by this user")
			}
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("[DONATION] book=%s requested by user=%s as %q", bookID, requesterID, created.BookUserNickName)
	s.notifyRequested(ctx, book, created)
	return &created, nil
}

func (s *BookUserService) notifyRequested(ctx context.Context, book *bookModel.BookModel, req model.BookUserModel) {
	requester, err := s.store.FindUser(ctx, req.BookUserUserID)
	if err != nil {
		logger.Warningf("[DONATION] request notices skipped, requester %s: %v", req.BookUserUserID, err)
		return
	}
	notice := RequestNotice{Book: *book, Request: req, Requester: *requester}

	if donor, err := s.store.FindUser(ctx, book.BookUserID); err == nil {
		notice.Donor = *donor
	} else {
		logger.Warningf("[DONATION] donor %s lookup: %v", book.BookUserID, err)
	}

	others, err := s.store.FindRequests(ctx, RequestFilter{
		BookID:   &book.BookID,
		Statuses: []model.Status{model.StatusWaitingAction},
		WithUser: true,
	})
	if err != nil {
		logger.Warningf("[DONATION] interested lookup for book=%s: %v", book.BookID, err)
	}
	for _, o := range others {
		if o.BookUserUserID != req.BookUserUserID && o.User != nil {
			notice.Interested = append(notice.Interested, *o.User)
		}
	}

	s.send("book requested", func() error { return s.notifier.BookRequested(ctx, notice) })
	if notice.Donor.ID != uuid.Nil {
		s.send("book requested to donor", func() error { return s.notifier.BookRequestedToDonor(ctx, notice) })
	}
	if len(notice.Interested) > 0 {
		s.send("book requested to interested", func() error { return s.notifier.BookRequestedToInterested(ctx, notice) })
	}
}

// ========================== SELECT WINNER ==========================

func (s *BookUserService) SelectWinner(ctx context.Context, bookID, winnerUserID uuid.UUID, note string) (*model.BookUserModel, error) {
	var (
		book   *bookModel.BookModel
		winner model.BookUserModel
		losers []model.BookUserModel
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return bookLookupError(err, bookID)
		}
		if !b.MayChooseWinner(s.now()) {
			return apperror.BadRequest("The winner can only be chosen from the decision date on")
		}

		var notePtr *string
		if n := strings.TrimSpace(note); n != "" {
			notePtr = &n
		}
		changed, err := tx.TransitionRequest(ctx, bookID, winnerUserID, model.StatusWaitingAction, model.StatusDonated, notePtr)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Wrap(apperror.KindConflict, err, "Book already has a winner")
			}
			return err
		}
		if changed == 0 {
			return apperror.DomainInvariant("No waiting request from this user for the book")
		}

		losers, err = s.denyWaiting(ctx, tx, bookID)
		if err != nil {
			return err
		}

		b.BookHidden = true
		if err := tx.SaveBook(ctx, b); err != nil {
			return err
		}

		rows, err := tx.FindRequests(ctx, RequestFilter{BookID: &bookID, UserID: &winnerUserID, WithAddress: true})
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			return apperror.DomainInvariant("Winner request vanished during selection")
		}
		winner = rows[0]
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("[DONATION] book=%s donated to user=%s, %d denied", bookID, winnerUserID, len(losers))
	s.notifyWinner(ctx, book, winner, losers)
	return &winner, nil
}

func (s *BookUserService) notifyWinner(ctx context.Context, book *bookModel.BookModel, winner model.BookUserModel, losers []model.BookUserModel) {
	notice := WinnerNotice{Book: *book, Winner: winner, Losers: losers}
	if donor, err := s.store.FindUser(ctx, book.BookUserID); err == nil {
		notice.Donor = *donor
	} else {
		logger.Warningf("[DONATION] donor %s lookup: %v", book.BookUserID, err)
	}
	if book.BookFacilitatorID != nil {
		if f, err := s.store.FindUser(ctx, *book.BookFacilitatorID); err == nil {
			notice.Facilitator = f
		}
	}

	if winner.User != nil {
		s.send("winner chosen", func() error { return s.notifier.WinnerChosen(ctx, notice) })
	}
	if len(losers) > 0 {
		s.send("losers declined", func() error { return s.notifier.LosersDeclined(ctx, notice) })
	}
	if notice.Donor.ID != uuid.Nil {
		s.send("winner chosen to donor", func() error { return s.notifier.WinnerChosenToDonor(ctx, notice) })
	}
}

// ========================== CANCEL BOOK ==========================

// CancelBook withdraws a book. Requesters are notified through the queue; the
// admin notice is awaited and its outcome reported in CancelResult.
func (s *BookUserService) CancelBook(ctx context.Context, bookID uuid.UUID, isAdmin bool) (*CancelResult, error) {
	var (
		book     *bookModel.BookModel
		affected []model.BookUserModel
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return bookLookupError(err, bookID)
		}

		n, err := tx.CountRequests(ctx, RequestFilter{BookID: &bookID})
		if err != nil {
			return err
		}
		if n > 0 && !isAdmin {
			return apperror.Conflict("This book already has interested users")
		}

		b.Cancel()
		affected, err = s.denyWaiting(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if err := tx.SaveBook(ctx, b); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("[DONATION] book=%s canceled (admin=%t), %d requests denied", bookID, isAdmin, len(affected))

	notice := CancelNotice{Book: *book}
	for _, r := range affected {
		if r.User != nil {
			notice.Requesters = append(notice.Requesters, *r.User)
		}
	}
	if len(notice.Requesters) > 0 {
		s.send("book canceled to requesters", func() error { return s.notifier.BookCanceledToRequesters(ctx, notice) })
	}

	if s.notifier == nil {
		return &CancelResult{Book: book}, nil
	}
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		logger.Errorf("[DONATION] admin lookup for cancel notice of book=%s: %v", bookID, err)
		return &CancelResult{Book: book}, nil
	}
	notice.Admins = admins

	res := &CancelResult{Book: book, AdminsNotified: true}
	if err := s.notifier.BookCanceledToAdmins(ctx, notice); err != nil {
		logger.Errorf("[DONATION] cancel notice to admins for book=%s failed: %v", bookID, err)
		res.AdminsNotified = false
	}
	return res, nil
}

// ========================== DENY WAITING ==========================

// DenyWaitingRequests denies every waiting request of the book. Calling it
// again is a no-op.
func (s *BookUserService) DenyWaitingRequests(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var denied int64
	err := s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.LockBook(ctx, bookID); err != nil {
			return bookLookupError(err, bookID)
		}
		rows, err := s.denyWaiting(ctx, tx, bookID)
		denied = int64(len(rows))
		return err
	})
	return denied, err
}

// denyWaiting returns the requests it denied, with their users, as they were before the update.
func (s *BookUserService) denyWaiting(ctx context.Context, tx Store, bookID uuid.UUID) ([]model.BookUserModel, error) {
	waiting, err := tx.FindRequests(ctx, RequestFilter{
		BookID:   &bookID,
		Statuses: []model.Status{model.StatusWaitingAction},
		WithUser: true,
	})
	if err != nil {
		return nil, err
	}
	if len(waiting) == 0 {
		return nil, nil
	}
	n, err := tx.DenyWaiting(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if n != int64(len(waiting)) {
		return nil, apperror.DomainInvariant("Waiting requests changed while denying them")
	}
	for i := range waiting {
		waiting[i].BookUserStatus = model.StatusDenied
	}
	return waiting, nil
}

// ========================== TRACKING NUMBER ==========================

func (s *BookUserService) InformTrackingNumber(ctx context.Context, bookID uuid.UUID, trackingNumber string) (*bookModel.BookModel, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, apperror.BadRequest("Tracking number is required")
	}

	var (
		book   *bookModel.BookModel
		winner model.BookUserModel
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return bookLookupError(err, bookID)
		}
		rows, err := tx.FindRequests(ctx, RequestFilter{
			BookID:   &bookID,
			Statuses: []model.Status{model.StatusDonated},
			WithUser: true,
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apperror.DomainInvariant("Book has no winner yet")
		}
		winner = rows[0]

		b.BookTrackingNumber = &trackingNumber
		if err := tx.SaveBook(ctx, b); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("[DONATION] book=%s tracking number informed", bookID)
	if winner.User != nil {
		notice := TrackingNotice{Book: *book, Winner: *winner.User, TrackingNumber: trackingNumber}
		s.send("tracking number informed", func() error { return s.notifier.TrackingNumberInformed(ctx, notice) })
	}
	return book, nil
}

// ========================== QUERIES ==========================

// Book loads a book for callers that check who may act on it.
func (s *BookUserService) Book(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	b, err := s.store.FindBook(ctx, bookID)
	if err != nil {
		return nil, bookLookupError(err, bookID)
	}
	return b, nil
}

// ListGrantees returns the users still waiting on the book, credentials removed.
func (s *BookUserService) ListGrantees(ctx context.Context, bookID uuid.UUID) ([]userModel.UserModel, error) {
	if _, err := s.store.FindBook(ctx, bookID); err != nil {
		return nil, bookLookupError(err, bookID)
	}
	rows, err := s.store.FindRequests(ctx, RequestFilter{
		BookID:   &bookID,
		Statuses: []model.Status{model.StatusWaitingAction},
		WithUser: true,
	})
	if err != nil {
		return nil, err
	}
	users := make([]userModel.UserModel, 0, len(rows))
	for _, r := range rows {
		if r.User != nil {
			users = append(users, *r.User.Cleanup())
		}
	}
	return users, nil
}

// ListRequests returns every request of the book, oldest first, with the
// requester's address and donation history.
func (s *BookUserService) ListRequests(ctx context.Context, bookID uuid.UUID) ([]RequestView, error) {
	if _, err := s.store.FindBook(ctx, bookID); err != nil {
		return nil, bookLookupError(err, bookID)
	}
	rows, err := s.store.FindRequests(ctx, RequestFilter{BookID: &bookID, WithAddress: true})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.BookUserUserID)
	}
	history := map[uuid.UUID]DonationHistory{}
	if len(ids) > 0 {
		if history, err = s.store.DonationHistory(ctx, ids); err != nil {
			return nil, err
		}
	}

	out := make([]RequestView, 0, len(rows))
	for _, r := range rows {
		r.User.Cleanup()
		out = append(out, RequestView{BookUserModel: r, DonationHistory: history[r.BookUserUserID]})
	}
	return out, nil
}

// ListRequestsByUser pages through the user's own requests, newest first.
func (s *BookUserService) ListRequestsByUser(ctx context.Context, userID uuid.UUID, p helper.Paging) ([]model.BookUserModel, int64, error) {
	f := RequestFilter{UserID: &userID}
	total, err := s.store.CountRequests(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	f.WithBook = true
	f.NewestFirst = true
	f.Offset = p.Offset
	f.Limit = p.Limit
	rows, err := s.store.FindRequests(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ========================== HELPERS ==========================

// send runs one notifier call; failures never reach the caller.
func (s *BookUserService) send(event string, fn func() error) {
	if s.notifier == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warningf("[DONATION] notification %q failed: %v", event, err)
	}
}

func bookLookupError(err error, bookID uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Book %s not found", bookID)
	}
	return err
}
