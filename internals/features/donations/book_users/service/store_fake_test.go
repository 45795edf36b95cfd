package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/donations/book_users/model"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
)

// memStore is an in-memory Store enforcing the same unique rules as the
// database indexes. Transactions are serialised and rolled back on error.
type memStore struct {
	mu    *sync.Mutex
	state *memState
	fail  map[string]error
	tick  *time.Time
}

type memState struct {
	books    map[uuid.UUID]bookModel.BookModel
	users    map[uuid.UUID]userModel.UserModel
	requests []model.BookUserModel
}

func newMemStore() *memStore {
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return &memStore{
		mu: &sync.Mutex{},
		state: &memState{
			books: map[uuid.UUID]bookModel.BookModel{},
			users: map[uuid.UUID]userModel.UserModel{},
		},
		fail: map[string]error{},
		tick: &t,
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		books:    make(map[uuid.UUID]bookModel.BookModel, len(s.books)),
		users:    make(map[uuid.UUID]userModel.UserModel, len(s.users)),
		requests: append([]model.BookUserModel(nil), s.requests...),
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// ---- seeding ----

func (m *memStore) addUser(name, role string) userModel.UserModel {
	u := userModel.UserModel{
		ID:       uuid.New(),
		Name:     name,
		Email:    name + "@example.com",
		Password: "hash-" + name,
		Phone:    "+55 11 9999-0000",
		Role:     role,
		IsActive: true,
		Address:  &userModel.AddressModel{AddressStreet: "Rua " + name, AddressNumber: "1", AddressCity: "São Paulo"},
	}
	m.state.users[u.ID] = u
	return u
}

func (m *memStore) addBook(donor uuid.UUID, chooseDate *time.Time) bookModel.BookModel {
	b := bookModel.BookModel{
		BookID:         uuid.New(),
		BookTitle:      "Dom Casmurro",
		BookAuthor:     "Machado de Assis",
		BookSlug:       "dom-casmurro",
		BookApproved:   true,
		BookChooseDate: chooseDate,
		BookUserID:     donor,
	}
	m.state.books[b.BookID] = b
	return b
}

func (m *memStore) book(id uuid.UUID) bookModel.BookModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.books[id]
}

func (m *memStore) request(bookID, userID uuid.UUID) (model.BookUserModel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.requests {
		if r.BookUserBookID == bookID && r.BookUserUserID == userID {
			return r, true
		}
	}
	return model.BookUserModel{}, false
}

func (m *memStore) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.requests)
}

// ---- Store ----

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memStore{mu: &sync.Mutex{}, state: m.state.clone(), fail: m.fail, tick: m.tick}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) failed(op string) error {
	if err, ok := m.fail[op]; ok {
		return err
	}
	return nil
}

func (m *memStore) FindBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findBook(bookID)
}

func (m *memStore) findBook(bookID uuid.UUID) (*bookModel.BookModel, error) {
	b, ok := m.state.books[bookID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (m *memStore) LockBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	return m.FindBook(ctx, bookID)
}

func (m *memStore) SaveBook(ctx context.Context, book *bookModel.BookModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("SaveBook"); err != nil {
		return err
	}
	m.state.books[book.BookID] = *book
	return nil
}

func (m *memStore) InsertRequest(ctx context.Context, req *model.BookUserModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("InsertRequest"); err != nil {
		return err
	}
	for _, r := range m.state.requests {
		if r.BookUserBookID != req.BookUserBookID {
			continue
		}
		if r.BookUserUserID == req.BookUserUserID {
			return fmt.Errorf("%w: uq_book_users_book_user", gorm.ErrDuplicatedKey)
		}
		if r.BookUserNickName == req.BookUserNickName {
			return fmt.Errorf("%w: uq_book_users_book_nickname", gorm.ErrDuplicatedKey)
		}
	}
	*m.tick = m.tick.Add(time.Minute)
	req.BookUserCreatedAt = *m.tick
	req.BookUserUpdatedAt = *m.tick
	stored := *req
	stored.User, stored.Book = nil, nil
	m.state.requests = append(m.state.requests, stored)
	return nil
}

func (m *memStore) match(r model.BookUserModel, f RequestFilter) bool {
	if f.BookID != nil && r.BookUserBookID != *f.BookID {
		return false
	}
	if f.UserID != nil && r.BookUserUserID != *f.UserID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, st := range f.Statuses {
			if r.BookUserStatus == st {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (m *memStore) FindRequests(ctx context.Context, f RequestFilter) ([]model.BookUserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("FindRequests"); err != nil {
		return nil, err
	}
	out := []model.BookUserModel{}
	for _, r := range m.state.requests {
		if !m.match(r, f) {
			continue
		}
		if f.WithUser || f.WithAddress {
			u := m.state.users[r.BookUserUserID]
			if !f.WithAddress {
				u.Address = nil
			} else if u.Address != nil {
				a := *u.Address
				u.Address = &a
			}
			r.User = &u
		}
		if f.WithBook {
			b := m.state.books[r.BookUserBookID]
			r.Book = &b
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.NewestFirst {
			return out[i].BookUserCreatedAt.After(out[j].BookUserCreatedAt)
		}
		return out[i].BookUserCreatedAt.Before(out[j].BookUserCreatedAt)
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []model.BookUserModel{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) CountRequests(ctx context.Context, f RequestFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.state.requests {
		if m.match(r, f) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) TransitionRequest(ctx context.Context, bookID, userID uuid.UUID, from, to model.Status, note *string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, r := range m.state.requests {
		if r.BookUserBookID == bookID && r.BookUserUserID == userID && r.BookUserStatus == from {
			idx = i
		}
	}
	if idx < 0 {
		return 0, nil
	}
	if to == model.StatusDonated {
		for _, r := range m.state.requests {
			if r.BookUserBookID == bookID && r.BookUserStatus == model.StatusDonated {
				return 0, fmt.Errorf("%w: uq_book_users_one_donated", gorm.ErrDuplicatedKey)
			}
		}
	}
	m.state.requests[idx].BookUserStatus = to
	m.state.requests[idx].BookUserNote = note
	return 1, nil
}

func (m *memStore) DenyWaiting(ctx context.Context, bookID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("DenyWaiting"); err != nil {
		return 0, err
	}
	var n int64
	for i, r := range m.state.requests {
		if r.BookUserBookID == bookID && r.BookUserStatus == model.StatusWaitingAction {
			m.state.requests[i].BookUserStatus = model.StatusDenied
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (m *memStore) ListAdmins(ctx context.Context) ([]userModel.UserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("ListAdmins"); err != nil {
		return nil, err
	}
	out := []userModel.UserModel{}
	for _, u := range m.state.users {
		if u.Role == constants.RoleAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) DonationHistory(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]DonationHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]DonationHistory, len(userIDs))
	for _, id := range userIDs {
		var h DonationHistory
		for _, r := range m.state.requests {
			if r.BookUserUserID != id {
				continue
			}
			h.RequestsMade++
			if r.BookUserStatus == model.StatusDonated {
				h.BooksReceived++
			}
		}
		for _, b := range m.state.books {
			if b.BookUserID == id && b.BookHidden && !b.BookCanceled {
				h.BooksDonated++
			}
		}
		out[id] = h
	}
	return out, nil
}

// ---- Notifier ----

type call struct {
	event  string
	notice any
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{fail: map[string]error{}}
}

func (n *recordingNotifier) record(event string, notice any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call{event: event, notice: notice})
	return n.fail[event]
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.event)
	}
	return out
}

func (n *recordingNotifier) count(event string) int {
	c := 0
	for _, e := range n.events() {
		if e == event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) last(event string) any {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.calls) - 1; i >= 0; i-- {
		if n.calls[i].event == event {
			return n.calls[i].notice
		}
	}
	return nil
}

func (n *recordingNotifier) BookRequested(ctx context.Context, r RequestNotice) error {
	return n.record("BookRequested", r)
}
func (n *recordingNotifier) BookRequestedToDonor(ctx context.Context, r RequestNotice) error {
	return n.record("BookRequestedToDonor", r)
}
func (n *recordingNotifier) BookRequestedToInterested(ctx context.Context, r RequestNotice) error {
	return n.record("BookRequestedToInterested", r)
}
func (n *recordingNotifier) WinnerChosen(ctx context.Context, w WinnerNotice) error {
	return n.record("WinnerChosen", w)
}
func (n *recordingNotifier) LosersDeclined(ctx context.Context, w WinnerNotice) error {
	return n.record("LosersDeclined", w)
}
func (n *recordingNotifier) WinnerChosenToDonor(ctx context.Context, w WinnerNotice) error {
	return n.record("WinnerChosenToDonor", w)
}
func (n *recordingNotifier) BookCanceledToAdmins(ctx context.Context, c CancelNotice) error {
	return n.record("BookCanceledToAdmins", c)
}
func (n *recordingNotifier) BookCanceledToRequesters(ctx context.Context, c CancelNotice) error {
	return n.record("BookCanceledToRequesters", c)
}
func (n *recordingNotifier) TrackingNumberInformed(ctx context.Context, t TrackingNotice) error {
	return n.record("TrackingNumberInformed", t)
}
