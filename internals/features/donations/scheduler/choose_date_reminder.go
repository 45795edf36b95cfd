package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	bookUserModel "sharebook_backend/internals/features/donations/book_users/model"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
	"sharebook_backend/internals/helpers/dbtime"
)

// DueBook is a book whose donor may pick the winner today.
type DueBook struct {
	Book    bookModel.BookModel
	Donor   userModel.UserModel
	Waiting int64
}

type Finder interface {
	// DueForChoice lists approved, visible, non-canceled books whose decision
	// date falls on day and that still have waiting requests.
	DueForChoice(ctx context.Context, day time.Time) ([]DueBook, error)
}

type Reminder interface {
	ChooseDateReminder(ctx context.Context, book bookModel.BookModel, donor userModel.UserModel, waiting int64) error
}

type ChooseDateJob struct {
	finder   Finder
	reminder Reminder
	now      func() time.Time
	timeout  time.Duration
}

func NewChooseDateJob(finder Finder, reminder Reminder) *ChooseDateJob {
	return &ChooseDateJob{finder: finder, reminder: reminder, now: dbtime.Now, timeout: 4 * time.Minute}
}

// Run sends one reminder per due book and returns how many were handed over.
func (j *ChooseDateJob) Run(ctx context.Context) (int, error) {
	due, err := j.finder.DueForChoice(ctx, j.now())
	if err != nil {
		return 0, fmt.Errorf("find due books: %w", err)
	}
	sent := 0
	for _, d := range due {
		if d.Donor.Email == "" {
			logger.Warningf("[CRON] book %s has no donor e-mail, skipping", d.Book.BookID)
			continue
		}
		if err := j.reminder.ChooseDateReminder(ctx, d.Book, d.Donor, d.Waiting); err != nil {
			logger.Warningf("[CRON] reminder for book %s: %v", d.Book.BookID, err)
			continue
		}
		sent++
	}
	logger.Infof("[CRON] choose-date reminder: due=%d sent=%d", len(due), sent)
	return sent, nil
}

// Start schedules the job in the application zone. The caller stops the returned cron on shutdown.
func Start(spec string, job *ChooseDateJob) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(dbtime.Location()),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.timeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			logger.Errorf("[CRON] choose-date reminder: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Infof("[CRON] choose-date reminder scheduled at %q", spec)
	return c, nil
}

/* ====================== GORM FINDER ====================== */

type GormFinder struct {
	db *gorm.DB
}

func NewGormFinder(db *gorm.DB) *GormFinder {
	return &GormFinder{db: db}
}

func (f *GormFinder) DueForChoice(ctx context.Context, day time.Time) ([]DueBook, error) {
	from, to := DayBounds(day)

	var books []bookModel.BookModel
	err := f.db.WithContext(ctx).
		Preload("Donor").
		Where("book_approved AND NOT book_hidden AND NOT book_canceled").
		Where("book_choose_date >= ? AND book_choose_date < ?", from, to).
		Where("EXISTS (SELECT 1 FROM book_users bu WHERE bu.book_user_book_id = books.book_id AND bu.book_user_status = ?)",
			bookUserModel.StatusWaitingAction).
		Order("book_choose_date ASC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.BookID)
	}
	var counts []struct {
		BookID uuid.UUID
		N      int64
	}
	err = f.db.WithContext(ctx).Model(&bookUserModel.BookUserModel{}).
		Select("book_user_book_id AS book_id, COUNT(*) AS n").
		Where("book_user_book_id IN ? AND book_user_status = ?", ids, bookUserModel.StatusWaitingAction).
		Group("book_user_book_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	waiting := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		waiting[c.BookID] = c.N
	}

	out := make([]DueBook, 0, len(books))
	for _, b := range books {
		d := DueBook{Book: b, Waiting: waiting[b.BookID]}
		if b.Donor != nil {
			d.Donor = *b.Donor
		}
		out = append(out, d)
	}
	return out, nil
}

// DayBounds returns [start of day, start of next day) in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}
