package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Income  TxKind = "income"
	Expense TxKind = "expense"
)

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

type (
	Frequency string
	TxKind    string
	Role      string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Email        string
		Name         string
		PasswordHash string
		FamilyID     int64 // 0 when the user has not joined a family yet
		Role         Role
		CreatedAt    time.Time
	}

	Family struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	Invite struct {
		ID         int64
		FamilyID   int64
		Email      string
		Token      string
		CreatedAt  time.Time
		ExpiresAt  time.Time
		AcceptedAt time.Time
		RevokedAt  time.Time
	}

	Wallet struct {
		ID       int64
		FamilyID int64
		Name     string
		Currency string
		Balance  Money
	}

	Category struct {
		ID       int64
		FamilyID int64
		Name     string
		Kind     TxKind
	}

	Transaction struct {
		ID          int64
		FamilyID    int64
		WalletID    int64
		CategoryID  int64
		UserID      int64 // 0 for system-created rows
		Kind        TxKind
		Amount      Money
		Date        Date
		Note        string
		RecurringID int64 // 0 unless created by the recurring processor
		GoalID      int64 // 0 unless a goal contribution
	}

	Budget struct {
		ID         int64
		FamilyID   int64
		CategoryID int64
		Year       int
		Month      int // 1-12
		Limit      Money
	}

	RecurringTransaction struct {
		ID         int64
		FamilyID   int64
		WalletID   int64
		CategoryID int64
		Kind       TxKind
		Amount     Money
		Note       string
		Frequency  Frequency
		StartDate  Date
		EndDate    Date // zero when open-ended
		LastRunAt  time.Time
		Active     bool
	}

	Goal struct {
		ID       int64
		FamilyID int64
		Name     string
		Target   Money
		Saved    Money
		Deadline Date // zero when no deadline
		Achieved bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyNote        = errors.New("empty note")
	ErrInvalidEmail     = errors.New("invalid email")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as an int (1-12).
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k TxKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	}
	return ErrInvalidFrequency
}

func (u User) Validate() error {
	if !strings.Contains(u.Email, "@") || len(u.Email) < 3 || len(u.Email) > 254 {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if len(w.Name) > 100 {
		return errors.New("wallet name too long (max 100 characters)")
	}
	if len(w.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return c.Kind.Validate()
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.WalletID == 0 {
		return errors.New("missing wallet")
	}
	if t.CategoryID == 0 {
		return errors.New("missing category")
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID == 0 {
		return errors.New("missing category")
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2000 || b.Year > 2200 {
		return errors.New("year out of range")
	}
	return b.Limit.Validate()
}

func (rt RecurringTransaction) Validate() error {
	if err := rt.Kind.Validate(); err != nil {
		return err
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if err := rt.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate.Time) {
		return errors.New("end date must not precede start date")
	}
	if rt.WalletID == 0 {
		return errors.New("missing wallet")
	}
	if rt.CategoryID == 0 {
		return errors.New("missing category")
	}
	if strings.TrimSpace(rt.Note) == "" {
		return ErrEmptyNote
	}
	if len(rt.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("goal name too long (max 100 characters)")
	}
	return g.Target.Validate()
}

// Remaining returns how much is still missing to reach the target.
// Never negative: over-saving a goal reports zero remaining.
func (g Goal) Remaining() Money {
	rem := g.Target.Cents - g.Saved.Cents
	if rem < 0 {
		rem = 0
	}
	return Money{Cents: rem}
}

// Delta returns the signed balance change a transaction applies to its
// wallet: positive for income, negative for expenses.
func (t Transaction) Delta() int64 {
	if t.Kind == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

// Expired reports whether the invite can no longer be accepted.
func (i Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Pending reports whether the invite is still open.
func (i Invite) Pending(now time.Time) bool {
	return i.AcceptedAt.IsZero() && i.RevokedAt.IsZero() && !i.Expired(now)
}
