package transaction

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field limits
const (
	AccountIDMinLength   = 10
	AccountIDMaxLength   = 50
	DescriptionMaxLength = 255
	AmountIntegerDigits  = 15
	AmountFractionDigits = 4
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Transaction is a single financial movement on an account. Only Description
// and Status change after creation.
type Transaction struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Type          Type            `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   *string         `json:"description,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Status        Status          `json:"status"`
}

// CreateRequest carries the caller-supplied fields of a new transaction
type CreateRequest struct {
	AccountID   string
	Type        Type
	Amount      decimal.Decimal
	Currency    string
	Description *string
}

// UpdateRequest carries the mutable fields. Nil fields are left untouched.
type UpdateRequest struct {
	Description *string
	Status      *Status
}

// NewTransaction builds a PENDING transaction with a fresh identifier stamped
// at now. The timestamp is truncated to microseconds, the precision of the store.
func NewTransaction(req CreateRequest, now time.Time) (*Transaction, error) {
	verr := &ErrValidation{}

	if n := utf8.RuneCountInString(req.AccountID); n < AccountIDMinLength || n > AccountIDMaxLength {
		verr.add("accountId", "Account ID must be between 10 and 50 characters")
	}
	if !req.Type.Valid() {
		verr.add("type", "Transaction type must be one of: DEBIT, CREDIT")
	}
	if msg := CheckAmount(req.Amount); msg != "" {
		verr.add("amount", msg)
	}
	if !currencyPattern.MatchString(req.Currency) {
		verr.add("currency", "Currency must be 3 uppercase letters (ISO 4217)")
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > DescriptionMaxLength {
		verr.add("description", "Description cannot exceed 255 characters")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var description *string
	if req.Description != nil {
		d := *req.Description
		description = &d
	}

	// Rounded up to the microsecond Postgres keeps, so the stored value is
	// never earlier than now.
	ts := now.UTC().Truncate(time.Microsecond)
	if ts.Before(now) {
		ts = ts.Add(time.Microsecond)
	}

	return &Transaction{
		TransactionID: uuid.New(),
		AccountID:     req.AccountID,
		Type:          req.Type,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   description,
		Timestamp:     ts,
		Status:        StatusPending,
	}, nil
}

// ApplyUpdate sets the fields present in req. Nothing is changed when req is
// invalid.
func (t *Transaction) ApplyUpdate(req UpdateRequest) error {
	verr := &ErrValidation{}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > DescriptionMaxLength {
		verr.add("description", "Description cannot exceed 255 characters")
	}
	if req.Status != nil && !req.Status.Valid() {
		verr.add("status", "Status must be one of: PENDING, COMPLETED, FAILED")
	}
	if verr.HasErrors() {
		return verr
	}

	if req.Description != nil {
		d := *req.Description
		t.Description = &d
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	return nil
}

// CheckAmount returns a validation message when amount is not strictly
// positive or exceeds 15 integer or 4 fraction digits, and "" otherwise.
func CheckAmount(amount decimal.Decimal) string {
	if !amount.IsPositive() {
		return "Amount must be greater than 0"
	}
	if integerDigits(amount) > AmountIntegerDigits || fractionDigits(amount) > AmountFractionDigits {
		return "Amount format is invalid (max 15 integer digits and 4 decimals)"
	}
	return ""
}

func integerDigits(d decimal.Decimal) int {
	s := d.Abs().Truncate(0).String()
	if s == "0" {
		return 0
	}
	return len(s)
}

// fractionDigits ignores trailing zeros, so 1500.5000 counts as one digit.
func fractionDigits(d decimal.Decimal) int {
	s := d.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
