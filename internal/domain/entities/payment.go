package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusVerified  PaymentStatus = "verified"
	PaymentStatusSubmitted PaymentStatus = "submitted"
)

// AllPaymentStatuses lists every lifecycle state in order.
var AllPaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusVerified, PaymentStatusSubmitted}

// ParsePaymentStatus validates a status filter value.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	for _, st := range AllPaymentStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Currency is an ISO code accepted by the portal
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyZAR Currency = "ZAR"
)

// ParseCurrency accepts only the supported currency codes.
func ParseCurrency(s string) (Currency, bool) {
	switch Currency(s) {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyZAR:
		return Currency(s), true
	}
	return "", false
}

// AccountType of the beneficiary account
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeBusiness AccountType = "business"
)

// ParseAccountType is case-insensitive and returns the canonical lowercase form.
func ParseAccountType(s string) (AccountType, bool) {
	switch at := AccountType(strings.ToLower(strings.TrimSpace(s))); at {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeBusiness:
		return at, true
	}
	return "", false
}

var (
	ErrInvalidAmount    = errors.New("amount must be a decimal with at most two fractional digits")
	ErrAmountOutOfRange = errors.New("amount must be between 0.01 and 1000000")

	amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

const (
	MinAmount Amount = 1
	MaxAmount Amount = 100_000_000
)

// Amount is a monetary value in minor units (hundredths).
type Amount int64

// ParseAmount converts a decimal string into minor units.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, ErrInvalidAmount
	}
	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "0")
	if len(whole) > 9 {
		return 0, ErrAmountOutOfRange
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	a := Amount(w*100 + f)
	if a < MinAmount || a > MaxAmount {
		return 0, ErrAmountOutOfRange
	}
	return a, nil
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", int64(a)/100, int64(a)%100)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// AmountInput accepts either a JSON number or a JSON string and keeps the literal text.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidAmount
	}
	*a = AmountInput(n.String())
	return nil
}

// Payment represents an international payment instruction
type Payment struct {
	ID                      uuid.UUID     `json:"id"`
	CustomerID              uuid.UUID     `json:"customerId"`
	Amount                  Amount        `json:"amount"`
	Currency                Currency      `json:"currency"`
	ServiceProvider         string        `json:"serviceProvider"`
	SwiftCode               string        `json:"swiftCode"`
	AccountHolderName       string        `json:"accountHolderName"`
	AccountNumberHash       string        `json:"-"`
	BranchCode              string        `json:"branchCode"`
	AccountType             AccountType   `json:"accountType"`
	Status                  PaymentStatus `json:"status"`
	VerifiedSwiftCode       null.String   `json:"verifiedSwiftCode"`
	VerifiedAt              null.Time     `json:"verifiedAt"`
	VerifiedBy              null.String   `json:"verifiedBy"`
	SubmittedAt             null.Time     `json:"submittedAt"`
	SubmittedBy             null.String   `json:"submittedBy"`
	SettlementTransactionID null.String   `json:"settlementTransactionId"`
	CreatedAt               time.Time     `json:"createdAt"`
	UpdatedAt               time.Time     `json:"updatedAt"`
}

// PaymentWithCustomer is the employee projection joined with the owner's identity.
type PaymentWithCustomer struct {
	Payment
	CustomerName     string `json:"customerName"`
	CustomerUsername string `json:"customerUsername"`
}

// CreatePaymentInput represents input for creating a payment
type CreatePaymentInput struct {
	Amount            AmountInput `json:"amount"`
	Currency          string      `json:"currency"`
	ServiceProvider   string      `json:"serviceProvider"`
	SwiftCode         string      `json:"swiftCode"`
	AccountHolderName string      `json:"accountHolderName"`
	AccountNumber     string      `json:"accountNumber"`
	BranchCode        string      `json:"branchCode"`
	AccountType       string      `json:"accountType"`
}

// VerifyPaymentInput carries the SWIFT code typed by the reviewing employee.
type VerifyPaymentInput struct {
	SwiftCode string `json:"swiftCode"`
}

// TransitionResult is returned by verify and submit.
type TransitionResult struct {
	Message string   `json:"message"`
	Payment *Payment `json:"payment"`
}

// PaymentEventType names a lifecycle audit record
type PaymentEventType string

const (
	PaymentEventTypeCreated   PaymentEventType = "created"
	PaymentEventTypeVerified  PaymentEventType = "verified"
	PaymentEventTypeSubmitted PaymentEventType = "submitted"
)

// PaymentEvent is one append-only audit entry
type PaymentEvent struct {
	ID         uuid.UUID        `json:"id"`
	PaymentID  uuid.UUID        `json:"paymentId"`
	EventType  PaymentEventType `json:"eventType"`
	ActorID    uuid.UUID        `json:"actorId"`
	FromStatus null.String      `json:"fromStatus"`
	ToStatus   PaymentStatus    `json:"toStatus"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// SettlementEvent is published once a payment leaves the portal.
type SettlementEvent struct {
	PaymentID               uuid.UUID `json:"paymentId"`
	SettlementTransactionID string    `json:"settlementTransactionId"`
	Amount                  Amount    `json:"amount"`
	Currency                Currency  `json:"currency"`
	SwiftCode               string    `json:"swiftCode"`
	SubmittedBy             uuid.UUID `json:"submittedBy"`
	SubmittedAt             time.Time `json:"submittedAt"`
}

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status PaymentStatus
	Count  int64
}
