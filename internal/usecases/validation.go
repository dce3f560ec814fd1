package usecases

import (
	"regexp"
	"strings"
	"unicode"

	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/pkg/crypto"
)

const (
	passwordMinLength = 10
	passwordMaxLength = 64
)

var (
	fullNamePattern        = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
	idNumberPattern        = regexp.MustCompile(`^\d{13}$`)
	accountNumberPattern   = regexp.MustCompile(`^[0-9]{8,12}$`)
	usernamePattern        = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,15}$`)
	swiftCodePattern       = regexp.MustCompile(`^[A-Za-z]{6}[A-Za-z0-9]{2}([A-Za-z0-9]{3})?$`)
	branchCodePattern      = regexp.MustCompile(`^[0-9]{6}$`)
	serviceProviderPattern = regexp.MustCompile(`^[a-zA-Z0-9\s&.-]{2,50}$`)
)

// fieldErrors collects every offending field before failing.
type fieldErrors []domainerrors.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, domainerrors.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return domainerrors.Validation(f)
}

// validPassword requires upper, lower, digit and symbol characters. The
// encoded form must also fit bcrypt's input limit.
func validPassword(p string) bool {
	n := len([]rune(p))
	if n < passwordMinLength || n > passwordMaxLength || len(p) > crypto.MaxSecretBytes {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			return false
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func normalizeRegistration(in *entities.RegisterInput) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.IDNumber = strings.TrimSpace(in.IDNumber)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.Username = strings.TrimSpace(in.Username)
}

func validateRegistration(in *entities.RegisterInput) error {
	var errs fieldErrors
	if !fullNamePattern.MatchString(in.FullName) {
		errs.add("fullName", "Full name must be 2-50 letters or spaces")
	}
	if !idNumberPattern.MatchString(in.IDNumber) {
		errs.add("idNumber", "ID number must be exactly 13 digits")
	}
	if !accountNumberPattern.MatchString(in.AccountNumber) {
		errs.add("accountNumber", "Account number must be 8-12 digits")
	}
	if !usernamePattern.MatchString(in.Username) {
		errs.add("username", "Username must start with a letter and contain 3-16 letters, digits or underscores")
	}
	if !validPassword(in.Password) {
		errs.add("password", "Password must be 10-64 characters (at most 72 bytes) with upper and lower case letters, a digit and a special character")
	}
	return errs.err()
}

// paymentFields is a validated, normalised payment submission.
type paymentFields struct {
	amount            entities.Amount
	currency          entities.Currency
	serviceProvider   string
	swiftCode         string
	accountHolderName string
	accountNumber     string
	branchCode        string
	accountType       entities.AccountType
}

func validatePayment(in *entities.CreatePaymentInput) (*paymentFields, error) {
	var errs fieldErrors
	out := &paymentFields{
		serviceProvider:   strings.TrimSpace(in.ServiceProvider),
		swiftCode:         strings.ToUpper(strings.TrimSpace(in.SwiftCode)),
		accountHolderName: strings.TrimSpace(in.AccountHolderName),
		accountNumber:     strings.TrimSpace(in.AccountNumber),
		branchCode:        strings.TrimSpace(in.BranchCode),
	}

	amount, err := entities.ParseAmount(string(in.Amount))
	switch {
	case strings.TrimSpace(string(in.Amount)) == "":
		errs.add("amount", "Amount is required")
	case err != nil:
		errs.add("amount", err.Error())
	default:
		out.amount = amount
	}

	if c, ok := entities.ParseCurrency(strings.ToUpper(strings.TrimSpace(in.Currency))); ok {
		out.currency = c
	} else {
		errs.add("currency", "Currency must be one of USD, EUR, GBP, ZAR")
	}
	if !serviceProviderPattern.MatchString(out.serviceProvider) {
		errs.add("serviceProvider", "Service provider must be 2-50 letters, digits, spaces or &.-")
	}
	if !swiftCodePattern.MatchString(out.swiftCode) {
		errs.add("swiftCode", "Invalid SWIFT code format")
	}
	if !fullNamePattern.MatchString(out.accountHolderName) {
		errs.add("accountHolderName", "Account holder name must be 2-50 letters or spaces")
	}
	if !accountNumberPattern.MatchString(out.accountNumber) {
		errs.add("accountNumber", "Account number must be 8-12 digits")
	}
	if !branchCodePattern.MatchString(out.branchCode) {
		errs.add("branchCode", "Branch code must be exactly 6 digits")
	}
	if at, ok := entities.ParseAccountType(in.AccountType); ok {
		out.accountType = at
	} else {
		errs.add("accountType", "Account type must be checking, savings or business")
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return out, nil
}
