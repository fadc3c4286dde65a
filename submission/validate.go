package submission

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Limits applied by Validate.
const (
	MinDescriptionLen = 5
	MaxDescriptionLen = 500
	MaxNotesLen       = 1000
	MaxAttachments    = 5
	MaxAttachmentSize = 10 << 20 // 10 MB per attachment

	minRandomKeyLen = 8
	maxRandomKeyLen = 36
)

// currencies accepted for the total amount.
var currencies = map[string]bool{
	"BRL": true,
	"USD": true,
	"EUR": true,
}

// FieldError reports a single validation violation, tagged with the path of
// the offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// digitsOnly strips every non-digit rune from s.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidTaxID reports whether s is a valid 11-digit national taxpayer ID.
// Formatting characters are ignored. IDs with all digits identical are
// rejected even when their check digits would match.
func ValidTaxID(s string) bool {
	d := digitsOnly(s)
	if len(d) != 11 {
		return false
	}
	same := true
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}
	dv1 := checkDigit(d[:9], 10)
	dv2 := checkDigit(d[:10], 11)
	return int(d[9]-'0') == dv1 && int(d[10]-'0') == dv2
}

// checkDigit computes one modulo-11 check digit over digits, weighting the
// first digit with startWeight and decreasing by one per position.
// A result of 10 or 11 maps to 0.
func checkDigit(digits string, startWeight int) int {
	sum := 0
	w := startWeight
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * w
		w--
	}
	d := 11 - sum%11
	if d >= 10 {
		d = 0
	}
	return d
}

// ValidEmail reports whether s looks like an email address.
//
// The check is deliberately permissive: non-empty after trimming, with
// exactly one "@" that is not the first or last character. Real submitters
// use addresses that stricter RFC checks reject, so the relaxation is a
// product decision, not an oversight.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.Count(s, "@") != 1 {
		return false
	}
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1
}

// ValidPhone reports whether s contains 10 to 15 digits, covering local and
// internationally-dialed numbers. Non-digit characters are ignored.
func ValidPhone(s string) bool {
	n := len(digitsOnly(s))
	return n >= 10 && n <= 15
}

// ValidAmount reports whether s parses as a finite decimal greater than zero.
// Currency symbols and spaces are stripped and a decimal comma is accepted.
func ValidAmount(s string) bool {
	t := strings.TrimSpace(s)
	for _, sym := range [...]string{"R$", "US$", "$", "€", "£"} {
		t = strings.ReplaceAll(t, sym, "")
	}
	t = strings.ReplaceAll(t, " ", "")
	if strings.Contains(t, ",") {
		// "1.234,56" style: dots are thousand separators.
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ValidKey reports whether value is a valid instant-payment key of the given
// subtype. Unknown subtypes are always invalid.
func ValidKey(t KeyType, value string) bool {
	switch t {
	case KeyTaxID:
		return ValidTaxID(value)
	case KeyEmail:
		return ValidEmail(value)
	case KeyPhone:
		return ValidPhone(value)
	case KeyRandom:
		n := utf8.RuneCountInString(strings.TrimSpace(value))
		return n >= minRandomKeyLen && n <= maxRandomKeyLen
	}
	return false
}

// Validate applies all field-level rules, then the conditional rules selected
// by the payment method. It returns every violation found; an empty slice
// means the submission is valid.
func (s *Submission) Validate() []FieldError {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if !strings.Contains(strings.TrimSpace(s.FullName), " ") {
		add("fullName", "must contain first and last name")
	}
	if !ValidEmail(s.Email) {
		add("email", "invalid email address")
	}
	if !ValidPhone(s.Phone) {
		add("phone", "must contain 10 to 15 digits")
	}
	if !ValidTaxID(s.TaxID) {
		add("taxId", "invalid taxpayer ID")
	}
	if strings.TrimSpace(s.JobTitle) == "" {
		add("jobTitle", "required")
	}
	if strings.TrimSpace(s.CostCenter) == "" {
		add("costCenter", "required")
	}

	if strings.TrimSpace(s.Category) == "" {
		add("category", "required")
	}
	if s.ExpenseDate.IsZero() {
		add("expenseDate", "required")
	} else if s.ExpenseDate.After(time.Now()) {
		add("expenseDate", "must not be in the future")
	}
	if n := utf8.RuneCountInString(s.Description); n < MinDescriptionLen || n > MaxDescriptionLen {
		add("description", fmt.Sprintf("must be between %d and %d characters", MinDescriptionLen, MaxDescriptionLen))
	}
	if !ValidAmount(s.Amount) {
		add("amount", "must be a positive decimal")
	}
	if !currencies[s.Currency] {
		add("currency", "unsupported currency code")
	}
	if utf8.RuneCountInString(s.Notes) > MaxNotesLen {
		add("notes", fmt.Sprintf("must not exceed %d characters", MaxNotesLen))
	}

	s.validateMethod(add)
	s.validateAttachments(add)

	return errs
}

// validateMethod applies the conditional rules keyed on the payment method.
func (s *Submission) validateMethod(add func(field, message string)) {
	switch s.Method {
	case MethodBankTransfer:
		if s.Bank == nil {
			add("bank", "required for bank transfer")
			return
		}
		if strings.TrimSpace(s.Bank.BankName) == "" {
			add("bank.bankName", "required for bank transfer")
		}
		if strings.TrimSpace(s.Bank.BranchCode) == "" {
			add("bank.branchCode", "required for bank transfer")
		}
		if strings.TrimSpace(s.Bank.AccountNumber) == "" {
			add("bank.accountNumber", "required for bank transfer")
		}
	case MethodInstantKey:
		if s.Key == nil {
			add("key", "required for instant payment key")
			return
		}
		if s.Key.Type == "" {
			add("key.type", "required for instant payment key")
		}
		if strings.TrimSpace(s.Key.Value) == "" {
			add("key.value", "required for instant payment key")
		} else if s.Key.Type != "" && !ValidKey(s.Key.Type, s.Key.Value) {
			add("key.value", fmt.Sprintf("invalid %s key", s.Key.Type.Label()))
		}
	case MethodOther:
		// No conditional fields.
	default:
		add("method", "unknown payment method")
	}
}

func (s *Submission) validateAttachments(add func(field, message string)) {
	if len(s.Attachments) == 0 {
		add("attachments", "at least one attachment is required")
		return
	}
	if len(s.Attachments) > MaxAttachments {
		add("attachments", fmt.Sprintf("at most %d attachments are allowed", MaxAttachments))
	}
	for i, a := range s.Attachments {
		if a.Size <= 0 {
			add(fmt.Sprintf("attachments[%d].size", i), "required")
		} else if a.Size > MaxAttachmentSize {
			add(fmt.Sprintf("attachments[%d].size", i), "exceeds 10 MB limit")
		}
	}
}

// Normalize trims free-text fields and drops an all-whitespace notes value.
// It is safe to call before or after Validate.
func (s *Submission) Normalize() {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Email = strings.TrimSpace(s.Email)
	s.JobTitle = strings.TrimSpace(s.JobTitle)
	s.CostCenter = strings.TrimSpace(s.CostCenter)
	s.Category = strings.TrimSpace(s.Category)
	s.Description = strings.TrimSpace(s.Description)
	if strings.TrimSpace(s.Notes) == "" {
		s.Notes = ""
	}
}
