// Package submission defines the reimbursement submission model and its
// validation rules.
//
// A Submission is expected to be fully validated (Validate returning no
// errors) before it is handed to the rendering pipeline. Validation collects
// every violation instead of stopping at the first one, so a caller can
// report all field problems to the submitter at once.
package submission

import (
	"time"
)

// PaymentMethod selects how the reimbursement is paid out and which
// conditional fields become mandatory.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank-transfer"
	MethodInstantKey   PaymentMethod = "instant-payment-key"
	MethodOther        PaymentMethod = "other"
)

// Label returns the human-readable name for the payment method.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodBankTransfer:
		return "Bank transfer"
	case MethodInstantKey:
		return "Instant payment key"
	case MethodOther:
		return "Other"
	}
	return string(m)
}

// KeyType is the subtype of an instant-payment key. Each subtype carries its
// own validity rule (see ValidKey).
type KeyType string

const (
	KeyTaxID  KeyType = "tax-id"
	KeyEmail  KeyType = "email"
	KeyPhone  KeyType = "phone"
	KeyRandom KeyType = "random-token"
)

// Label returns the human-readable name for the key subtype.
func (k KeyType) Label() string {
	switch k {
	case KeyTaxID:
		return "Tax ID"
	case KeyEmail:
		return "Email"
	case KeyPhone:
		return "Phone"
	case KeyRandom:
		return "Random token"
	}
	return string(k)
}

// BankDetails are required when the payment method is MethodBankTransfer.
type BankDetails struct {
	BankName      string
	BranchCode    string
	AccountNumber string
}

// InstantKey is required when the payment method is MethodInstantKey.
type InstantKey struct {
	Type  KeyType
	Value string
}

// Attachment is the schema-level record of one submitted proof file.
// Size is in bytes and is the only mandatory signal; filename and declared
// content type may be absent when the upload layer could not supply them.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// Submission is one validated expense-reimbursement request.
type Submission struct {
	// Identity of the solicitant.
	FullName   string
	Email      string
	Phone      string
	TaxID      string
	JobTitle   string
	CostCenter string

	// Request data.
	Category    string // free-form expense category
	ExpenseDate time.Time
	Description string
	Amount      string // positive decimal, possibly with currency symbol
	Currency    string
	Method      PaymentMethod

	// Conditional payment detail, keyed on Method.
	Bank *BankDetails
	Key  *InstantKey

	Notes string // optional; "" means absent

	Attachments []Attachment
}
