package valueobjects

import "fmt"

// Status is the payment lifecycle axis of a purchase.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	// StatusFailed also marks completed payments whose access grant
	// exhausted its retries; the access axis stays pending in that case
	// and the failed status is the operator signal.
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

func NewStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid purchase status: %s", s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

func (s Status) IsFinal() bool {
	return s == StatusFailed || s == StatusCanceled
}

func (s Status) String() string {
	return string(s)
}

// AccessStatus is the grant lifecycle axis of a purchase, orthogonal to
// the payment status.
type AccessStatus string

const (
	AccessStatusPending AccessStatus = "pending"
	AccessStatusActive  AccessStatus = "active"
	AccessStatusRevoked AccessStatus = "revoked"
)

func NewAccessStatus(s string) (AccessStatus, error) {
	st := AccessStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid access status: %s", s)
	}
	return st, nil
}

func (s AccessStatus) IsValid() bool {
	switch s {
	case AccessStatusPending, AccessStatusActive, AccessStatusRevoked:
		return true
	}
	return false
}

func (s AccessStatus) String() string {
	return string(s)
}

// PurchaseType mirrors the pricing type under which the purchase was made.
type PurchaseType string

const (
	PurchaseTypeOneTime      PurchaseType = "one_time"
	PurchaseTypeSubscription PurchaseType = "subscription"
)

func NewPurchaseType(s string) (PurchaseType, error) {
	pt := PurchaseType(s)
	if !pt.IsValid() {
		return "", fmt.Errorf("invalid purchase type: %s", s)
	}
	return pt, nil
}

func (p PurchaseType) IsValid() bool {
	return p == PurchaseTypeOneTime || p == PurchaseTypeSubscription
}

func (p PurchaseType) String() string {
	return string(p)
}
