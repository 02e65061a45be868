package valueobjects

import "fmt"

// Cadence is the billing cycle of a subscription-priced repository.
type Cadence string

const (
	CadenceMonthly Cadence = "monthly"
	CadenceYearly  Cadence = "yearly"
	CadenceCustom  Cadence = "custom"
)

func NewCadence(s string) (Cadence, error) {
	c := Cadence(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid subscription cadence: %s", s)
	}
	return c, nil
}

func (c Cadence) IsValid() bool {
	switch c {
	case CadenceMonthly, CadenceYearly, CadenceCustom:
		return true
	}
	return false
}

func (c Cadence) String() string {
	return string(c)
}

// BillingInterval maps the cadence onto the provider-facing interval
// vocabulary. Custom cadences have no provider equivalent and are billed
// as monthly on the remote side.
func (c Cadence) BillingInterval() string {
	switch c {
	case CadenceYearly:
		return "year"
	default:
		return "month"
	}
}
