package valueobjects

import "fmt"

// PricingType describes how access to a repository is sold.
type PricingType string

const (
	PricingTypeOneTime      PricingType = "one_time"
	PricingTypeSubscription PricingType = "subscription"
	PricingTypeFree         PricingType = "free"
)

func NewPricingType(s string) (PricingType, error) {
	pt := PricingType(s)
	if !pt.IsValid() {
		return "", fmt.Errorf("invalid pricing type: %s", s)
	}
	return pt, nil
}

func (p PricingType) IsValid() bool {
	switch p {
	case PricingTypeOneTime, PricingTypeSubscription, PricingTypeFree:
		return true
	}
	return false
}

func (p PricingType) IsSubscription() bool {
	return p == PricingTypeSubscription
}

func (p PricingType) IsFree() bool {
	return p == PricingTypeFree
}

func (p PricingType) String() string {
	return string(p)
}
