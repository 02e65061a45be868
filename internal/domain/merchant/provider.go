package merchant

import "fmt"

// Provider identifies a supported payment provider.
type Provider string

const (
	ProviderStripe       Provider = "stripe"
	ProviderLemonSqueezy Provider = "lemon_squeezy"
	ProviderGumroad      Provider = "gumroad"
	ProviderPaddle       Provider = "paddle"
)

func NewProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown payment provider: %s", s)
	}
	return p, nil
}

func (p Provider) IsValid() bool {
	switch p {
	case ProviderStripe, ProviderLemonSqueezy, ProviderGumroad, ProviderPaddle:
		return true
	}
	return false
}

func (p Provider) String() string {
	return string(p)
}
