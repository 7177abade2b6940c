package delivery

import (
	"fmt"
	"strings"

	"shipping/internal/pkg/errs"
)

// Provider names an external shipping carrier. The set is closed.
type Provider string

const (
	NRW Provider = "NRW"
	TLS Provider = "TLS"
)

// Providers lists every supported carrier.
func Providers() []Provider {
	return []Provider{NRW, TLS}
}

// ParseProvider accepts any casing, so "tls" from a webhook path resolves to TLS.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToUpper(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

func (p Provider) Validate() error {
	for _, known := range Providers() {
		if p == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("provider", fmt.Errorf("%q is not a supported provider", string(p)))
}

func (p Provider) String() string {
	return string(p)
}
