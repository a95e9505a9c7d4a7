package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"gopkg.in/yaml.v3"
)

// Fraction is an exact rational number parsed from the decimal literal of the
// configuration file, so that 0.5 means exactly 1/2 and 2 of 4 satisfies it.
type Fraction struct {
	r *big.Rat
}

// ParseFraction accepts decimal ("0.5"), scientific ("5e-1") and ratio ("1/2") forms.
func ParseFraction(s string) (Fraction, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Fraction{}, fmt.Errorf("%w: cannot parse %q", errs.ErrInvalidAgreement, s)
	}
	return Fraction{r: r}, nil
}

// MustFraction is ParseFraction for literals known to be valid.
func MustFraction(s string) Fraction {
	f, err := ParseFraction(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate rejects 0 (everything would be found), negatives and values above 1 (unsatisfiable).
func (f Fraction) Validate() error {
	if f.r == nil {
		return fmt.Errorf("%w: value is missing", errs.ErrInvalidAgreement)
	}
	if f.r.Sign() <= 0 {
		return fmt.Errorf("%w: got %s", errs.ErrInvalidAgreement, f)
	}
	if f.r.Cmp(big.NewRat(1, 1)) > 0 {
		return fmt.Errorf("%w: got %s", errs.ErrInvalidAgreement, f)
	}
	return nil
}

// SatisfiedBy reports whether agreeing/total >= f, compared exactly.
func (f Fraction) SatisfiedBy(agreeing, total int) bool {
	if f.r == nil || total <= 0 {
		return false
	}
	return big.NewRat(int64(agreeing), int64(total)).Cmp(f.r) >= 0
}

// Rat returns a copy of the underlying rational.
func (f Fraction) Rat() *big.Rat {
	if f.r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(f.r)
}

func (f Fraction) String() string {
	if f.r == nil {
		return "<unset>"
	}
	v, _ := f.r.Float64()
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (f *Fraction) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseFraction(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f *Fraction) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseFraction(value.Value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
