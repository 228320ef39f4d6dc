package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a stablecoin amount with token denomination and
// arbitrary-precision arithmetic.
type Money struct {
	amount decimal.Decimal
	token  string
}

// Supported token denominations
const (
	MNEE = "MNEE"
	USDC = "USDC"
	USDT = "USDT"
)

// NewMoney creates a new Money value object
func NewMoney(amount decimal.Decimal, token string) (Money, error) {
	if err := validateToken(token); err != nil {
		return Money{}, err
	}

	return Money{
		amount: amount,
		token:  strings.ToUpper(token),
	}, nil
}

// NewMoneyFromString creates Money from a string amount and token
func NewMoneyFromString(amount, token string) (Money, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount: %w", err)
	}

	return NewMoney(dec, token)
}

// NewMoneyFromFloat creates Money from a float64 amount and token.
// Note: Use with caution due to floating point precision issues
func NewMoneyFromFloat(amount float64, token string) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), token)
}

// MustNewMoney creates Money and panics on error (for constants/tests)
func MustNewMoney(amount decimal.Decimal, token string) Money {
	m, err := NewMoney(amount, token)
	if err != nil {
		panic(err)
	}
	return m
}

// MustNewMoneyFromFloat creates Money from a float and panics on error (for constants/tests)
func MustNewMoneyFromFloat(amount float64, token string) Money {
	m, err := NewMoneyFromFloat(amount, token)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero Money value in the given token
func Zero(token string) Money {
	return MustNewMoney(decimal.Zero, token)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Token returns the token denomination
func (m Money) Token() string {
	return m.token
}

// String returns the formatted amount with token (e.g. "18000.00 MNEE")
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.token
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive checks if the amount is strictly positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative checks if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equal checks if two Money values are equal (same amount and token)
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount) && m.token == other.token
}

// Compare returns -1, 0, or 1 based on comparison with other Money.
// Panics if tokens don't match
func (m Money) Compare(other Money) int {
	if m.token != other.token {
		panic(fmt.Sprintf("cannot compare different tokens: %s vs %s", m.token, other.token))
	}
	return m.amount.Cmp(other.amount)
}

// Add adds two Money values (must have the same token)
func (m Money) Add(other Money) (Money, error) {
	if m.token != other.token {
		return Money{}, fmt.Errorf("cannot add different tokens: %s and %s", m.token, other.token)
	}

	return Money{
		amount: m.amount.Add(other.amount),
		token:  m.token,
	}, nil
}

// Sub subtracts other Money from this Money (must have the same token)
func (m Money) Sub(other Money) (Money, error) {
	if m.token != other.token {
		return Money{}, fmt.Errorf("cannot subtract different tokens: %s and %s", m.token, other.token)
	}

	return Money{
		amount: m.amount.Sub(other.amount),
		token:  m.token,
	}, nil
}

// Mul multiplies Money by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{
		amount: m.amount.Mul(factor),
		token:  m.token,
	}
}

// MulFloat multiplies Money by a float64 factor
func (m Money) MulFloat(factor float64) Money {
	return m.Mul(decimal.NewFromFloat(factor))
}

// ToFloat64 converts to float64 (use with caution for precision)
func (m Money) ToFloat64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// JSON marshaling
func (m Money) MarshalJSON() ([]byte, error) {
	data := struct {
		Amount string `json:"amount"`
		Token  string `json:"token"`
	}{
		Amount: m.amount.String(),
		Token:  m.token,
	}
	return json.Marshal(data)
}

// JSON unmarshaling
func (m *Money) UnmarshalJSON(data []byte) error {
	var temp struct {
		Amount string `json:"amount"`
		Token  string `json:"token"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(temp.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	money, err := NewMoney(amount, temp.Token)
	if err != nil {
		return err
	}

	*m = money
	return nil
}

// Database scanning (implements sql.Scanner)
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		*m = Money{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return m.scanFromString(string(v))
	case string:
		return m.scanFromString(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}

// Database value (implements driver.Valuer)
func (m Money) Value() (driver.Value, error) {
	if m.amount.IsZero() && m.token == "" {
		return nil, nil
	}
	// Store as JSON for PostgreSQL JSONB compatibility
	return m.MarshalJSON()
}

func validateToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	switch strings.ToUpper(token) {
	case MNEE, USDC, USDT:
		return nil
	}
	return fmt.Errorf("unsupported token: %s", token)
}

func (m *Money) scanFromString(s string) error {
	// Try to parse as JSON first
	if strings.HasPrefix(s, "{") {
		return m.UnmarshalJSON([]byte(s))
	}

	// Fall back to plain decimal parsing (assume MNEE)
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money format: %w", err)
	}

	money, err := NewMoney(amount, MNEE)
	if err != nil {
		return err
	}

	*m = money
	return nil
}
