package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString_Valid(t *testing.T) {
	p, err := NewFromString("19.99")
	require.NoError(t, err)
	assert.Equal(t, "19.99", p.String())
}

func TestNewFromString_Malformed(t *testing.T) {
	_, err := NewFromString("nineteen")
	assert.Error(t, err)
}

func TestAdd_And_MulQuantity(t *testing.T) {
	p := MustFromString("19.99")

	total := p.MulQuantity(3)
	assert.Equal(t, "59.97", total.String())

	sum := total.Add(MustFromString("0.03"))
	assert.True(t, sum.Equal(MustFromString("60")))
}

func TestZero(t *testing.T) {
	assert.Equal(t, "0", Zero.String())
	assert.True(t, Zero.Add(Zero).Equal(Zero))
}

func TestMarshalJSON_RendersString(t *testing.T) {
	raw, err := json.Marshal(MustFromString("10.50"))
	require.NoError(t, err)
	assert.Equal(t, `"10.5"`, string(raw))
}

func TestUnmarshalJSON_RoundTrip(t *testing.T) {
	var p Price
	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &p))
	assert.True(t, p.Equal(MustFromString("7.25")))
}

func TestFieldValidate_RejectsNegative(t *testing.T) {
	err := DefaultField.Validate(MustFromString("-1"))
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestFieldValidate_RejectsTooManyDigits(t *testing.T) {
	// DefaultField is DECIMAL(12,2): at most 10 integer digits.
	err := DefaultField.Validate(MustFromString("12345678901.00"))
	assert.ErrorIs(t, err, ErrTooManyDigits)
}

func TestFieldValidate_AcceptsFittingPrice(t *testing.T) {
	assert.NoError(t, DefaultField.Validate(MustFromString("9999999999.99")))
	assert.NoError(t, DefaultField.Validate(Zero))
}

func TestFieldQuantize_RoundsHalfUp(t *testing.T) {
	q := DefaultField.Quantize(MustFromString("1.005"))
	assert.Equal(t, "1.01", q.String())

	q = DefaultField.Quantize(MustFromString("1.004"))
	assert.Equal(t, "1", q.String())
}
