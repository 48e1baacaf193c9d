package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimal_ArithmeticAndFormatting(t *testing.T) {
	a, err := DecimalFromString("10.5")
	require.NoError(t, err)
	b, err := DecimalFromString("2.25")
	require.NoError(t, err)

	sum, err := Add(a, b)
	require.NoError(t, err)
	require.Equal(t, "12.75", sum.String())

	prod, err := Mul(a, b)
	require.NoError(t, err)
	require.Equal(t, "23.625", prod.String())

	quot, err := Div(a, b)
	require.NoError(t, err)
	require.Equal(t, "4.66666666", quot.String())
}

func TestDiv_ByZeroFails(t *testing.T) {
	_, err := Div(IntValue(1), IntValue(0))
	require.Error(t, err)
}

func TestAdd_StringConcatenation(t *testing.T) {
	v, err := Add(StringValue("foo"), StringValue("bar"))
	require.NoError(t, err)
	require.Equal(t, "foobar", v.String())
}

func TestCompare_NullSortsLowest(t *testing.T) {
	require.Equal(t, -1, Compare(NullValue(), IntValue(1)))
	require.Equal(t, 1, Compare(IntValue(1), NullValue()))
	require.Equal(t, 0, Compare(NullValue(), NullValue()))
}

func TestCompare_CaseInsensitiveStrings(t *testing.T) {
	require.Equal(t, 0, Compare(StringValue("Hello"), StringValue("hello")))
}

func TestEqual_CaseInsensitiveStringification(t *testing.T) {
	require.True(t, Equal(IntValue(5), StringValue("5")))
	require.False(t, Equal(IntValue(5), NullValue()))
}

func TestLike_PercentAndUnderscoreWildcards(t *testing.T) {
	require.True(t, Like("Charlie Smith", "%Smith"))
	require.True(t, Like("Jane Smith", "%smith"))
	require.False(t, Like("Charlie Jones", "%Smith"))
	require.True(t, Like("cat", "c_t"))
}

func TestTruthy(t *testing.T) {
	require.False(t, Truthy(NullValue()))
	require.False(t, Truthy(BoolValue(false)))
	require.True(t, Truthy(BoolValue(true)))
	require.True(t, Truthy(IntValue(0)))
}

func TestFormatGroupKey(t *testing.T) {
	require.Equal(t, "a:1", FormatGroupKey([]Value{StringValue("a"), IntValue(1)}))
}

func TestDecimalFromUnscaled_RoundTrips(t *testing.T) {
	v, err := DecimalFromString("-3.14000000")
	require.NoError(t, err)
	rt := DecimalFromUnscaled(v.AsDecimalUnscaled())
	require.Equal(t, v.String(), rt.String())
}
