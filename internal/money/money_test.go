package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr error
		want    string
	}{
		{"two decimals", "9.99", nil, "9.99"},
		{"one decimal", "10.5", nil, "10.50"},
		{"integer", "10", nil, "10.00"},
		{"zero", "0", nil, "0.00"},
		{"trimmed", " 3.10 ", nil, "3.10"},
		{"max", "99999999.99", nil, "99999999.99"},
		{"negative", "-1.00", ErrNegative, ""},
		{"three decimals", "10.500", ErrTooManyPlaces, ""},
		{"too large", "100000000.00", ErrTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := Parse(tt.value)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, amount.String())
		})
	}

	t.Run("not a number", func(t *testing.T) {
		_, err := Parse("abc")
		require.Error(t, err)
	})
}

func TestArithmetic(t *testing.T) {
	price := MustParse("9.99")

	require.Equal(t, "29.97", price.Times(3).String())
	require.Equal(t, "39.96", price.Times(3).Plus(price).String())
	require.True(t, Zero.Plus(price).Equal(price))
	require.True(t, MustParse("10").Equal(MustParse("10.00")))
}

func TestJSON(t *testing.T) {
	t.Run("marshal fixed places", func(t *testing.T) {
		out, err := json.Marshal(struct {
			Price Amount `json:"price"`
		}{Price: MustParse("10")})

		require.NoError(t, err)
		require.JSONEq(t, `{"price":"10.00"}`, string(out))
	})

	t.Run("unmarshal string and number", func(t *testing.T) {
		for _, raw := range []string{`"9.99"`, `9.99`} {
			var amount Amount
			require.NoError(t, json.Unmarshal([]byte(raw), &amount))
			require.Equal(t, "9.99", amount.String())
		}
	})

	t.Run("unmarshal keeps scale for validation", func(t *testing.T) {
		var amount Amount
		require.NoError(t, json.Unmarshal([]byte(`"1.999"`), &amount))
		require.ErrorIs(t, amount.Validate(), ErrTooManyPlaces)
	})

	t.Run("unmarshal null", func(t *testing.T) {
		var amount Amount
		require.Error(t, json.Unmarshal([]byte(`null`), &amount))
	})
}

func TestScan(t *testing.T) {
	var amount Amount
	require.NoError(t, amount.Scan("12.30"))
	require.Equal(t, "12.30", amount.String())
}
