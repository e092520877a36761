package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iskomart/iskomart-backend/pkg/types"
)

func mustDecimal(t testing.TB, raw string) decimal.Decimal {
	t.Helper()
	d, err := types.ParseAmount(raw)
	require.NoError(t, err)
	return d
}
