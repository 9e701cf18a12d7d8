package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_MarshalsFixedTwoDecimals(t *testing.T) {
	out, err := json.Marshal(struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}{
		A: NewMoney(decimal.NewFromInt(80000)),
		B: NewMoney(decimal.RequireFromString("1.005")),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"80000.00","b":"1.01"}`, string(out))
}

func TestMoney_Unmarshal(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"12.30"`), &m))
	assert.True(t, m.Equal(decimal.RequireFromString("12.3")))
}
