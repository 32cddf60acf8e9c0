package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpression_Evaluates(t *testing.T) {
	tests := []struct {
		source    string
		node      string
		inventory int
		demand    int
		want      int
	}{
		{"demand", "retailer", 10, 14, 14},
		{"max(0, 120 - inventory) + demand", "retailer", 100, 5, 25},
		{"max(0, 120 - inventory) + demand", "retailer", 200, 5, 5},
		{`node == "brewery" ? 40 : demand`, "brewery", 0, 9, 40},
		{`node == "brewery" ? 40 : demand`, "factory", 0, 9, 9},
		{"round(demand * 1.5)", "retailer", 0, 11, 17},
		{"ceil(demand / 4)", "retailer", 0, 9, 3},
		{"floor(demand / 4)", "retailer", 0, 9, 2},
		{"abs(inventory - 50)", "retailer", 30, 0, 20},
		{"min(demand, 10)", "retailer", 0, 25, 10},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			p, err := NewExpression(tt.source)
			require.NoError(t, err)
			got, err := p.OrderQuantity(tt.node, tt.inventory, tt.demand)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpression_NameCarriesSource(t *testing.T) {
	p, err := NewExpression("demand + 1")
	require.NoError(t, err)
	assert.Equal(t, "expression(demand + 1)", p.Name())
	assert.Equal(t, "demand + 1", p.Source())
}

func TestNewExpression_RejectsInvalidSource(t *testing.T) {
	for _, src := range []string{
		"",
		"   ",
		"demand +",
		"unknownVar + 1",
		`len("abc")`,
		`split(node, "e")`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := NewExpression(src)
			assert.Error(t, err)
		})
	}
}

func TestExpression_RejectsNonIntegralResults(t *testing.T) {
	for _, src := range []string{
		"demand / 4",
		"node",
		"demand > 3",
	} {
		t.Run(src, func(t *testing.T) {
			p, err := NewExpression(src)
			require.NoError(t, err)
			_, err = p.OrderQuantity("retailer", 0, 9)
			assert.Error(t, err)
		})
	}
}

func TestExpression_RejectsOutOfRangeResults(t *testing.T) {
	for _, src := range []string{
		"1e300",
		"1e19",
		"-1e19",
		"demand * 3000000000",
	} {
		t.Run(src, func(t *testing.T) {
			p, err := NewExpression(src)
			require.NoError(t, err)
			_, err = p.OrderQuantity("retailer", 0, 9)
			assert.ErrorContains(t, err, "outside")
		})
	}

	p, err := NewExpression("2147483647")
	require.NoError(t, err)
	got, err := p.OrderQuantity("retailer", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2147483647, got)
}

func TestExpression_NegativeResultIsReturned(t *testing.T) {
	// Sign is the simulator's concern; the expression reports what it computed.
	p, err := NewExpression("100 - inventory")
	require.NoError(t, err)
	got, err := p.OrderQuantity("retailer", 150, 0)
	require.NoError(t, err)
	assert.Equal(t, -50, got)
}
