package calc

import (
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/gcalc/log2"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct{ input, expect string }{
		{"7+2", "7+2"},
		{"2x", "2*x"},
		{"x^2", "x**2"},
		{"3(x+1)", "3*(x+1)"},
		{"(x+1)(x-1)", "(x+1)*(x-1)"},
		{"2sin(x)", "2*sin(x)"},
		{"xsqrt(x)", "x*sqrt(x)"},
		{"(x)2", "(x)*2"},
		{"1.5 x", "1.5*x"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, Normalize(c.input), c.input)
	}
}

func TestEval(t *testing.T) {
	t.Parallel()

	c := New(log2.NewTest(t, log2.LDebug))
	cases := []struct {
		expr   string
		x      float64
		expect float64
	}{
		{"7+2", 0, 9},
		{"2x+1", 3, 7},
		{"x^2", -3, 9},
		{"sin(x)", 0, 0},
		{"cos(x)", 0, 1},
		{"sqrt(x)", 16, 4},
		{"log(x)", 1000, 3},
		{"ln(x)", math.E, 1},
		{"abs(x)", -2.5, 2.5},
		{"-x", 4, -4},
	}
	for _, tc := range cases {
		v, err := c.Eval(tc.expr, tc.x)
		require.NoError(t, err, tc.expr)
		assert.InDelta(t, tc.expect, v, 1e-9, tc.expr)
	}
}

func TestCheckValidExpression(t *testing.T) {
	t.Parallel()

	c := New(log2.NewTest(t, log2.LDebug))
	assert.NoError(t, c.CheckValidExpression("3sqrt(x)", true))
	assert.Error(t, c.CheckValidExpression("3sqrt(x", true))
	assert.Error(t, c.CheckValidExpression("x+", false))
	assert.Error(t, c.CheckValidExpression("", false))
	err := c.CheckValidExpression("y+1", false)
	assert.True(t, errors.IsNotValid(errors.Cause(err)))
}
