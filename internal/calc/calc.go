// Package calc checks and evaluates keypad expressions in variable x.
// Keypad syntax: ^ is power, implicit multiplication "2x", "3(x+1)".
package calc

import (
	"math"
	"strings"
	"sync"

	"github.com/Knetic/govaluate"
	"github.com/juju/errors"
	"github.com/temoto/gcalc/log2"
)

const Variable = "x"

type Calc struct {
	Log   *log2.Log
	mu    sync.Mutex
	cache map[string]*govaluate.EvaluableExpression
}

func New(log *log2.Log) *Calc {
	return &Calc{
		Log:   log,
		cache: make(map[string]*govaluate.EvaluableExpression),
	}
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, errors.NotValidf("argument count=%d", len(args))
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, errors.NotValidf("argument %#v", args[0])
		}
		return f(v), nil
	}
}

var functions = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"sqrt": unary(math.Sqrt),
	"log":  unary(math.Log10),
	"ln":   unary(math.Log),
	"abs":  unary(math.Abs),
}

// Normalize rewrites keypad syntax into evaluator syntax.
func Normalize(expr string) string {
	var b strings.Builder
	b.Grow(len(expr) + 8)
	var prev byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == ' ' {
			continue
		}
		if implicitMul(prev, c) {
			b.WriteByte('*')
		}
		if c == '^' {
			b.WriteString("**")
		} else {
			b.WriteByte(c)
		}
		prev = c
	}
	return b.String()
}

func isDigit(c byte) bool  { return (c >= '0' && c <= '9') || c == '.' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' }

func implicitMul(prev, c byte) bool {
	switch {
	case prev == 0:
		return false
	case isDigit(prev):
		return isLetter(c) || c == '('
	case prev == ')', prev == 'x':
		return isLetter(c) || isDigit(c) || c == '('
	}
	return false
}

func (self *Calc) parse(expr string) (*govaluate.EvaluableExpression, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if e, ok := self.cache[expr]; ok {
		return e, nil
	}
	if strings.TrimSpace(expr) == "" {
		return nil, errors.NotValidf("empty expression")
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(Normalize(expr), functions)
	if err != nil {
		return nil, errors.Annotatef(err, "expression=%q", expr)
	}
	for _, v := range e.Vars() {
		if v != Variable {
			return nil, errors.NotValidf("expression=%q variable %s", expr, v)
		}
	}
	self.cache[expr] = e
	return e, nil
}

// CheckValidExpression parses expr and evaluates it once at x=1.
func (self *Calc) CheckValidExpression(expr string, report bool) error {
	_, err := self.Eval(expr, 1)
	if err != nil && report {
		self.Log.Infof("calc invalid %v", err)
	}
	return err
}

func (self *Calc) Eval(expr string, x float64) (float64, error) {
	e, err := self.parse(expr)
	if err != nil {
		return 0, err
	}
	result, err := e.Evaluate(map[string]interface{}{Variable: x})
	if err != nil {
		return 0, errors.Annotatef(err, "expression=%q", expr)
	}
	f, ok := result.(float64)
	if !ok {
		return 0, errors.NotValidf("expression=%q result %#v", expr, result)
	}
	return f, nil
}
