package jsonconf

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Rule is a compiled CEL expression over the variable `self`, bound to the
// raw JSON being validated. The expression must evaluate to true.
type Rule struct {
	Expr    string
	Message string
	prg     cel.Program
}

var errRuleNotBool = errors.New("rule did not evaluate to a bool")

// CompileRule compiles expr. message is reported when the rule fails; when
// empty the expression text is used.
func CompileRule(expr, message string) (*Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable("self", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, NewSchemaError(expr, ErrBadDeclaration, err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, NewSchemaError(expr, ErrBadDeclaration, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, NewSchemaError(expr, ErrBadDeclaration, err)
	}
	if message == "" {
		message = expr
	}
	return &Rule{Expr: expr, Message: message, prg: prg}, nil
}

// MustCompileRule is like CompileRule but panics on error.
func MustCompileRule(expr, message string) *Rule {
	r, err := CompileRule(expr, message)
	if err != nil {
		panic(err)
	}
	return r
}

// Check evaluates the rule against raw.
func (r *Rule) Check(raw any) error {
	out, _, err := r.prg.Eval(map[string]any{"self": raw})
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return fmt.Errorf("rule %q: %w", r.Expr, errRuleNotBool)
	}
	if !ok {
		return errors.New(r.Message)
	}
	return nil
}

// Rules combines rules and an optional extra hook into one
// SpecialValidation. Rules run in order and the first failure is returned.
func Rules(extra SpecialValidation, rules ...*Rule) SpecialValidation {
	if len(rules) == 0 {
		return extra
	}
	return func(raw any) error {
		for _, r := range rules {
			if err := r.Check(raw); err != nil {
				return err
			}
		}
		if extra != nil {
			return extra(raw)
		}
		return nil
	}
}
