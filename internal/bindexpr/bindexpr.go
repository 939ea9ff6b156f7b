// Package bindexpr compiles JavaScript binding conditions such as
// "button('x') && axis('leftY') > 0.5" into trigger conditions.
package bindexpr

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
	"github.com/me/cmdbot/internal/logging"
)

// Inputs is what expressions can read.
type Inputs interface {
	Button(id string) bool
	Axis(id string) float64
}

// Env holds the JavaScript runtime shared by every compiled expression.
// It is not safe for concurrent use; evaluate only from the loop goroutine.
type Env struct {
	vm     *goja.Runtime
	logger *slog.Logger
}

// NewEnv creates a runtime exposing button(id), axis(id) and mode().
// mode may be nil, in which case mode() returns "".
func NewEnv(in Inputs, mode func() string, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.Default()
	}
	vm := goja.New()
	if err := vm.Set("button", in.Button); err != nil {
		return nil, fmt.Errorf("set button: %w", err)
	}
	if err := vm.Set("axis", in.Axis); err != nil {
		return nil, fmt.Errorf("set axis: %w", err)
	}
	if mode == nil {
		mode = func() string { return "" }
	}
	if err := vm.Set("mode", mode); err != nil {
		return nil, fmt.Errorf("set mode: %w", err)
	}
	return &Env{vm: vm, logger: logging.Component(logger, "bindexpr")}, nil
}

// Expr is a compiled condition.
type Expr struct {
	env     *Env
	source  string
	prog    *goja.Program
	lastErr string
}

// Compile parses src. Syntax errors are reported here rather than at
// evaluation time.
func (e *Env) Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}
	prog, err := goja.Compile("binding", "("+src+")", true)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Expr{env: e, source: src, prog: prog}, nil
}

// Source returns the expression text.
func (x *Expr) Source() string { return x.source }

// Eval runs the expression and converts the result to a boolean using
// JavaScript truthiness.
func (x *Expr) Eval() (bool, error) {
	v, err := x.env.vm.RunProgram(x.prog)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", x.source, err)
	}
	return v.ToBoolean(), nil
}

// Condition adapts the expression to a trigger condition. A failing
// evaluation counts as false; each new error message is logged once.
func (x *Expr) Condition() func() bool {
	return func() bool {
		ok, err := x.Eval()
		if err != nil {
			if msg := err.Error(); msg != x.lastErr {
				x.lastErr = msg
				x.env.logger.Warn("binding condition failed", "expr", x.source, "error", err)
			}
			return false
		}
		x.lastErr = ""
		return ok
	}
}
