package bindexpr

import (
	"testing"

	"github.com/me/cmdbot/internal/logging"
)

type fakeInputs struct {
	buttons map[string]bool
	axes    map[string]float64
}

func (f *fakeInputs) Button(id string) bool  { return f.buttons[id] }
func (f *fakeInputs) Axis(id string) float64 { return f.axes[id] }

func newEnv(t *testing.T, in *fakeInputs, mode string) *Env {
	t.Helper()
	env, err := NewEnv(in, func() string { return mode }, logging.Discard())
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	return env
}

func TestExpr_Eval(t *testing.T) {
	in := &fakeInputs{
		buttons: map[string]bool{"x": true, "a": false},
		axes:    map[string]float64{"leftY": 0.7},
	}
	env := newEnv(t, in, "teleop")

	tests := []struct {
		expr string
		want bool
	}{
		{"button('x')", true},
		{"button('a')", false},
		{"button('x') && !button('a')", true},
		{"axis('leftY') > 0.5", true},
		{"axis('leftY') > 0.9", false},
		{"mode() === 'teleop' && button('x')", true},
		{"axis('missing')", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			x, err := env.Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			got, err := x.Eval()
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpr_TracksInputChanges(t *testing.T) {
	in := &fakeInputs{buttons: map[string]bool{}}
	env := newEnv(t, in, "")
	x, err := env.Compile("button('b')")
	if err != nil {
		t.Fatal(err)
	}
	cond := x.Condition()
	if cond() {
		t.Error("released button should be false")
	}
	in.buttons["b"] = true
	if !cond() {
		t.Error("pressed button should be true")
	}
}

func TestCompile_Errors(t *testing.T) {
	env := newEnv(t, &fakeInputs{}, "")
	for _, src := range []string{"", "   ", "button('x' &&"} {
		if _, err := env.Compile(src); err == nil {
			t.Errorf("Compile(%q) should fail", src)
		}
	}
}

func TestCondition_RuntimeErrorIsFalse(t *testing.T) {
	env := newEnv(t, &fakeInputs{}, "")
	x, err := env.Compile("undefinedFn()")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := x.Eval(); err == nil {
		t.Fatal("Eval should report the ReferenceError")
	}
	cond := x.Condition()
	if cond() || cond() {
		t.Error("failing condition must read false")
	}
}
