package input

import "testing"

type countingSource struct {
	*Static
	polls int
}

func (c *countingSource) PollBoolean(id string) bool {
	c.polls++
	return c.Static.PollBoolean(id)
}

func TestPoller_CachesWithinTick(t *testing.T) {
	src := &countingSource{Static: NewStatic()}
	p := NewPoller(src)

	src.SetButton("x", true)
	if !p.Button("x") {
		t.Fatal("first read should sample the source")
	}
	src.SetButton("x", false)
	for i := 0; i < 3; i++ {
		if !p.Button("x") {
			t.Fatal("value must stay cached until the next Poll")
		}
	}
	if src.polls != 1 {
		t.Errorf("polls before Poll = %d, want 1", src.polls)
	}

	p.Poll()
	if p.Button("x") {
		t.Error("Poll should refresh the cached value")
	}
	if src.polls != 2 {
		t.Errorf("polls = %d, want 2", src.polls)
	}
}

func TestPoller_Axis(t *testing.T) {
	src := NewStatic()
	p := NewPoller(src)
	src.SetAxis("leftY", -0.5)
	if got := p.Axis("leftY"); got != -0.5 {
		t.Errorf("Axis = %v, want -0.5", got)
	}
	src.SetAxis("leftY", 0.25)
	p.Poll()
	if got := p.Axis("leftY"); got != 0.25 {
		t.Errorf("Axis after Poll = %v, want 0.25", got)
	}
	cond := p.ButtonFunc("a")
	if cond() {
		t.Error("unset button should read false")
	}
}

func TestScript_PlayerAppliesStepsInOrder(t *testing.T) {
	sc, err := ParseScript([]byte(`
steps:
  - tick: 10
    buttons: {x: false}
  - tick: 2
    buttons: {x: true}
    axes: {leftY: 0.8}
  - tick: 5
    mode: teleop
    disconnect: [drive.frontLeft]
`))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if sc.Steps[0].Tick != 2 {
		t.Fatalf("steps not sorted: %+v", sc.Steps)
	}

	p := NewPlayer(sc)
	if due := p.Advance(1); len(due) != 0 {
		t.Errorf("tick 1 due = %v", due)
	}
	p.Advance(2)
	if !p.PollBoolean("x") || p.PollAxis("leftY") != 0.8 {
		t.Error("tick 2 values not applied")
	}
	due := p.Advance(7)
	if len(due) != 1 || due[0].Mode != "teleop" || due[0].Disconnect[0] != "drive.frontLeft" {
		t.Errorf("tick 7 due = %+v", due)
	}
	if p.Done() {
		t.Error("not done before tick 10")
	}
	p.Advance(10)
	if p.PollBoolean("x") || !p.Done() {
		t.Error("tick 10 should release x and finish the script")
	}
}

func TestParseScript_Invalid(t *testing.T) {
	if _, err := ParseScript([]byte("steps: [tick: 1")); err == nil {
		t.Error("expected parse error")
	}
}
