package idt

import (
	"strings"
	"testing"
)

func TestBudgetFor(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		level OptLevel
		size  int
		want  int
	}{
		{OptCold, 10, 10},
		{OptCold, 5000, 10},
		{OptWarm, 100, 250},
		{OptWarm, 249, 250},
		{OptWarm, 250, 10},
		{OptHot, 100, 1500},
		{OptHot, 1000, 2000},
		{OptScorching, 750, 1500},
		{OptVeryHot, 751, 1502},
	}
	for _, tt := range tests {
		if got := opts.BudgetFor(tt.level, tt.size); got != tt.want {
			t.Errorf("BudgetFor(%s, %d) = %d, want %d", tt.level, tt.size, got, tt.want)
		}
	}
}

func TestParseOptLevel(t *testing.T) {
	for _, l := range []OptLevel{OptCold, OptWarm, OptHot, OptVeryHot, OptScorching} {
		got, err := ParseOptLevel(strings.ToUpper(l.String()))
		if err != nil || got != l {
			t.Errorf("ParseOptLevel(%q) = %v, %v", l, got, err)
		}
	}
	if _, err := ParseOptLevel("lukewarm"); err == nil {
		t.Error("ParseOptLevel accepted an unknown level")
	}
	if got := OptLevel(9).String(); got != "OptLevel(9)" {
		t.Errorf("String() = %q", got)
	}
}

func TestLoadOptions(t *testing.T) {
	doc := `
min_root_call_ratio: 0.01
max_depth: 3
warm_budget: 400
interpreter:
  strict_mode: true
  max_stack_depth: 64
log_level: debug
`
	opts, err := LoadOptions(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MinRootCallRatio != 0.01 || opts.MaxDepth != 3 || opts.WarmBudget != 400 {
		t.Errorf("opts = %+v", opts)
	}
	if !opts.Interpreter.StrictMode || opts.Interpreter.MaxStackDepth != 64 {
		t.Errorf("interpreter opts = %+v", opts.Interpreter)
	}
	if opts.ColdBudget != 10 || opts.HotBudgetFloor != 1500 || opts.PredicateWeight != 1 {
		t.Errorf("defaults not kept: %+v", opts)
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", opts.LogLevel)
	}
}

func TestLoadOptionsEmpty(t *testing.T) {
	opts, err := LoadOptions(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MinRootCallRatio != DefaultOptions().MinRootCallRatio {
		t.Errorf("empty document changed options: %+v", opts)
	}
}

func TestLoadOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "max_width: 3\n", "max_width"},
		{"ratio above one", "min_root_call_ratio: 2\n", "min_root_call_ratio"},
		{"negative ratio", "min_root_call_ratio: -0.5\n", "min_root_call_ratio"},
		{"negative weight", "predicate_weight: -1\n", "predicate_weight"},
		{"wrong type", "max_depth: deep\n", "failed to decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOptions(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("LoadOptions succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
