package strategy

import (
	"testing"

	"crossover-backtester/internal/model"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"crossover_target", KindCrossoverTarget, false},
		{" Crossover_Rise ", KindCrossoverRise, false},
		{"TREND_FOLLOW", KindTrendFollow, false},
		{"", KindCrossoverTarget, false},
		{"grid", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	sig := &scriptedSignaler{actions: [][]model.TradeAction{nil}}

	for _, kind := range []Kind{KindTrendFollow, KindCrossoverRise, KindCrossoverTarget} {
		s, err := Build(kind, DefaultParams(), sig)
		if err != nil {
			t.Fatalf("Build(%s): %v", kind, err)
		}
		if s.Name() != string(kind) {
			t.Errorf("Build(%s).Name()=%s", kind, s.Name())
		}
	}

	if _, err := Build(KindTrendFollow, DefaultParams(), nil); err == nil {
		t.Error("expected error for trend_follow without signaler")
	}
	if _, err := Build("nope", DefaultParams(), sig); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParamsWithDefaults(t *testing.T) {
	p := Params{TradingPeriod: 5}.withDefaults()
	d := DefaultParams()
	if p.TradingPeriod != 5 {
		t.Errorf("TradingPeriod=%d, want 5", p.TradingPeriod)
	}
	if p.TargetScale != d.TargetScale || p.VolatilityThreshold != d.VolatilityThreshold || p.SpreadMultiple != d.SpreadMultiple {
		t.Errorf("zero fields not defaulted: %+v", p)
	}
}
