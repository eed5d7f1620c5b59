package risk

import "testing"

func TestDeriveCriticalSample(t *testing.T) {
	a := Derive(Telemetry{LoadPercent: 96, Temperature: 72, Current: 528})

	if a.RiskScore < 85 || a.RiskScore > 99 {
		t.Fatalf("expected score in [85,99], got %d", a.RiskScore)
	}
	if a.Status != StatusCritical {
		t.Errorf("expected critical, got %s", a.Status)
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	in := Telemetry{Voltage: 236, Current: 462, Temperature: 64, LoadPercent: 82}

	first := Derive(in)
	second := Derive(in)

	if first != second {
		t.Errorf("same input produced different assessments: %+v vs %+v", first, second)
	}
}

func TestDeriveBounds(t *testing.T) {
	low := Derive(Telemetry{})
	if low.RiskScore != 5 {
		t.Errorf("expected floor of 5 for zero telemetry, got %d", low.RiskScore)
	}
	if low.Status != StatusHealthy {
		t.Errorf("expected healthy at floor, got %s", low.Status)
	}

	high := Derive(Telemetry{LoadPercent: 100, Temperature: 100, Current: 560})
	if high.RiskScore != 99 {
		t.Errorf("expected ceiling of 99, got %d", high.RiskScore)
	}
}

func TestStatusThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Status
	}{
		{5, StatusHealthy},
		{59, StatusHealthy},
		{60, StatusRisk},
		{84, StatusRisk},
		{85, StatusCritical},
		{99, StatusCritical},
	}
	for _, tc := range cases {
		if got := StatusFromScore(tc.score); got != tc.want {
			t.Errorf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
