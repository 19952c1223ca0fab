package health

import (
	"context"
	"testing"
	"time"
)

type staticChecker struct {
	name    string
	healthy bool
}

func (c staticChecker) Check(context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: c.healthy}
	if !c.healthy {
		res.Error = "unreachable"
	}
	return res
}

func TestReadyAggregatesCheckers(t *testing.T) {
	ctx := context.Background()

	t.Run("all healthy", func(t *testing.T) {
		runner := NewProbeRunner(time.Second, 0, staticChecker{"database", true}, staticChecker{"redis", true})
		ready, results := runner.Ready(ctx)
		if !ready {
			t.Fatal("expected ready")
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("one unhealthy fails the probe", func(t *testing.T) {
		runner := NewProbeRunner(time.Second, 0, staticChecker{"database", true}, staticChecker{"redis", false})
		ready, results := runner.Ready(ctx)
		if ready {
			t.Fatal("expected not ready")
		}
		var found bool
		for _, res := range results {
			if res.Name == "redis" && !res.Healthy && res.Error != "" {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected failing redis result, got %+v", results)
		}
	})
}

func TestReadyDuringGracePeriod(t *testing.T) {
	runner := NewProbeRunner(time.Second, time.Hour, staticChecker{"database", true})
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("probe must fail during the grace period")
	}
	if len(results) != 1 || results[0].Name != "startup_grace" {
		t.Fatalf("expected startup_grace result, got %+v", results)
	}
}

func TestNilRunnerIsAlwaysReady(t *testing.T) {
	var runner *ProbeRunner
	ready, results := runner.Ready(context.Background())
	if !ready || results != nil {
		t.Fatalf("nil runner must report ready, got %v %v", ready, results)
	}
}

func TestNoCheckersIsReady(t *testing.T) {
	runner := NewProbeRunner(0, 0)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatal("no checkers means nothing can fail")
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}
