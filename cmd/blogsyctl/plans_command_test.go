// AngelaMos | 2026
// plans_command_test.go

package main

import (
	"strings"
	"testing"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/plan"
)

func TestRenderPlans(t *testing.T) {
	out := renderPlans(plan.NewCatalog(config.PlansConfig{ProPriceID: "price_pro"}).All())

	for _, want := range []string{"starter", "basic", "pro", "price_pro", "unlimited"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	if !strings.Contains(out, "only") {
		t.Fatalf("table = %s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("headerless table should render empty")
	}
}

func TestLimitLabel(t *testing.T) {
	if got := limitLabel(plan.Unlimited); got != "unlimited" {
		t.Fatalf("limitLabel(-1) = %q", got)
	}
	if got := limitLabel(3); got != "3" {
		t.Fatalf("limitLabel(3) = %q", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"migrate", "plans", "usage"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}
