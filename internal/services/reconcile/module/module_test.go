package module

import (
	"context"
	"testing"

	"unievents/internal/modkit"
	modreg "unievents/internal/modkit/module"
	"unievents/internal/platform/config"
	"unievents/internal/platform/store/changefeed"
	"unievents/internal/platform/store/docstore/memdoc"
)

func TestNew_FromConfig(t *testing.T) {
	t.Setenv("RECONCILE_SCHEDULE", "")
	t.Setenv("RECONCILE_COLLECTIONS", "")
	m, err := New(modkit.Deps{Cfg: config.New(), Docs: memdoc.New(changefeed.NewHub())})
	if err != nil {
		t.Fatal(err)
	}
	if o := m.Options(); o.Schedule != "@every 1h" || len(o.Collections) != 2 {
		t.Fatalf("options = %+v", o)
	}
	ports := modreg.MustPortsOf[Ports](m)
	reports, err := ports.Runner.RunOnce(context.Background())
	if err != nil || len(reports) != 2 {
		t.Fatalf("run = %+v %v", reports, err)
	}
}

func TestNew_UnknownCollection(t *testing.T) {
	t.Setenv("RECONCILE_COLLECTIONS", "departments,venues")
	if _, err := New(modkit.Deps{Cfg: config.New(), Docs: memdoc.New(changefeed.NewHub())}); err == nil {
		t.Fatal("expected an error for venues")
	}
}
