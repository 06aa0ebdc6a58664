package pg

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRows struct {
	vals []string
	i    int
	err  error
}

func (r *fakeRows) Next() bool { r.i++; return r.i <= len(r.vals) }
func (r *fakeRows) Scan(dst ...any) error {
	*(dst[0].(*string)) = r.vals[r.i-1]
	return nil
}
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     {}

type fakeQuerier struct {
	rows *fakeRows
	err  error
}

func (f fakeQuerier) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (f fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}
func (f fakeQuerier) QueryRow(context.Context, string, ...any) Row { return nil }

func TestMany(t *testing.T) {
	t.Parallel()
	scan := func(r Row) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	}

	got, err := Many(context.Background(), fakeQuerier{rows: &fakeRows{vals: []string{"a", "b"}}}, scan, "q")
	if err != nil || len(got) != 2 || got[1] != "b" {
		t.Fatalf("Many = %v, %v", got, err)
	}

	if _, err := Many(context.Background(), fakeQuerier{err: errors.New("down")}, scan, "q"); err == nil {
		t.Fatalf("query error should propagate")
	}
	rowsErr := &fakeRows{err: errors.New("mid-stream")}
	if _, err := Many(context.Background(), fakeQuerier{rows: rowsErr}, scan, "q"); err == nil {
		t.Fatalf("rows.Err should propagate")
	}
}

type recTracer struct{ evs []QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev QueryEvent) { r.evs = append(r.evs, ev) }

func TestTracingEmit(t *testing.T) {
	t.Parallel()
	rec := &recTracer{}
	tr := tracing{tracer: rec, slowUS: 0}
	tr.emit(context.Background(), "select 1", nil, started(), nil)
	if len(rec.evs) != 1 || !rec.evs[0].Slow {
		t.Fatalf("slowUS=0 marks every statement slow: %+v", rec.evs)
	}
	tracing{}.emit(context.Background(), "x", nil, started(), nil) // nil tracer is a no-op
}

func started() time.Time { return time.Now() }
