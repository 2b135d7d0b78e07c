package listener

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	Adapter
	calls []string
}

func (r *recorder) OnFailure(res *Result) { r.calls = append(r.calls, "F:"+res.Name) }
func (r *recorder) OnSuccess(res *Result) { r.calls = append(r.calls, ".:"+res.Name) }

func TestDispatch(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindFailure, "F:a"},
		{KindSuccess, ".:a"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			rec := &recorder{}
			Dispatch(rec, tt.kind, &Result{Name: "a"})
			assert.Equal(t, []string{tt.expected}, rec.calls)
		})
	}

	t.Run("skipped falls through embedded adapter", func(t *testing.T) {
		rec := &recorder{}
		Dispatch(rec, KindSkipped, &Result{Name: "a"})
		assert.Empty(t, rec.calls)
	})
}

func TestMulti(t *testing.T) {
	first := &recorder{}
	second := &recorder{}
	m := Multi{first, second}

	m.OnSuccess(&Result{Name: "one"})
	m.OnFailure(&Result{Name: "two"})
	m.OnSkipped(&Result{Name: "three"})

	assert.Equal(t, []string{".:one", "F:two"}, first.calls)
	assert.Equal(t, first.calls, second.calls)
}

func TestFuncs(t *testing.T) {
	var skipped []string
	f := Funcs{Skipped: func(r *Result) { skipped = append(skipped, r.Name) }}

	f.OnSuccess(&Result{Name: "ignored"})
	f.OnFailure(&Result{Name: "ignored"})
	f.OnSkipped(&Result{Name: "kept"})

	assert.Equal(t, []string{"kept"}, skipped)
}

func TestResult_FullName(t *testing.T) {
	assert.Equal(t, "", (*Result)(nil).FullName())
	assert.Equal(t, "TestA", (&Result{Name: "TestA"}).FullName())
	assert.Equal(t, "pkg/x.TestA", (&Result{Package: "pkg/x", Name: "TestA"}).FullName())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "failure", KindFailure.String())
	assert.Equal(t, "skipped", KindSkipped.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
