package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	starts   []int64
	updates  []int64
	finished int
}

func (r *recorder) Start(total int64, _ string) { r.starts = append(r.starts, total) }
func (r *recorder) Update(current int64)        { r.updates = append(r.updates, current) }
func (r *recorder) Finish()                     { r.finished++ }
func (r *recorder) Error(error)                 {}
func (r *recorder) SetDescription(string)       {}

func TestCounterStartsOnceAndFinishesAtTotal(t *testing.T) {
	r := &recorder{}
	report := Counter(r, "Moving")

	report(1, 3)
	report(2, 3)
	assert.Zero(t, r.finished)
	report(3, 3)

	assert.Equal(t, []int64{3}, r.starts)
	assert.Equal(t, []int64{1, 2, 3}, r.updates)
	assert.Equal(t, 1, r.finished)
}

func TestCLIProgressWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	p := NewCLIProgressWriter(&buf)
	p.Start(2, "Sharing")
	p.Update(1)
	p.Update(2)
	p.Finish()
	assert.Contains(t, buf.String(), "Sharing")

	buf.Reset()
	p.Error(errors.New("boom"))
	assert.Contains(t, buf.String(), "Error: boom")
}

func TestCLIProgressIgnoresUpdatesBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	p := NewCLIProgressWriter(&buf)
	assert.NotPanics(t, func() {
		p.Update(1)
		p.SetDescription("x")
		p.Finish()
	})
	assert.Empty(t, buf.String())
}
