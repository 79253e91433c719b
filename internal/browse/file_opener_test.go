package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/box-browse/internal/models"
)

func namedFile(name string, download bool) *models.File {
	return &models.File{Type: models.TypeFile, ID: name, Name: name, Permissions: perms(download, false, false)}
}

func TestFileOpenerZeroValueOpensNothing(t *testing.T) {
	var o FileOpener
	f := namedFile("a.pdf", true)
	assert.False(t, o.CanOpen(f))
	assert.Equal(t, Deselect, o.Open(f, NewStack(nil)))
}

func TestFileOpenerRulesApplyInOrder(t *testing.T) {
	nav := NewStack(nil)
	first := Push(func(f *models.File) Screen { return "first:" + f.Name })
	second := Present(func(f *models.File) Screen { return "second:" + f.Name })

	o := FileOpener{}.
		ForExtension(".PDF", models.PermDownload, first).
		ForExtensions([]string{"pdf", "png"}, 0, second)

	assert.Equal(t, RemainSelected, o.Open(namedFile("a.pdf", true), nav))
	assert.Equal(t, "first:a.pdf", nav.Top())

	// Without download permission the first rule declines.
	assert.Equal(t, Deselect, o.Open(namedFile("b.pdf", false), nav))
	assert.Equal(t, []Screen{"second:b.pdf"}, nav.Presented())

	assert.True(t, o.CanOpen(namedFile("c.png", false)))
	assert.False(t, o.CanOpen(namedFile("c.txt", true)))
}

func TestFileOpenerIsAValue(t *testing.T) {
	base := FileOpener{}
	extended := base.ForExtension("pdf", 0, Push(func(*models.File) Screen { return "x" }))
	assert.False(t, base.CanOpen(namedFile("a.pdf", true)))
	assert.True(t, extended.CanOpen(namedFile("a.pdf", true)))
}

func TestFileOpenerForGlob(t *testing.T) {
	o, err := FileOpener{}.ForGlob("report-*.{csv,xlsx}", 0, Push(func(f *models.File) Screen { return f.Name }))
	require.NoError(t, err)
	assert.True(t, o.CanOpen(namedFile("Report-2024.CSV", true)))
	assert.False(t, o.CanOpen(namedFile("summary.csv", true)))

	_, err = FileOpener{}.ForGlob("[", 0, Push(nil))
	assert.Error(t, err)
}

func TestPresentationDeclines(t *testing.T) {
	declining := Push(func(*models.File) Screen { return nil })
	o := FileOpener{}.ForExtension("pdf", 0, declining)
	assert.True(t, o.CanOpen(namedFile("a.pdf", true)))
	assert.Equal(t, Deselect, o.Open(namedFile("a.pdf", true), NewStack(nil)))
	assert.Equal(t, Deselect, o.Open(namedFile("a.pdf", true), nil))
}
