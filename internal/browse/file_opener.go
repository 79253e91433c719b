package browse

import (
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/predicate"
)

// OpenFunc opens a file and reports what happens to its row.
type OpenFunc func(file *models.File, nav Navigator) SelectionBehavior

// ScreenFactory builds the screen showing a file. Returning nil declines.
type ScreenFactory func(file *models.File) Screen

// Presentation shows a file by pushing or presenting a screen.
type Presentation struct {
	present bool
	build   ScreenFactory
}

// Push shows files by pushing the screen built by build. The row stays
// selected while pushed.
func Push(build ScreenFactory) Presentation {
	return Presentation{build: build}
}

// Present shows files modally.
func Present(build ScreenFactory) Presentation {
	return Presentation{present: true, build: build}
}

func (p Presentation) open(file *models.File, nav Navigator) SelectionBehavior {
	if nav == nil || p.build == nil {
		return Deselect
	}
	screen := p.build(file)
	if screen == nil {
		return Deselect
	}
	if p.present {
		nav.Present(screen)
		return Deselect
	}
	if nav.Push(screen) {
		return RemainSelected
	}
	return Deselect
}

// FileOpener decides which files can be opened and how. The zero value
// opens nothing. Rules added later only apply to files no earlier rule
// accepts.
//
// FileOpener is a value; the For methods return a new opener.
type FileOpener struct {
	rules predicate.Table[*models.File, Navigator, SelectionBehavior]
}

// NewFileOpener returns an opener with a single rule.
func NewFileOpener(canOpen predicate.Predicate[*models.File], open OpenFunc) FileOpener {
	return FileOpener{}.ForFiles(canOpen, open)
}

// CanOpen reports whether some rule accepts file.
func (o FileOpener) CanOpen(file *models.File) bool {
	return o.rules.CanHandle(file)
}

// Open opens file with the first rule accepting it. Files no rule accepts
// are deselected.
func (o FileOpener) Open(file *models.File, nav Navigator) SelectionBehavior {
	behavior, ok := o.rules.Handle(file, nav)
	if !ok {
		return Deselect
	}
	return behavior
}

// ForFiles adds a rule for files matching match.
func (o FileOpener) ForFiles(match predicate.Predicate[*models.File], open OpenFunc) FileOpener {
	return FileOpener{rules: o.rules.With(match, predicate.Handler[*models.File, Navigator, SelectionBehavior](open))}
}

// ForExtension adds a rule for files with extension ext that grant
// required permissions.
func (o FileOpener) ForExtension(ext string, required models.Permissions, p Presentation) FileOpener {
	match := predicate.Extension(ext).And(predicate.HasPermissions[*models.File](required))
	return o.ForFiles(match, p.open)
}

// ForExtensions adds a rule for files with any of exts.
func (o FileOpener) ForExtensions(exts []string, required models.Permissions, p Presentation) FileOpener {
	match := predicate.HasPermissions[*models.File](required).And(predicate.Extensions(exts...))
	return o.ForFiles(match, p.open)
}

// ForGlob adds a rule for files whose name matches pattern.
func (o FileOpener) ForGlob(pattern string, required models.Permissions, p Presentation) (FileOpener, error) {
	match, err := predicate.Glob(pattern)
	if err != nil {
		return o, err
	}
	return o.ForFiles(match.And(predicate.HasPermissions[*models.File](required)), p.open), nil
}
