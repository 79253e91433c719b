package predicate

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/rescale/box-browse/internal/models"
)

// FileExtension returns the lower-cased extension of f without the dot.
// Box normally reports it; otherwise it is taken from the name.
func FileExtension(f *models.File) string {
	ext := f.Extension
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(f.Name), ".")
	}
	return strings.ToLower(ext)
}

// AllFiles matches every file.
func AllFiles() Predicate[*models.File] {
	return Always[*models.File]()
}

// Extension matches files with the given extension, case-insensitively.
// A leading dot is ignored.
func Extension(ext string) Predicate[*models.File] {
	want := strings.ToLower(strings.TrimPrefix(ext, "."))
	return func(f *models.File) bool {
		return FileExtension(f) == want
	}
}

// Extensions matches files with any of the given extensions.
func Extensions(exts ...string) Predicate[*models.File] {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return func(f *models.File) bool {
		_, ok := set[FileExtension(f)]
		return ok
	}
}

// Glob matches files whose name matches a shell-style pattern such as
// "report-*.pdf" or "*.{jpg,png}". Matching is case-insensitive.
func Glob(pattern string) (Predicate[*models.File], error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return func(f *models.File) bool {
		return g.Match(strings.ToLower(f.Name))
	}, nil
}

// MustGlob is like Glob but panics on an invalid pattern.
func MustGlob(pattern string) Predicate[*models.File] {
	p, err := Glob(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// HasPermissions matches items whose permissions include all of required.
func HasPermissions[T models.Item](required models.Permissions) Predicate[T] {
	return func(item T) bool {
		return required.Matches(item)
	}
}
