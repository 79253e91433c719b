package state

import (
	"strings"

	"github.com/rescale/box-browse/internal/models"
)

const (
	breadcrumbSeparator = " ≫ "
	breadcrumbEllipsis  = "⋯"
	maxBreadcrumbNames  = 3
)

// Breadcrumbs renders an ancestor path, root first, as a short location
// string. The root folder ("All Files") is left out when deeper folders
// follow it. Paths with more than three names keep the first two and the
// last, with an ellipsis in between. An empty path yields "".
func Breadcrumbs(path []models.Folder) string {
	if len(path) > 1 && path[0].ID == models.RootFolderID {
		path = path[1:]
	}
	names := make([]string, 0, len(path))
	for _, folder := range path {
		names = append(names, folder.Name)
	}
	if len(names) > maxBreadcrumbNames {
		last := names[len(names)-1]
		names = append(names[:2], breadcrumbEllipsis, last)
	}
	return strings.Join(names, breadcrumbSeparator)
}
