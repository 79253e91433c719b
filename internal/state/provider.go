// Package state holds the observable browsing state: paged listings of
// Box items, the per-item view state shown in a row, debounced search,
// and folder creation.
//
// All mutations run on the provider's dispatch queue. Readers on other
// goroutines see a consistent snapshot through the accessor methods.
package state

import (
	"context"
	"image"

	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/thumbnail"
)

// Provider is the remote side of browsing. services.FolderService
// implements it against the Box API.
type Provider interface {
	// Queue is the serial context every result is delivered on.
	Queue() *dispatch.Queue

	// Enumerator pages through the contents of a folder.
	Enumerator(folderID string) *enumerator.Enumerator

	// Search pages through the matches for query below folderID.
	Search(query, folderID string) *enumerator.Enumerator

	// LoadThumbnail fetches a square thumbnail and calls done on the queue
	// with the image, or nil on failure. done never runs before
	// LoadThumbnail returns, and not at all once the token is cancelled.
	LoadThumbnail(fileID string, size int, done func(image.Image)) *thumbnail.Token

	FolderInfo(ctx context.Context, folderID string) (*models.Folder, error)
	CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error)
	MoveItem(ctx context.Context, id models.Identifier, parentID string) (models.Item, error)
	CopyItem(ctx context.Context, id models.Identifier, parentID string) (models.Item, error)
	SetSharedLink(ctx context.Context, id models.Identifier, access string) (models.Item, error)
}
