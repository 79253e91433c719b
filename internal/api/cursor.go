package api

import (
	"context"
	"errors"

	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/models"
)

var errTooManyPages = errors.New("pagination limit reached")

// pageBuffer holds one server page and yields its items one at a time.
type pageBuffer struct {
	items []models.Item
	pages int
	done  bool
}

func (b *pageBuffer) pop() models.Item {
	item := b.items[0]
	b.items = b.items[1:]
	return item
}

// MarkerCursor walks a folder's items with marker paging.
type MarkerCursor struct {
	client   *Client
	folderID string
	limit    int
	fields   []string

	marker string
	buf    pageBuffer
}

var _ enumerator.Cursor = (*MarkerCursor)(nil)

// NewFolderCursor returns a cursor over the items of folderID, fetching
// limit items per server request.
func (c *Client) NewFolderCursor(folderID string, limit int, fields []string) *MarkerCursor {
	return &MarkerCursor{client: c, folderID: folderID, limit: clampLimit(limit), fields: fields}
}

// Next implements enumerator.Cursor.
func (mc *MarkerCursor) Next(ctx context.Context) (models.Item, error) {
	for len(mc.buf.items) == 0 {
		if mc.buf.done {
			return nil, enumerator.ErrEndOfList
		}
		if mc.buf.pages >= constants.MaxPaginationPages {
			return nil, errTooManyPages
		}

		page, err := mc.client.ListFolderItems(ctx, mc.folderID, mc.marker, mc.limit, mc.fields)
		if err != nil {
			return nil, err
		}
		mc.buf.pages++
		mc.buf.items = page.Entries
		mc.marker = page.NextMarker
		if page.NextMarker == "" {
			mc.buf.done = true
		}
	}
	return mc.buf.pop(), nil
}

// OffsetCursor walks search results with offset paging.
type OffsetCursor struct {
	client   *Client
	query    string
	folderID string
	limit    int
	fields   []string

	offset int
	buf    pageBuffer
}

var _ enumerator.Cursor = (*OffsetCursor)(nil)

// NewSearchCursor returns a cursor over search results for query within
// folderID.
func (c *Client) NewSearchCursor(query, folderID string, limit int, fields []string) *OffsetCursor {
	return &OffsetCursor{client: c, query: query, folderID: folderID, limit: clampLimit(limit), fields: fields}
}

// Next implements enumerator.Cursor.
func (oc *OffsetCursor) Next(ctx context.Context) (models.Item, error) {
	for len(oc.buf.items) == 0 {
		if oc.buf.done {
			return nil, enumerator.ErrEndOfList
		}
		if oc.buf.pages >= constants.MaxPaginationPages {
			return nil, errTooManyPages
		}

		page, err := oc.client.Search(ctx, oc.query, oc.folderID, oc.offset, oc.limit, oc.fields)
		if err != nil {
			return nil, err
		}
		oc.buf.pages++
		oc.buf.items = page.Entries
		oc.offset += len(page.Entries)
		if len(page.Entries) == 0 || oc.offset >= page.TotalCount {
			oc.buf.done = true
		}
	}
	return oc.buf.pop(), nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > constants.MaxServerPageSize {
		return constants.MaxServerPageSize
	}
	return limit
}
