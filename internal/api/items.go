package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rescale/box-browse/internal/models"
)

// ItemPage is one server page of a folder listing or search.
type ItemPage struct {
	Entries    []models.Item
	TotalCount int
	NextMarker string
	Offset     int
}

// itemCollection is the wire shape shared by folder items and search.
type itemCollection struct {
	TotalCount int               `json:"total_count"`
	Entries    []json.RawMessage `json:"entries"`
	NextMarker *string           `json:"next_marker"`
	Offset     int               `json:"offset"`
	Limit      int               `json:"limit"`
}

func (ic *itemCollection) page() (*ItemPage, error) {
	p := &ItemPage{TotalCount: ic.TotalCount, Offset: ic.Offset}
	if ic.NextMarker != nil {
		p.NextMarker = *ic.NextMarker
	}
	p.Entries = make([]models.Item, 0, len(ic.Entries))
	for _, raw := range ic.Entries {
		item, err := DecodeItem(raw)
		if err != nil {
			return nil, err
		}
		if item != nil {
			p.Entries = append(p.Entries, item)
		}
	}
	return p, nil
}

// DecodeItem decodes one entry by its "type" tag. Unknown types decode to
// nil without error so new Box item kinds don't break listings.
func DecodeItem(raw []byte) (models.Item, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}

	var item models.Item
	switch head.Type {
	case models.TypeFolder:
		item = &models.Folder{}
	case models.TypeFile:
		item = &models.File{}
	case models.TypeWebLink:
		item = &models.WebLink{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", head.Type, err)
	}
	return item, nil
}

// collectionPath maps an item type to its API collection.
func collectionPath(itemType string) (string, error) {
	switch itemType {
	case models.TypeFolder:
		return "/folders", nil
	case models.TypeFile:
		return "/files", nil
	case models.TypeWebLink:
		return "/web_links", nil
	}
	return "", fmt.Errorf("unsupported item type %q", itemType)
}

// ListFolderItems fetches one marker-paged page of a folder's items.
func (c *Client) ListFolderItems(ctx context.Context, folderID, marker string, limit int, fields []string) (*ItemPage, error) {
	q := fieldsQuery(fields)
	q.Set("usemarker", "true")
	q.Set("limit", strconv.Itoa(limit))
	if marker != "" {
		q.Set("marker", marker)
	}

	var ic itemCollection
	if err := c.doJSON(ctx, "GET", "/folders/"+url.PathEscape(folderID)+"/items", q, nil, &ic); err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folderID, err)
	}
	return ic.page()
}

// Search fetches one offset-paged page of search results. Results are
// restricted to ancestorFolderID unless it is the root.
func (c *Client) Search(ctx context.Context, query, ancestorFolderID string, offset, limit int, fields []string) (*ItemPage, error) {
	q := fieldsQuery(fields)
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if ancestorFolderID != "" && ancestorFolderID != models.RootFolderID {
		q.Set("ancestor_folder_ids", ancestorFolderID)
	}

	var ic itemCollection
	if err := c.doJSON(ctx, "GET", "/search", q, nil, &ic); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return ic.page()
}

// GetFolder fetches folder metadata.
func (c *Client) GetFolder(ctx context.Context, folderID string, fields []string) (*models.Folder, error) {
	var folder models.Folder
	if err := c.doJSON(ctx, "GET", "/folders/"+url.PathEscape(folderID), fieldsQuery(fields), nil, &folder); err != nil {
		return nil, fmt.Errorf("get folder %s: %w", folderID, err)
	}
	return &folder, nil
}

type parentRef struct {
	ID string `json:"id"`
}

// CreateFolder creates name under parentID.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string, fields []string) (*models.Folder, error) {
	body := struct {
		Name   string    `json:"name"`
		Parent parentRef `json:"parent"`
	}{Name: name, Parent: parentRef{ID: parentID}}

	var folder models.Folder
	if err := c.doJSON(ctx, "POST", "/folders", fieldsQuery(fields), body, &folder); err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	return &folder, nil
}

// MoveItem moves an item into parentID and returns its updated state.
func (c *Client) MoveItem(ctx context.Context, id models.Identifier, parentID string, fields []string) (models.Item, error) {
	base, err := collectionPath(id.Type)
	if err != nil {
		return nil, err
	}
	body := struct {
		Parent parentRef `json:"parent"`
	}{Parent: parentRef{ID: parentID}}

	var raw json.RawMessage
	if err := c.doJSON(ctx, "PUT", base+"/"+url.PathEscape(id.ID), fieldsQuery(fields), body, &raw); err != nil {
		return nil, fmt.Errorf("move %s: %w", id, err)
	}
	return DecodeItem(raw)
}

// CopyItem copies an item into parentID and returns the copy.
func (c *Client) CopyItem(ctx context.Context, id models.Identifier, parentID string, fields []string) (models.Item, error) {
	base, err := collectionPath(id.Type)
	if err != nil {
		return nil, err
	}
	body := struct {
		Parent parentRef `json:"parent"`
	}{Parent: parentRef{ID: parentID}}

	var raw json.RawMessage
	if err := c.doJSON(ctx, "POST", base+"/"+url.PathEscape(id.ID)+"/copy", fieldsQuery(fields), body, &raw); err != nil {
		return nil, fmt.Errorf("copy %s: %w", id, err)
	}
	return DecodeItem(raw)
}

// SetSharedLink creates or updates the shared link of an item. An empty
// access uses the enterprise default.
func (c *Client) SetSharedLink(ctx context.Context, id models.Identifier, access string, fields []string) (models.Item, error) {
	base, err := collectionPath(id.Type)
	if err != nil {
		return nil, err
	}
	link := map[string]interface{}{}
	if access != "" {
		link["access"] = access
	}
	body := map[string]interface{}{"shared_link": link}

	var raw json.RawMessage
	if err := c.doJSON(ctx, "PUT", base+"/"+url.PathEscape(id.ID), fieldsQuery(fields), body, &raw); err != nil {
		return nil, fmt.Errorf("share %s: %w", id, err)
	}
	return DecodeItem(raw)
}
