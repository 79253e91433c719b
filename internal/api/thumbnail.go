package api

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
)

// GetThumbnail downloads the JPEG thumbnail of a file, at least minSize
// pixels on each edge. ErrThumbnailNotAvailable is returned while Box is
// still generating one (202), when it only has a placeholder (302), or
// when the file type has none (404).
func (c *Client) GetThumbnail(ctx context.Context, fileID string, minSize int) ([]byte, error) {
	q := url.Values{}
	q.Set("min_height", strconv.Itoa(minSize))
	q.Set("min_width", strconv.Itoa(minSize))

	resp, err := c.doRequest(ctx, "GET", "/files/"+url.PathEscape(fileID)+"/thumbnail.jpg", q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read thumbnail: %w", err)
		}
		return data, nil
	case nethttp.StatusAccepted, nethttp.StatusFound, nethttp.StatusNotFound:
		return nil, fmt.Errorf("file %s: %w", fileID, ErrThumbnailNotAvailable)
	default:
		data, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, data)
	}
}
