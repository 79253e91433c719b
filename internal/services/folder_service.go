// Package services provides the Box folder provider used by listings,
// search and the item actions. It is frontend-agnostic: results that feed
// view state are delivered on a dispatch queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/rescale/box-browse/internal/api"
	"github.com/rescale/box-browse/internal/cache"
	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/enumerator"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/thumbnail"
)

// ErrNoClient is returned when no API client has been configured.
var ErrNoClient = errors.New("API client not configured")

// Options tunes a FolderService.
type Options struct {
	FolderPageSize       int
	SearchPageSize       int
	AdditionalFields     []string
	ThumbnailConcurrency int
	CacheCountLimit      int
	CacheCostLimit       int64
}

// OptionsFromConfig extracts the service options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FolderPageSize:       cfg.FolderPageSize,
		SearchPageSize:       cfg.SearchPageSize,
		AdditionalFields:     cfg.AdditionalFields,
		ThumbnailConcurrency: cfg.ThumbnailConcurrency,
		CacheCountLimit:      cfg.CacheCountLimit,
		CacheCostLimit:       cfg.CacheCostLimit,
	}
}

func (o *Options) applyDefaults() {
	if o.FolderPageSize <= 0 {
		o.FolderPageSize = constants.FolderPageSize
	}
	if o.SearchPageSize <= 0 {
		o.SearchPageSize = constants.SearchPageSize
	}
	if o.ThumbnailConcurrency <= 0 {
		o.ThumbnailConcurrency = constants.ThumbnailConcurrency
	}
	if o.CacheCountLimit <= 0 {
		o.CacheCountLimit = constants.ImageCacheCountLimit
	}
	if o.CacheCostLimit <= 0 {
		o.CacheCostLimit = constants.ImageCacheCostLimit
	}
}

// FolderService lists, searches and modifies Box folders.
type FolderService struct {
	apiClient *api.Client
	queue     *dispatch.Queue
	eventBus  *events.EventBus
	logger    *logging.Logger

	fields         []string
	folderPageSize int
	searchPageSize int

	// Limit the number of thumbnail requests made at once so there is
	// room for listing requests
	thumbSem *semaphore.Weighted
	thumbs   *cache.Cache[string, image.Image]

	mu sync.RWMutex
}

// NewFolderService creates a FolderService delivering results on queue.
func NewFolderService(apiClient *api.Client, queue *dispatch.Queue, eventBus *events.EventBus, opts Options) *FolderService {
	opts.applyDefaults()
	return &FolderService{
		apiClient:      apiClient,
		queue:          queue,
		eventBus:       eventBus,
		logger:         logging.NewLogger("folder-service", eventBus),
		fields:         api.MergeFields(opts.AdditionalFields),
		folderPageSize: opts.FolderPageSize,
		searchPageSize: opts.SearchPageSize,
		thumbSem:       semaphore.NewWeighted(int64(opts.ThumbnailConcurrency)),
		thumbs: cache.New[string, image.Image](cache.Config{
			Name:       "folder-service.thumbnails",
			CountLimit: opts.CacheCountLimit,
			CostLimit:  opts.CacheCostLimit,
		}),
	}
}

// SetAPIClient updates the API client (e.g., after the token changed).
func (fs *FolderService) SetAPIClient(client *api.Client) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.apiClient = client
}

// SetLogger replaces the service logger.
func (fs *FolderService) SetLogger(logger *logging.Logger) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.logger = logger
}

func (fs *FolderService) client() (*api.Client, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.apiClient == nil {
		return nil, ErrNoClient
	}
	return fs.apiClient, nil
}

func (fs *FolderService) log() *logging.Logger {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.logger
}

// Queue returns the queue results are delivered on.
func (fs *FolderService) Queue() *dispatch.Queue {
	return fs.queue
}

// Fields returns the item fields requested from the API.
func (fs *FolderService) Fields() []string {
	return fs.fields
}

// RootEnumerator lists "All Files".
func (fs *FolderService) RootEnumerator() *enumerator.Enumerator {
	return fs.Enumerator(models.RootFolderID)
}

// Enumerator lists the items of folderID.
func (fs *FolderService) Enumerator(folderID string) *enumerator.Enumerator {
	pageSize := fs.folderPageSize
	return enumerator.New(context.Background(), fs.queue, pageSize, func(context.Context) (enumerator.Cursor, error) {
		client, err := fs.client()
		if err != nil {
			return nil, err
		}
		fs.log().Debug().Str("folder_id", folderID).Int("page_size", pageSize).Msg("listing folder")
		return client.NewFolderCursor(folderID, pageSize, fs.fields), nil
	})
}

// Search finds items matching query within folderID. An empty query
// yields an empty listing without a request.
func (fs *FolderService) Search(query, folderID string) *enumerator.Enumerator {
	query = strings.TrimSpace(query)
	if query == "" {
		return enumerator.Empty(fs.queue)
	}
	if folderID == "" {
		folderID = models.RootFolderID
	}

	pageSize := fs.searchPageSize
	return enumerator.New(context.Background(), fs.queue, pageSize, func(context.Context) (enumerator.Cursor, error) {
		client, err := fs.client()
		if err != nil {
			return nil, err
		}
		fs.log().Debug().Str("query", query).Str("folder_id", folderID).Msg("searching")
		return client.NewSearchCursor(query, folderID, pageSize, fs.fields), nil
	})
}

// FolderInfo returns the metadata of folderID.
func (fs *FolderService) FolderInfo(ctx context.Context, folderID string) (*models.Folder, error) {
	client, err := fs.client()
	if err != nil {
		return nil, err
	}
	folder, err := client.GetFolder(ctx, folderID, fs.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder info: %w", err)
	}
	return folder, nil
}

// CreateFolder creates name under parentID.
func (fs *FolderService) CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error) {
	client, err := fs.client()
	if err != nil {
		return nil, err
	}
	folder, err := client.CreateFolder(ctx, name, parentID, fs.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	fs.log().Info().Str("folder_id", folder.ID).Str("parent_id", parentID).Msg("folder created")
	return folder, nil
}

// MoveItem moves an item into parentID.
func (fs *FolderService) MoveItem(ctx context.Context, id models.Identifier, parentID string) (models.Item, error) {
	client, err := fs.client()
	if err != nil {
		return nil, err
	}
	item, err := client.MoveItem(ctx, id, parentID, fs.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to move item: %w", err)
	}
	return item, nil
}

// CopyItem copies an item into parentID.
func (fs *FolderService) CopyItem(ctx context.Context, id models.Identifier, parentID string) (models.Item, error) {
	client, err := fs.client()
	if err != nil {
		return nil, err
	}
	item, err := client.CopyItem(ctx, id, parentID, fs.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to copy item: %w", err)
	}
	return item, nil
}

// SetSharedLink creates a shared link for an item. An empty access uses
// the enterprise default.
func (fs *FolderService) SetSharedLink(ctx context.Context, id models.Identifier, access string) (models.Item, error) {
	client, err := fs.client()
	if err != nil {
		return nil, err
	}
	item, err := client.SetSharedLink(ctx, id, access, fs.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared link: %w", err)
	}
	return item, nil
}

// LoadThumbnail loads the thumbnail of fileID as a size x size image.
// done runs on the queue, with nil if no thumbnail could be loaded, and
// only if the returned token was not cancelled by then.
func (fs *FolderService) LoadThumbnail(fileID string, size int, done func(image.Image)) *thumbnail.Token {
	token := thumbnail.NewToken()
	deliver := func(img image.Image) {
		fs.queue.Async(func() {
			if !token.Cancelled() {
				done(img)
			}
		})
	}

	go func() {
		key := fileID + "@" + strconv.Itoa(size)
		if img, ok := fs.thumbs.Get(key); ok {
			fs.publishThumbnail(fileID, true, nil)
			deliver(img)
			return
		}

		img, err := fs.fetchThumbnail(token, fileID, size)
		if err != nil {
			if !errors.Is(err, api.ErrThumbnailNotAvailable) && !errors.Is(err, context.Canceled) {
				fs.log().Debug().Err(err).Str("file_id", fileID).Msg("thumbnail failed")
			}
			fs.publishThumbnail(fileID, false, err)
			deliver(nil)
			return
		}

		fs.thumbs.Set(key, img, cache.ImageCost(img))
		fs.publishThumbnail(fileID, false, nil)
		deliver(img)
	}()

	return token
}

func (fs *FolderService) fetchThumbnail(token *thumbnail.Token, fileID string, size int) (image.Image, error) {
	client, err := fs.client()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.APIContextTimeout)
	defer cancel()

	if err := fs.thumbSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer fs.thumbSem.Release(1)

	// Skip the request if nobody is waiting anymore
	if token.Cancelled() {
		return nil, context.Canceled
	}

	data, err := client.GetThumbnail(ctx, fileID, constants.ThumbnailFetchSize)
	if err != nil {
		return nil, err
	}
	img, err := thumbnail.Decode(data)
	if err != nil {
		return nil, err
	}
	return thumbnail.Square(img, size), nil
}

func (fs *FolderService) publishThumbnail(fileID string, cached bool, err error) {
	fs.eventBus.Publish(&events.ThumbnailEvent{
		BaseEvent: events.NewBase(events.EventThumbnail),
		FileID:    fileID,
		Cached:    cached,
		Error:     err,
	})
}
