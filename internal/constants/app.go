package constants

import (
	"time"
)

// Box API
const (
	// DefaultAPIBaseURL - Box Content API root
	DefaultAPIBaseURL = "https://api.box.com/2.0"

	// FolderPageSize - items requested per folder listing page
	FolderPageSize = 30

	// SearchPageSize - items requested per search page
	SearchPageSize = 15

	// MaxServerPageSize - largest limit Box accepts for folder items
	MaxServerPageSize = 1000
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient errors
	MaxRetries = 5

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	RetryMaxDelay = 15 * time.Second
)

// Rate limiting
const (
	// DefaultRequestsPerSecond - sustained API request rate
	// Box allows roughly 16 requests/second per user for most endpoints
	DefaultRequestsPerSecond = 10.0

	// DefaultBurst - tokens available for short bursts
	DefaultBurst = 10

	// RateLimitWarningThreshold - delay threshold to log a warning (2 seconds)
	RateLimitWarningThreshold = 2 * time.Second
)

// Thumbnails and icons
const (
	// ThumbnailConcurrency - concurrent thumbnail downloads
	// Leaves headroom for listing traffic
	ThumbnailConcurrency = 4

	// ThumbnailFetchSize - minimum edge requested from the thumbnail endpoint
	ThumbnailFetchSize = 160

	// DefaultThumbnailSize - edge length of square thumbnails in pixels
	DefaultThumbnailSize = 128

	// ImageCacheCountLimit - entries per image cache
	ImageCacheCountLimit = 200

	// ImageCacheCostLimit - decoded bytes per image cache (8 MB)
	ImageCacheCostLimit = 8 * 1024 * 1024
)

// Search
const (
	// SearchDebounce - delay before a typed query is sent
	SearchDebounce = 350 * time.Millisecond
)

// Folder names
const (
	// MaxFolderNameLength - Box rejects longer names
	MaxFolderNameLength = 255
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// API and Context Timeouts
const (
	// APIContextTimeout - default timeout for single API operations (30 seconds)
	APIContextTimeout = 30 * time.Second

	// APIConnectionTestTimeout - timeout for testing API connectivity (10 seconds)
	APIConnectionTestTimeout = 10 * time.Second
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second
)

// Pagination Safety Limits
const (
	// MaxPaginationPages - server pages a cursor follows before giving up
	// Guards against a server that keeps returning the same marker
	MaxPaginationPages = 10000
)
