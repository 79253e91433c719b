package ratelimit

import "github.com/rescale/box-browse/internal/constants"

// Box API throttling.
//
// Box enforces a per-user limit of roughly 1000 requests per minute and
// answers 429 with a Retry-After header once it is exceeded. The client
// stays well below that by default; retryablehttp handles the 429s that
// still slip through.
const (
	// DefaultRatePerSec - sustained request rate (600/min, 60% of the limit)
	DefaultRatePerSec = constants.DefaultRequestsPerSecond

	// DefaultBurstCapacity - requests allowed back to back, enough for one
	// screen of thumbnails plus the page that triggered them
	DefaultBurstCapacity = 20

	// SearchRatePerSec - search has a tighter per-endpoint quota
	SearchRatePerSec = 4.0

	// SearchBurstCapacity - debounced typing rarely produces more than a few
	SearchBurstCapacity = 4
)
