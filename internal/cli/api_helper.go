package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rescale/box-browse/internal/api"
	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/http"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/services"
)

// loadConfig reads the config file and applies environment and flag
// overrides, in that order.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if token != "" {
		cfg.Token = token
	}
	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}
	// Level flags win over the configured level
	if !verbose && !debug && !quiet {
		logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}

// session is what every browsing command works with: a provider and the
// queue its results arrive on.
type session struct {
	cfg     *config.Config
	queue   *dispatch.Queue
	bus     *events.EventBus
	service *services.FolderService
	logger  *logging.Logger
}

// openSession loads and validates configuration and connects a folder
// service. The caller must Close it.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if http.NeedsProxyPassword(cfg) {
		password, err := promptSecret(bufio.NewReader(os.Stdin), os.Stderr, "Proxy password for "+cfg.ProxyUser)
		if err != nil {
			return nil, err
		}
		cfg.ProxyPassword = password
	}

	log := GetLogger()
	apiClient, err := api.NewClient(cfg, log.Component("api"))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	s := &session{
		cfg:    cfg,
		queue:  dispatch.NewQueue(),
		bus:    events.NewEventBus(constants.EventBusDefaultBuffer),
		logger: log,
	}
	s.service = services.NewFolderService(apiClient, s.queue, s.bus, services.OptionsFromConfig(cfg))
	s.service.SetLogger(log.Component("folder-service"))
	go logEvents(s.bus.SubscribeAll(), log.Component("events"))
	return s, nil
}

// Close stops the queue and the event bus.
func (s *session) Close() {
	s.queue.Close()
	s.bus.Close()
}

// logEvents writes bus traffic to the debug log until events is closed.
func logEvents(ch <-chan events.Event, log *logging.Logger) {
	for ev := range ch {
		switch e := ev.(type) {
		case *events.ListingChangedEvent:
			log.Debug().Str("listing", e.ListingID).Str("title", e.Title).
				Str("change", string(e.Change)).Int("added", e.Added).Int("items", e.Total).
				Bool("finished", e.Finished).Msg("listing changed")
		case *events.ListingErrorEvent:
			log.Debug().Str("listing", e.ListingID).Err(e.Error).Msg("listing failed")
		case *events.FanOutEvent:
			log.Debug().Str("operation", e.Operation).Str("item", e.ItemID).
				Int("done", e.Done).Int("total", e.Total).AnErr("error", e.Error).Msg("batch item finished")
		case *events.ThumbnailEvent:
			log.Debug().Str("file_id", e.FileID).Bool("cached", e.Cached).Msg("thumbnail")
		}
	}
}
