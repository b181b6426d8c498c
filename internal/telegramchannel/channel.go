// Package telegramchannel is a second, narrower `telegram` ingestion
// source: an MTProto user-session reader that polls a configured list of
// public channels the bot API cannot join, feeding each new message into
// the same ingestion handler as internal/telegram's bot adapter. It
// keeps the donor telegramreader's session/auth/history-fetch shape but
// drops its channel-discovery crawler and media pipeline, which have no
// home in this pipeline's scope.
package telegramchannel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ingest"
)

const defaultFetchLimit = 50

var (
	errChannelNotFound = errors.New("telegramchannel: channel not found")
	errNotAChannel     = errors.New("telegramchannel: peer is not a channel")
)

// Handler runs the ingestion flow for an incoming message.
type Handler interface {
	Handle(ctx context.Context, in ingest.Input) (ingest.Output, error)
}

// Reader authenticates as a Telegram user and polls a fixed set of
// channels for new messages.
type Reader struct {
	apiID       int
	apiHash     string
	sessionPath string
	phone       string
	password    string
	channels    []string
	fetchLimit  int
	pollInterval time.Duration

	handler Handler
	logger  *zerolog.Logger

	client *telegram.Client

	mu       sync.Mutex
	lastSeen map[string]int // username -> highest message ID ingested
}

// Config parameterizes a Reader.
type Config struct {
	APIID        int
	APIHash      string
	SessionPath  string
	Phone        string
	Password     string
	Channels     []string
	FetchLimit   int
	PollInterval time.Duration
}

// New builds a Reader. An empty Channels list makes Run a no-op loop
// that only waits for cancellation, so callers can wire this
// unconditionally without checking configuration first.
func New(cfg Config, handler Handler, logger *zerolog.Logger) *Reader {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = defaultFetchLimit
	}

	return &Reader{
		apiID:        cfg.APIID,
		apiHash:      cfg.APIHash,
		sessionPath:  cfg.SessionPath,
		phone:        cfg.Phone,
		password:     cfg.Password,
		channels:     cfg.Channels,
		fetchLimit:   cfg.FetchLimit,
		pollInterval: cfg.PollInterval,
		handler:      handler,
		logger:       logger,
		lastSeen:     make(map[string]int),
	}
}

// Run authenticates if necessary and polls the configured channels until
// ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	if len(r.channels) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	client := telegram.NewClient(r.apiID, r.apiHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: r.sessionPath},
	})
	r.client = client

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, r.authFlow()); err != nil {
			return fmt.Errorf("telegramchannel: authenticate: %w", err)
		}

		r.logger.Info().Msg("telegramchannel: authenticated as user")

		return r.poll(ctx, tg.NewClient(client))
	})
}

func (r *Reader) poll(ctx context.Context, api *tg.Client) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.pollOnce(ctx, api)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.pollOnce(ctx, api)
		}
	}
}

func (r *Reader) pollOnce(ctx context.Context, api *tg.Client) {
	for _, username := range r.channels {
		if ctx.Err() != nil {
			return
		}

		if err := r.pollChannel(ctx, api, username); err != nil {
			r.logf(err, username)
		}
	}
}

func (r *Reader) pollChannel(ctx context.Context, api *tg.Client, username string) error {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", username, err)
	}

	if len(resolved.Chats) == 0 {
		return fmt.Errorf("%w: %s", errChannelNotFound, username)
	}

	channel, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		return fmt.Errorf("%w: %s", errNotAChannel, username)
	}

	peer := &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}

	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: r.fetchLimit,
	})
	if err != nil {
		return fmt.Errorf("get history for %s: %w", username, err)
	}

	var messages []tg.MessageClass

	switch h := history.(type) {
	case *tg.MessagesMessages:
		messages = h.Messages
	case *tg.MessagesMessagesSlice:
		messages = h.Messages
	case *tg.MessagesChannelMessages:
		messages = h.Messages
	}

	r.mu.Lock()
	lastSeen := r.lastSeen[username]
	r.mu.Unlock()

	maxID := lastSeen

	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok || msg.Message == "" {
			continue
		}

		if msg.ID <= lastSeen {
			continue
		}

		if msg.ID > maxID {
			maxID = msg.ID
		}

		r.ingest(ctx, username, channel.ID, msg)
	}

	r.mu.Lock()
	r.lastSeen[username] = maxID
	r.mu.Unlock()

	return nil
}

func (r *Reader) ingest(ctx context.Context, username string, channelID int64, msg *tg.Message) {
	_, err := r.handler.Handle(ctx, ingest.Input{
		Text:     msg.Message,
		Source:   domain.SourceTelegram,
		ChatID:   fmt.Sprintf("channel:%d", channelID),
		UserID:   username,
		Platform: "telegram_channel",
	})
	if err != nil {
		r.logf(err, username)
	}
}

func (r *Reader) logf(err error, username string) {
	if r.logger == nil {
		return
	}

	r.logger.Error().Err(err).Str("channel", username).Msg("telegramchannel ingestion")
}
