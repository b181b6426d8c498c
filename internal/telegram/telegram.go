// Package telegram is the thin `telegram` ingestion source adapter
// spec.md's ingestion contract (§6) names but does not otherwise
// specify. It only translates bot updates into ingest.Input and replies
// with the resulting short reply; it is deliberately not a command
// router or digest UX, matching the donor's internal/telegrambot in
// shape but not in scope.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ingest"
)

const updatesTimeoutSeconds = 60

// Handler runs the ingestion flow for an incoming message.
type Handler interface {
	Handle(ctx context.Context, in ingest.Input) (ingest.Output, error)
}

// Source polls Telegram's long-polling updates endpoint and feeds every
// plain-text message into the ingestion Handler.
type Source struct {
	api     *tgbotapi.BotAPI
	handler Handler
	logger  *zerolog.Logger
}

// New authenticates against the Telegram Bot API using token and wires
// handler as the sole ingestion path for incoming messages.
func New(token string, handler Handler, logger *zerolog.Logger) (*Source, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate bot: %w", err)
	}

	return &Source{api: api, handler: handler, logger: logger}, nil
}

// Run polls for updates until ctx is cancelled. Each text message is
// ingested synchronously and, when the pipeline returns a short reply,
// answered in the same chat.
func (s *Source) Run(ctx context.Context) error {
	update := tgbotapi.NewUpdate(0)
	update.Timeout = updatesTimeoutSeconds

	updates := s.api.GetUpdatesChan(update)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message == nil || upd.Message.Text == "" {
				continue
			}

			s.handleMessage(ctx, upd.Message)
		}
	}
}

func (s *Source) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	out, err := s.handler.Handle(ctx, ingest.Input{
		Text:     msg.Text,
		Source:   domain.SourceTelegram,
		ChatID:   fmt.Sprintf("%d", msg.Chat.ID),
		UserID:   fmt.Sprintf("%d", msg.From.ID),
		Platform: "telegram",
	})
	if err != nil {
		s.logf(err, msg.Chat.ID)

		return
	}

	if !out.IsClaim || out.ShortReply == "" {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, out.ShortReply)
	reply.ReplyToMessageID = msg.MessageID

	if _, err := s.api.Send(reply); err != nil {
		s.logf(err, msg.Chat.ID)
	}
}

func (s *Source) logf(err error, chatID int64) {
	if s.logger == nil {
		return
	}

	s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram ingestion")
}
