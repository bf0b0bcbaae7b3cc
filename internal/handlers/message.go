package handlers

import (
	"context"
	"log"
	"strings"

	"photoreport-bot/internal/buffer"
	"photoreport-bot/internal/locales"
	"photoreport-bot/internal/report"
	"photoreport-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// HandlePhoto buffers an incoming photo message. Photos are only
// counted when a trigger later drains the buffer; until then they just
// age out via the eviction sweep.
func (h *MessageHandler) HandlePhoto(_ context.Context, _ telegoapi.BotAPI, message telego.Message) error {
	h.buf.Append(message.Chat.ID, buffer.Event{
		MessageID: message.MessageID,
		Received:  h.clock(),
	})
	return nil
}

// HandleText checks non-command text for the report trigger phrase and,
// when it matches, runs the chat through a reporting cycle. Any other
// text is ignored.
func (h *MessageHandler) HandleText(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	if !h.matchesTrigger(message.Text) {
		return nil
	}
	return h.handleTrigger(ctx, bot, message)
}

// matchesTrigger compares text against the configured trigger word,
// case-insensitively and treating е/ё as the same letter, so both
// common spellings of the phrase work.
func (h *MessageHandler) matchesTrigger(text string) bool {
	return normalizeTrigger(text) == h.triggerWord
}

func normalizeTrigger(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return strings.ReplaceAll(normalized, "ё", "е")
}

// handleTrigger runs the report-window state machine for one chat. The
// chat is enrolled first if this is its first interaction, then the
// aggregator decides: reject with a countdown outside the window, arm
// the settle timer inside it, or collapse into an in-flight cycle.
func (h *MessageHandler) handleTrigger(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	title := chatTitle(message.Chat)
	localizer := h.getLocalizer(message.From)

	if !h.registry.Contains(chatID) {
		if err := h.registry.Register(chatID, title); err != nil {
			log.Printf("[Trigger Chat:%d] Auto-registration failed: %v", chatID, err)
			msg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
			_ = h.sendText(ctx, bot, chatID, msg)
			return err
		}
		log.Printf("[Trigger Chat:%d] Auto-registered as %q", chatID, title)
	}

	result := h.aggregator.Trigger(chatID, title, func(chatID int64, outcome report.Outcome, photoCount int) {
		// Delivered from the settle timer goroutine after the grace
		// period; the triggering update's context is long gone.
		h.deliverOutcome(context.Background(), bot, localizer, chatID, outcome, photoCount)
	})

	switch result.State {
	case report.TriggerRejected:
		msg := locales.GetMessage(localizer, "MsgNotReportDay", map[string]interface{}{
			"Days":    result.Countdown.Days,
			"Hours":   result.Countdown.Hours,
			"Minutes": result.Countdown.Minutes,
		}, nil)
		return h.sendText(ctx, bot, chatID, msg)
	case report.TriggerCollapsed:
		// The in-flight cycle will answer; a second reply would be noise.
		return nil
	case report.TriggerSettling:
		return nil
	default:
		return nil
	}
}

// deliverOutcome turns a settled report outcome into the user-facing reply.
func (h *MessageHandler) deliverOutcome(ctx context.Context, bot telegoapi.BotAPI, localizer *i18n.Localizer, chatID int64, outcome report.Outcome, photoCount int) {
	var msg string
	switch outcome {
	case report.OutcomeAccepted:
		msg = locales.GetMessage(localizer, "MsgReportAccepted", map[string]interface{}{"PhotoCount": photoCount}, nil)
	case report.OutcomeNoPhotos:
		msg = locales.GetMessage(localizer, "MsgReportNotAccepted", nil, nil)
	case report.OutcomeError:
		msg = locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
	default:
		return
	}
	_ = h.sendText(ctx, bot, chatID, msg)
}
