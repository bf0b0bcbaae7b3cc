package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"photoreport-bot/internal/handlers"
	"photoreport-bot/internal/locales"
	"photoreport-bot/pkg/telegoapi"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"
)

// Bot wraps the telego update stream and routes each update to the
// message handler. It owns the processing loop, per-update panic
// recovery, and the outbound rate limit.
type Bot struct {
	bot         telegoapi.BotAPI
	updatesChan <-chan telego.Update
	debug       bool
	handler     *handlers.MessageHandler
	ratelimiter ratelimit.Limiter
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	Bot         telegoapi.BotAPI
	UpdatesChan <-chan telego.Update
	Debug       bool
	Handler     *handlers.MessageHandler
}

// New creates a new Bot instance from its dependencies.
// Returns the new Bot instance or an error if dependencies are missing.
func New(deps BotDeps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	return &Bot{
		bot:         deps.Bot,
		updatesChan: deps.UpdatesChan,
		debug:       deps.Debug,
		handler:     deps.Handler,
		ratelimiter: ratelimit.New(20),
	}, nil
}

// handleCommandUpdate processes a message identified as a command.
func (b *Bot) handleCommandUpdate(ctx context.Context, message telego.Message) {
	command := "unknown"
	if len(message.Text) > 1 && strings.HasPrefix(message.Text, "/") {
		command = strings.Split(message.Text, " ")[0][1:]
		// Commands in groups may carry the bot's username suffix.
		if at := strings.Index(command, "@"); at != -1 {
			command = command[:at]
		}
	}
	logPrefix := fmt.Sprintf("[Cmd:%s User:%d]", command, message.From.ID)

	handlerFunc := b.handler.GetCommandHandler(command)
	if handlerFunc == nil {
		log.Printf("%s No handler found", logPrefix)
		// Unknown commands only get a reply in private chats; answering
		// every stray slash-command in a group would be noise.
		if message.Chat.Type == telego.ChatTypePrivate {
			localizer := locales.NewLocalizer(locales.DefaultLanguage)
			msg := locales.GetMessage(localizer, "MsgUnknownCommand", nil, nil)
			_, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), msg))
			if err != nil {
				log.Printf("%s Failed to send unknown command message: %v", logPrefix, err)
			}
		}
		return
	}

	if b.debug {
		log.Printf("%s Executing handler", logPrefix)
	}
	if err := handlerFunc(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handlePhotoUpdate processes an incoming photo message. Media-group
// members are buffered the same way as single photos: every photo
// message counts toward the report.
func (b *Bot) handlePhotoUpdate(ctx context.Context, message telego.Message) {
	logPrefix := fmt.Sprintf("[Photo Chat:%d Msg:%d]", message.Chat.ID, message.MessageID)
	if b.debug {
		log.Printf("%s Buffering photo", logPrefix)
	}
	if err := b.handler.HandlePhoto(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handleTextUpdate processes an incoming text message.
func (b *Bot) handleTextUpdate(ctx context.Context, message telego.Message) {
	logPrefix := fmt.Sprintf("[Text Chat:%d Msg:%d]", message.Chat.ID, message.MessageID)
	if err := b.handler.HandleText(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handleCallbackQuery processes an incoming callback query.
func (b *Bot) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) {
	logPrefix := fmt.Sprintf("[Callback User:%d QueryID:%s]", query.From.ID, query.ID)
	if b.debug {
		log.Printf("%s Received callback query with data: %q", logPrefix, query.Data)
	}

	processed, err := b.handler.HandleCallbackQuery(ctx, b.bot, query)
	if err != nil {
		log.Printf("%s Callback handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s callback handler error: %w", logPrefix, err))
		return
	}
	if processed {
		return
	}

	log.Printf("%s Callback query not handled", logPrefix)
	localizer := locales.NewLocalizer(locales.DefaultLanguage)
	answer := locales.GetMessage(localizer, "MsgCallbackNotHandled", nil, nil)
	_ = b.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            answer,
		ShowAlert:       true,
	})
}

// handleMyChatMember processes the bot's own membership changes.
func (b *Bot) handleMyChatMember(ctx context.Context, update telego.ChatMemberUpdated) {
	logPrefix := fmt.Sprintf("[ChatMember Chat:%d]", update.Chat.ID)
	if err := b.handler.HandleMyChatMember(ctx, b.bot, update); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// processUpdate routes incoming updates to the appropriate handlers.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			log.Printf("Ignoring message %d from chat %d without sender", message.MessageID, message.Chat.ID)
			return
		}

		if strings.HasPrefix(message.Text, "/") {
			b.handleCommandUpdate(processingCtx, message)
		} else if message.Photo != nil {
			b.handlePhotoUpdate(processingCtx, message)
		} else if message.Text != "" {
			b.handleTextUpdate(processingCtx, message)
		} else if b.debug {
			log.Printf("Ignoring unhandled message type (ID: %d)", message.MessageID)
		}

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(processingCtx, *update.CallbackQuery)

	case update.MyChatMember != nil:
		b.handleMyChatMember(processingCtx, *update.MyChatMember)

	default:
		if b.debug {
			log.Printf("Ignoring unhandled update type: %+v", update)
		}
	}
}

// Start begins the bot's update processing loop. It returns when the
// context is cancelled or the updates channel closes, after waiting for
// in-flight updates to finish.
func (b *Bot) Start(ctx context.Context) {
	log.Println("Listening for updates...")

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			wg.Wait()
			log.Println("All update processing finished.")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}
