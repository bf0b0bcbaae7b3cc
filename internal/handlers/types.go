package handlers

import (
	"context"
	"fmt"
	"time"

	"photoreport-bot/internal/auth"
	"photoreport-bot/internal/buffer"
	"photoreport-bot/internal/report"
	"photoreport-bot/internal/storage"
	"photoreport-bot/internal/window"
	"photoreport-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// Command represents a bot command, mapping the command string to its
// description key and handler function.
type Command struct {
	Command     string // The command string (e.g., "start").
	Description string // Locale key of the description shown in /help menus.
	Handler     func(context.Context, telegoapi.BotAPI, telego.Message) error
}

// MessageHandler handles incoming Telegram messages, callbacks, and
// chat-membership changes. It owns no state of its own: the registry,
// archive, buffer, and aggregator are passed in as repositories.
type MessageHandler struct {
	triggerWord string
	commands    []Command

	adminChecker *auth.AdminChecker
	registry     *storage.Registry
	archive      *storage.Archive
	buf          *buffer.Buffer
	aggregator   *report.Aggregator
	policy       *window.Policy

	// clock is injected so temporal branches are testable without
	// waiting on a wall clock.
	clock func() time.Time
}

// HandlerDeps holds the dependencies required by the MessageHandler.
type HandlerDeps struct {
	TriggerWord  string
	AdminChecker *auth.AdminChecker
	Registry     *storage.Registry
	Archive      *storage.Archive
	Buffer       *buffer.Buffer
	Aggregator   *report.Aggregator
	Policy       *window.Policy
	Clock        func() time.Time
}

// NewMessageHandler creates and initializes a new MessageHandler instance.
func NewMessageHandler(deps HandlerDeps) (*MessageHandler, error) {
	if deps.TriggerWord == "" {
		return nil, fmt.Errorf("trigger word cannot be empty")
	}
	if deps.AdminChecker == nil {
		return nil, fmt.Errorf("admin checker cannot be nil")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("group registry cannot be nil")
	}
	if deps.Archive == nil {
		return nil, fmt.Errorf("report archive cannot be nil")
	}
	if deps.Buffer == nil {
		return nil, fmt.Errorf("photo buffer cannot be nil")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("report aggregator cannot be nil")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("window policy cannot be nil")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	h := &MessageHandler{
		triggerWord:  normalizeTrigger(deps.TriggerWord),
		adminChecker: deps.AdminChecker,
		registry:     deps.Registry,
		archive:      deps.Archive,
		buf:          deps.Buffer,
		aggregator:   deps.Aggregator,
		policy:       deps.Policy,
		clock:        deps.Clock,
	}
	h.commands = []Command{
		{Command: "start", Description: "CmdStartDesc", Handler: h.HandleStart},
		{Command: "register", Description: "CmdRegisterDesc", Handler: h.HandleRegister},
	}
	return h, nil
}

// GetCommandHandler retrieves the handler function associated with a
// specific command string (e.g., "start"). It returns nil if the
// command is not found.
func (h *MessageHandler) GetCommandHandler(command string) func(context.Context, telegoapi.BotAPI, telego.Message) error {
	for _, cmd := range h.commands {
		if cmd.Command == command {
			return cmd.Handler
		}
	}
	return nil
}
