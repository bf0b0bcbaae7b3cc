package handlers

import (
	"context"
	"log"

	"photoreport-bot/internal/locales"
	"photoreport-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// HandleStart handles the /start command. Admins in private chat get the
// report menu; groups get a generic greeting; non-admins in private chat
// are turned away.
func (h *MessageHandler) HandleStart(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	if isGroupChat(message.Chat) {
		greeting := locales.GetMessage(localizer, "MsgStartGroup", nil, nil)
		return h.sendText(ctx, bot, message.Chat.ID, greeting)
	}

	userID := message.From.ID
	if !h.adminChecker.IsAdmin(userID) {
		log.Printf("[Cmd:start User:%d] Non-admin in private chat, denying", userID)
		denied := locales.GetMessage(localizer, "MsgNoAccess", nil, nil)
		return h.sendText(ctx, bot, message.Chat.ID, denied)
	}

	welcome := locales.GetMessage(localizer, "MsgStartAdmin", nil, nil)
	return h.sendWithKeyboard(ctx, bot, message.Chat.ID, welcome, adminMenuKeyboard(localizer))
}

// HandleRegister handles the /register command: explicit enrollment of
// the current group. Registration also happens implicitly on the first
// trigger and when the bot joins a chat, so this mostly exists for
// re-enrolling after a hand-edited registry file.
func (h *MessageHandler) HandleRegister(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	if !isGroupChat(message.Chat) {
		msg := locales.GetMessage(localizer, "MsgRegisterOnlyInGroups", nil, nil)
		return h.sendText(ctx, bot, message.Chat.ID, msg)
	}

	if err := h.registry.Register(message.Chat.ID, chatTitle(message.Chat)); err != nil {
		log.Printf("[Cmd:register Chat:%d] Failed to register: %v", message.Chat.ID, err)
		msg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_ = h.sendText(ctx, bot, message.Chat.ID, msg)
		return err
	}

	msg := locales.GetMessage(localizer, "MsgGroupRegistered", nil, nil)
	return h.sendText(ctx, bot, message.Chat.ID, msg)
}

// SetupCommands registers the bot's command list with Telegram.
func (h *MessageHandler) SetupCommands(ctx context.Context, bot telegoapi.BotAPI) error {
	localizer := locales.NewLocalizer(locales.DefaultLanguage)

	commands := make([]telego.BotCommand, 0, len(h.commands))
	for _, cmd := range h.commands {
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: locales.GetMessage(localizer, cmd.Description, nil, nil),
		})
	}
	return bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
}
