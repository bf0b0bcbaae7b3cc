package handlers

import (
	"context"
	"log"
	"strconv"

	"photoreport-bot/internal/locales"
	"photoreport-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// sendText sends a plain message. Delivery failures are logged, not
// surfaced to the user.
func (h *MessageHandler) sendText(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string) error {
	_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
	return nil
}

// sendWithKeyboard sends a message carrying an inline keyboard.
func (h *MessageHandler) sendWithKeyboard(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string, keyboard *telego.InlineKeyboardMarkup) error {
	_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).WithReplyMarkup(keyboard))
	if err != nil {
		log.Printf("Error sending keyboard message to chat %d: %v", chatID, err)
	}
	return nil
}

// getLocalizer determines the best localizer for a given user,
// defaulting to Russian when no usable language code is present.
func (h *MessageHandler) getLocalizer(user *telego.User) *i18n.Localizer {
	lang := locales.DefaultLanguage
	if user != nil && user.LanguageCode != "" {
		lang = user.LanguageCode
	}
	return locales.NewLocalizer(lang, locales.DefaultLanguage)
}

// adminMenuKeyboard is the root inline menu shown to admins.
func adminMenuKeyboard(localizer *i18n.Localizer) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnViewReports", nil, nil)).WithCallbackData(callbackViewReports),
		),
	)
}

// chatTitle derives a display name for a chat, falling back to a
// synthetic one the way the archive has always named untitled chats.
func chatTitle(chat telego.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	return "Chat_" + strconv.FormatInt(chat.ID, 10)
}

// isGroupChat reports whether the chat is a group or supergroup.
func isGroupChat(chat telego.Chat) bool {
	return chat.Type == telego.ChatTypeGroup || chat.Type == telego.ChatTypeSupergroup
}
