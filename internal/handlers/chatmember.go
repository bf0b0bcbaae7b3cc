package handlers

import (
	"context"
	"log"

	"photoreport-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// HandleMyChatMember reacts to the bot's own membership changes.
// Joining a group enrolls it; being removed unregisters it and deletes
// its archived history (the cascade keeps admin views free of ghost
// groups).
func (h *MessageHandler) HandleMyChatMember(_ context.Context, _ telegoapi.BotAPI, update telego.ChatMemberUpdated) error {
	chat := update.Chat
	status := update.NewChatMember.MemberStatus()

	if status == telego.MemberStatusLeft || status == telego.MemberStatusBanned {
		if !h.registry.Contains(chat.ID) {
			return nil
		}
		if err := h.registry.Unregister(chat.ID); err != nil {
			return err
		}
		if err := h.archive.DeleteGroup(chat.ID); err != nil {
			return err
		}
		h.buf.Clear(chat.ID)
		log.Printf("[ChatMember Chat:%d] Bot removed from %q, group data deleted", chat.ID, chatTitle(chat))
		return nil
	}

	if !isGroupChat(chat) {
		return nil
	}
	if err := h.registry.Register(chat.ID, chatTitle(chat)); err != nil {
		return err
	}
	return nil
}
