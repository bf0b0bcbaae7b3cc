package handlers

import (
	"context"
	"log"
	"strings"

	"photoreport-bot/internal/locales"
	"photoreport-bot/internal/report"
	"photoreport-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Callback data for the admin report drill-down:
// view-reports -> pick a month -> pick a date -> per-group day view.
const (
	callbackViewReports   = "group"
	callbackMonthCurrent  = "month_current"
	callbackMonthPrevious = "month_previous"
	callbackDayPrefix     = "day_"
)

// HandleCallbackQuery processes inline-button presses from the admin
// menu. It always acknowledges the query so the button stops spinning,
// and returns true when the callback data belonged to this handler.
func (h *MessageHandler) HandleCallbackQuery(ctx context.Context, bot telegoapi.BotAPI, query telego.CallbackQuery) (bool, error) {
	data := query.Data
	known := data == callbackViewReports ||
		data == callbackMonthCurrent ||
		data == callbackMonthPrevious ||
		strings.HasPrefix(data, callbackDayPrefix)
	if !known {
		return false, nil
	}

	if err := bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		log.Printf("[Callback User:%d] Error answering query %s: %v", query.From.ID, query.ID, err)
	}

	chatID := callbackChatID(query)
	localizer := h.getLocalizer(&query.From)

	if !h.adminChecker.IsAdmin(query.From.ID) {
		log.Printf("[Callback User:%d] Non-admin pressed %q", query.From.ID, data)
		msg := locales.GetMessage(localizer, "MsgNoAccessAction", nil, nil)
		return true, h.sendText(ctx, bot, chatID, msg)
	}

	switch {
	case data == callbackViewReports:
		return true, h.showMonthMenu(ctx, bot, localizer, chatID)
	case data == callbackMonthCurrent || data == callbackMonthPrevious:
		return true, h.showDateMenu(ctx, bot, localizer, chatID, data == callbackMonthPrevious)
	default:
		date := strings.TrimPrefix(data, callbackDayPrefix)
		return true, h.showDayView(ctx, bot, localizer, chatID, date)
	}
}

// callbackChatID resolves where to send the response. The menu lives in
// the admin's private chat, so the query message's chat is the right
// target; if Telegram marked it inaccessible, fall back to the admin.
func callbackChatID(query telego.CallbackQuery) int64 {
	if query.Message != nil {
		if msg, ok := query.Message.(*telego.Message); ok && msg != nil {
			return msg.Chat.ID
		}
	}
	return query.From.ID
}

// showMonthMenu offers the current and previous months, mirroring the
// retention horizon: anything older is purged anyway.
func (h *MessageHandler) showMonthMenu(ctx context.Context, bot telegoapi.BotAPI, localizer *i18n.Localizer, chatID int64) error {
	if h.archive.IsEmpty() {
		msg := locales.GetMessage(localizer, "MsgNoArchiveReports", nil, nil)
		return h.sendWithKeyboard(ctx, bot, chatID, msg, adminMenuKeyboard(localizer))
	}

	now := h.clock().In(h.policy.Location())
	previous := now.AddDate(0, 0, -now.Day()) // last day of the previous month

	currentBtn := locales.GetMessage(localizer, "BtnForMonth", map[string]interface{}{
		"Month": locales.MonthName(localizer, int(now.Month())),
	}, nil)
	previousBtn := locales.GetMessage(localizer, "BtnForMonth", map[string]interface{}{
		"Month": locales.MonthName(localizer, int(previous.Month())),
	}, nil)

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(currentBtn).WithCallbackData(callbackMonthCurrent),
			tu.InlineKeyboardButton(previousBtn).WithCallbackData(callbackMonthPrevious),
		),
	)
	msg := locales.GetMessage(localizer, "MsgChooseMonth", nil, nil)
	return h.sendWithKeyboard(ctx, bot, chatID, msg, keyboard)
}

// showDateMenu lists the distinct report dates of the chosen month.
func (h *MessageHandler) showDateMenu(ctx context.Context, bot telegoapi.BotAPI, localizer *i18n.Localizer, chatID int64, previousMonth bool) error {
	now := h.clock().In(h.policy.Location())
	target := now
	if previousMonth {
		target = now.AddDate(0, 0, -now.Day())
	}

	dates := h.archive.MonthDates(target.Year(), target.Month())
	if len(dates) == 0 {
		msg := locales.GetMessage(localizer, "MsgNoReportsForMonth", nil, nil)
		return h.sendWithKeyboard(ctx, bot, chatID, msg, adminMenuKeyboard(localizer))
	}

	rows := make([][]telego.InlineKeyboardButton, 0, len(dates))
	for _, date := range dates {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(date).WithCallbackData(callbackDayPrefix+date),
		))
	}
	keyboard := &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
	msg := locales.GetMessage(localizer, "MsgChooseDate", nil, nil)
	return h.sendWithKeyboard(ctx, bot, chatID, msg, keyboard)
}

// showDayView renders the per-group status for one report date.
func (h *MessageHandler) showDayView(ctx context.Context, bot telegoapi.BotAPI, localizer *i18n.Localizer, chatID int64, date string) error {
	text := report.FormatDay(localizer, date, h.registry.ListAll(), h.archive.ByDate(date))
	return h.sendWithKeyboard(ctx, bot, chatID, text, adminMenuKeyboard(localizer))
}
