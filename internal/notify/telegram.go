// Package notify — доставка уведомлений о принятых отправках в
// Telegram-группу склада.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Trung051/chuyenhang/internal/domain/shipments"
)

type Telegram struct {
	api    *tgbotapi.BotAPI
	store  shipments.Store
	chatID int64
	log    *slog.Logger
}

func NewTelegram(api *tgbotapi.BotAPI, store shipments.Store, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, store: store, chatID: chatID, log: log}
}

// NotifyReceived шлёт (или правит) сообщение о принятой отправке.
// Если сообщение уже было и force не взведён — ничего не делаем:
// ровно одно уведомление на переход в received. isUpdateImage
// пересылает карточку заново, потому что текст в фото-сообщение
// не редактируется.
func (t *Telegram) NotifyReceived(ctx context.Context, shipmentID int64, force, isUpdateImage bool) error {
	sh, err := t.store.GetByID(ctx, shipmentID)
	if err != nil {
		return fmt.Errorf("load shipment: %w", err)
	}
	if sh == nil {
		return fmt.Errorf("shipment %d: %w", shipmentID, shipments.ErrNotFound)
	}
	if sh.Status != shipments.StatusReceived {
		return nil
	}
	if sh.TelegramMessageID != 0 && !force && !isUpdateImage {
		return nil
	}

	text := t.composeText(sh)

	// правка текста возможна только у текстового сообщения
	if sh.TelegramMessageID != 0 && !isUpdateImage && sh.ImageURL == "" {
		edit := tgbotapi.NewEditMessageText(t.chatID, int(sh.TelegramMessageID), text)
		if _, err := t.api.Send(edit); err != nil {
			return fmt.Errorf("edit message: %w", err)
		}
		return nil
	}

	var sent tgbotapi.Message
	if sh.ImageURL != "" {
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(sh.ImageURL))
		photo.Caption = text
		sent, err = t.api.Send(photo)
	} else {
		sent, err = t.api.Send(tgbotapi.NewMessage(t.chatID, text))
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	if err := t.store.SetTelegramMessageID(ctx, sh.ID, int64(sent.MessageID)); err != nil {
		// сообщение ушло, отметка не записалась — не фатально
		t.log.Error("save telegram message id failed", "shipment_id", sh.ID, "err", err)
	}
	return nil
}

func (t *Telegram) composeText(sh *shipments.Shipment) string {
	text := fmt.Sprintf(
		"📦 %s\nMã QR: %s\nIMEI: %s\nThiết bị: %s (%s)\nNCC: %s",
		sh.Status.Label(), sh.QRCode, sh.IMEI, sh.DeviceName, sh.Capacity, sh.Supplier,
	)
	if sh.ReceivedTime != nil {
		text += fmt.Sprintf("\nThời gian nhận: %s", sh.ReceivedTime.Format("02-01-2006 15:04"))
	}
	if sh.UpdatedBy != "" {
		text += fmt.Sprintf("\nNgười cập nhật: %s", sh.UpdatedBy)
	}
	if sh.Notes != "" {
		text += fmt.Sprintf("\nGhi chú: %s", sh.Notes)
	}
	return text
}
