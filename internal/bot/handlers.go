// Package bot adapts the dialogue machine to Telegram.
package bot

import (
	"errors"
	"fmt"
	"strings"

	tg "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/commands"
	"github.com/m3rciful/ledgerbot/core/telegram/format"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/keyboard"
	"github.com/m3rciful/ledgerbot/internal/dialogue"
	"github.com/m3rciful/ledgerbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

const (
	textExportCaption = "Вот ваш файл %s"
	textExportEmpty   = "Файл %s еще не содержит данных или не был создан."
	textExportFailed  = "Ошибка при отправке файла. Попробуйте позже."
	textOnlyText      = "Я понимаю только текст. Выберите Приход или Расход."
	textRateLimited   = "Слишком много сообщений, подождите немного."
)

// Handlers serves the bot's commands and free text.
type Handlers struct {
	machine    *dialogue.Machine
	exportName string
}

// New returns handlers that send the ledger as exportName on /download.
func New(machine *dialogue.Machine, exportName string) *Handlers {
	return &Handlers{machine: machine, exportName: exportName}
}

// Register adds the commands and the text handler to reg.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Начать и выбрать тип операции",
	})
	reg.RegisterCommand("/download", commands.Command{
		Handler:     h.Download,
		Description: "Скачать файл с записями",
		Aliases:     []string{"export"},
	})
	reg.SetTextFallback(h.Text)
}

// Start greets the user and asks for a transaction type.
func (h *Handlers) Start(c tele.Context) error {
	return h.reply(c, h.machine.Start(tghelpers.BuildContext(c), event(c)))
}

// Text feeds a message into the dialogue.
func (h *Handlers) Text(c tele.Context) error {
	return h.reply(c, h.machine.Handle(tghelpers.BuildContext(c), event(c)))
}

// Download sends the ledger file.
func (h *Handlers) Download(c tele.Context) error {
	data, err := h.machine.Export(tghelpers.BuildContext(c))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return tghelpers.SendText(c, fmt.Sprintf(textExportEmpty, h.exportName))
	case err != nil:
		if serr := tghelpers.SendText(c, textExportFailed); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}
	return tghelpers.SendDocument(c, h.exportName, fmt.Sprintf(textExportCaption, h.exportName), data)
}

// UnknownDocument answers non-text uploads.
func (h *Handlers) UnknownDocument(c tele.Context) error {
	return tghelpers.SendText(c, textOnlyText)
}

// RateLimited is sent when the user writes faster than the configured interval.
func (h *Handlers) RateLimited(c tele.Context) error {
	return tghelpers.SendText(c, textRateLimited)
}

func (h *Handlers) reply(c tele.Context, msgs []dialogue.Message) error {
	for _, m := range msgs {
		var err error
		if m.Preformatted {
			err = tghelpers.SendMDV2(c, format.PreBlock(m.Text), markup(m))
		} else {
			err = tghelpers.SendText(c, m.Text, &tele.SendOptions{ReplyMarkup: markup(m)})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func markup(m dialogue.Message) *tele.ReplyMarkup {
	switch {
	case len(m.QuickReplies) > 0:
		return keyboard.ReplyButtons(keyboard.Chunk(m.QuickReplies, 2)...)
	case m.HideQuickReplies:
		return keyboard.RemoveKeyboard()
	default:
		return nil
	}
}

func event(c tele.Context) dialogue.Event {
	ev := dialogue.Event{Text: c.Text()}
	if u := c.Sender(); u != nil {
		ev.SessionID = u.ID
		ev.UserID = u.ID
		ev.Username = u.Username
		ev.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return ev
}
