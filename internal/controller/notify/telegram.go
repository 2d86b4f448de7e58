// Package notify отправляет участникам уведомления о бронированиях,
// посещаемости и продлении планов
package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// Sender часть API бота, которая нужна для уведомлений
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram доставляет уведомления в Telegram. Ошибки доставки только
// логируются: уведомление не должно откатывать операцию.
type Telegram struct {
	sender Sender
	loc    *time.Location
	logger *zap.Logger
}

// NewBot создаёт клиента Bot API. Бот только отправляет сообщения,
// обновления не читаются.
func NewBot(token string) (*bot.Bot, error) {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	b, err := bot.New(
		token,
		bot.WithHTTPClient(time.Minute, httpClient),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

// NewTelegram loc - зона, в которой показывается время занятий
func NewTelegram(sender Sender, loc *time.Location, logger *zap.Logger) *Telegram {
	return &Telegram{
		sender: sender,
		loc:    loc,
		logger: logger,
	}
}

func (t *Telegram) BookingCreated(ctx context.Context, booking *model.Booking, teacher, student *model.User) {
	when := formatTimeRange(booking.Start.In(t.loc), booking.End.In(t.loc))

	t.send(ctx, student, fmt.Sprintf(
		"✅ <b>Вы записаны на занятие</b>\n\n👨‍🏫 Учитель: %s\n🕐 %s",
		fullName(teacher), when,
	))
	t.send(ctx, teacher, fmt.Sprintf(
		"📅 <b>Новая запись</b>\n\n👤 Студент: %s\n🕐 %s",
		fullName(student), when,
	))
}

func (t *Telegram) AttendanceMarked(ctx context.Context, attendance *model.Attendance, student *model.User) {
	display := attendanceStatusDisplay(attendance.Status)

	text := fmt.Sprintf("%s <b>Посещаемость отмечена</b>\n\nСтатус: %s", display.Emoji, display.Text)
	if attendance.LateDuration != nil {
		text += fmt.Sprintf("\nОпоздание: %s", html.EscapeString(*attendance.LateDuration))
	}

	t.send(ctx, student, text)
}

func (t *Telegram) RenewalDue(ctx context.Context, plan *model.Plan, student *model.User) {
	left := plan.SessionLimit - plan.SessionUsed

	text := fmt.Sprintf(
		"⏳ <b>План закончился %s</b>\n\nИспользовано: %d из %d, осталось %d %s.\nПродлите план, чтобы продолжить записываться на занятия.",
		formatDate(plan.EndDate.In(t.loc)), plan.SessionUsed, plan.SessionLimit, left, pluralizeSessions(left),
	)
	if !plan.IsFreeTrial() && plan.PriceQuote > 0 {
		text += fmt.Sprintf("\n\n💰 Стоимость прошлого цикла: %s", formatPrice(plan.PriceQuote))
	}

	t.send(ctx, student, text)
}

func (t *Telegram) send(ctx context.Context, user *model.User, text string) {
	if user == nil || user.TelegramID == nil {
		return
	}

	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *user.TelegramID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		t.logger.Warn("Failed to send notification",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// fullName имя для сообщения с ParseModeHTML, экранированное
func fullName(u *model.User) string {
	if u == nil {
		return ""
	}
	return html.EscapeString(strings.TrimSpace(u.FirstName + " " + u.LastName))
}

// Nop ничего не отправляет, используется без токена бота
type Nop struct{}

func (Nop) BookingCreated(context.Context, *model.Booking, *model.User, *model.User) {}

func (Nop) AttendanceMarked(context.Context, *model.Attendance, *model.User) {}

func (Nop) RenewalDue(context.Context, *model.Plan, *model.User) {}
