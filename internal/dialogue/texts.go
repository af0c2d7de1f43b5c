package dialogue

import (
	"errors"
	"strings"

	"github.com/m3rciful/ledgerbot/internal/ledger"
)

// Reply tokens shown on the transaction type keyboard.
const (
	TokenIncome  = "Приход"
	TokenExpense = "Расход"
	TokenFinish  = "Завершить"
)

// TypeReplies is the quick-reply set offered whenever a type is requested.
var TypeReplies = []string{TokenIncome, TokenExpense, TokenFinish}

const (
	textGreeting      = "Привет, %s!\nВыберите тип операции: Приход или Расход."
	textGreetingGuest = "друг"
	textAskEntry      = "Пожалуйста, введите сумму и назначение через запятую, например: 1000, Зарплата"
	textUnknownType   = "Пожалуйста, выберите 'Приход' или 'Расход'."
	textRecorded      = "Запись добавлена."
	textRecent        = "Последние записи:"
	textNextType      = "Выберите тип следующей операции: Приход или Расход."
	textFormatError   = "Ошибка ввода. Пожалуйста, введите данные в формате: Сумма, Назначение"
	textNumericError  = "Ошибка ввода. Сумма должна быть положительным числом, например: 1000, Зарплата"
	textStorageError  = "Произошла ошибка: запись не сохранена. Попробуйте отправить её ещё раз."
	textFinished      = "Готово. Чтобы добавить новую операцию, выберите Приход или Расход."
)

// ErrUnknownType is returned by ParseType for text that is not a type token.
var ErrUnknownType = errors.New("unknown transaction type")

// ParseType maps a reply token to a transaction type.
func ParseType(text string) (ledger.Type, error) {
	switch strings.TrimSpace(text) {
	case TokenIncome:
		return ledger.Income, nil
	case TokenExpense:
		return ledger.Expense, nil
	default:
		return ledger.TypeNone, ErrUnknownType
	}
}
