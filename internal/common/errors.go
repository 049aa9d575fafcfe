// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки экономики (звёзды)
var (
	// ErrInsufficientStars — недостаточно звёзд на счёте
	ErrInsufficientStars = errors.New("недостаточно звёзд на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки магазина наград
var (
	// ErrRewardNotFound — награды нет в каталоге (или она скрыта)
	ErrRewardNotFound = errors.New("награда не найдена")
	// ErrPurchaseNotFound — купленная награда не найдена у пользователя
	ErrPurchaseNotFound = errors.New("купленная награда не найдена")
	// ErrRewardAlreadyUsed — награда уже использована
	ErrRewardAlreadyUsed = errors.New("награда уже использована")
	// ErrFreezeMonthlyLimit — заморозку можно купить только раз в месяц
	ErrFreezeMonthlyLimit = errors.New("заморозку можно купить только 1 раз в месяц")
	// ErrInvalidReward — некорректное описание награды в каталоге
	ErrInvalidReward = errors.New("некорректная награда")
)

// Ошибки привычек
var (
	// ErrHabitNotFound — привычка не найдена
	ErrHabitNotFound = errors.New("привычка не найдена")
	// ErrInvalidHabit — некорректное название или дни недели
	ErrInvalidHabit = errors.New("некорректная привычка")
	// ErrAlreadyCompleted — привычка уже отмечена сегодня
	ErrAlreadyCompleted = errors.New("привычка уже выполнена сегодня")
	// ErrHabitLimit — у пользователя максимум привычек
	ErrHabitLimit = errors.New("слишком много привычек")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
