// Команда hashpass печатает Argon2id-хеш пароля для ADMIN_PASSWORD_HASH.
// Запуск: go run ./cmd/hashpass <пароль>
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/habits-bot/internal/features/admin"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Использование: go run ./cmd/hashpass <пароль>")
		os.Exit(1)
	}

	hash, err := admin.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
	fmt.Println(hash)
}
