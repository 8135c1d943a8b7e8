// Package models содержит доменные структуры движка расчётов:
// пользователя с кастодиальным счётом, подписку, покупку промо-услуги,
// а также типы результата, возвращаемые операциями списания.
package models

import "time"

// User снимок пользователя из хранилища прав. Снимок живёт не дольше
// одного вызова workflow и нигде не кешируется в изменяемом виде.
// SigningKeyEnc хранится только в зашифрованном виде; расшифрованный ключ
// существует в памяти ровно на время подписи одного перевода.
type User struct {
	UID            string    // Уникальный идентификатор пользователя
	Username       string    // Имя пользователя
	AccountAddress string    // Адрес кастодиального счёта в реестре
	SigningKeyEnc  []byte    // Зашифрованный подписывающий ключ счёта
	HasDonated     bool      // Пользователь уже делал пожертвование
	CreatedAt      time.Time // Дата регистрации
}
