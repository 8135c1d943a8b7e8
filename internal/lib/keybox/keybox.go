// Package keybox шифрует и расшифровывает подписывающие ключи
// кастодиальных счетов. Ключ хранится в базе только запечатанным;
// распечатанный ключ живёт в памяти на время подписи одного перевода
// и затирается вызовом Zero на каждом пути выхода.
package keybox

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize требуемая длина мастер-ключа в байтах.
const KeySize = chacha20poly1305.KeySize

// Seal запечатывает plaintext мастер-ключом. Случайный nonce
// дописывается в начало результата.
func Seal(masterKey, plaintext []byte) ([]byte, error) {
	const op = "keybox.Seal"
	aead, err := chacha20poly1305.NewX(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open распечатывает box, запечатанный Seal. Подмена или повреждение
// данных возвращает ошибку аутентификации.
func Open(masterKey, box []byte) ([]byte, error) {
	const op = "keybox.Open"
	aead, err := chacha20poly1305.NewX(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(box) < aead.NonceSize() {
		return nil, fmt.Errorf("%s: sealed box too short", op)
	}
	nonce, ciphertext := box[:aead.NonceSize()], box[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plaintext, nil
}

// Zero затирает содержимое среза ключевого материала.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
