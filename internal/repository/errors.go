package repository

import "errors"

var (
	// ErrNotFound возвращается, если запись не найдена
	ErrNotFound = errors.New("not found")

	// ErrConflict возвращается, если запись изменили параллельно (не совпала версия)
	ErrConflict = errors.New("conflict: request was modified concurrently")
)
