package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrDuplicate = errors.New("запись с таким ключом уже существует")
var ErrVersionConflict = errors.New("конфликт версий записи")
