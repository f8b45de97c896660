package repository

import "errors"

// ErrStudentUnresolved означает, что внешний идентификатор студента не удалось разрешить или создать.
var ErrStudentUnresolved = errors.New("student identity could not be resolved")
