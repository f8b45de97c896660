package repository

import "context"

// StudentRepository разрешает внешний идентификатор студента во внутренний ID
type StudentRepository interface {
	// ResolveOrCreate идемпотентна: создаёт запись при первом обращении
	ResolveOrCreate(ctx context.Context, externalID string) (uint, error)
}
