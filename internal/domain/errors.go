package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrUpstream     = errors.New("error en la API de origen")
	ErrNoCompanies  = errors.New("no hay empresas configuradas")
)
