package counters

import (
	"errors"
	"strings"
)

// ErrNotFound indica que la clave no resuelve a ningún contador,
// ni como nombre ni como alias.
var ErrNotFound = errors.New("contador no encontrado")

// ConflictError agrupa todos los conflictos de un alta: la validación no se
// corta en el primero, se informa la lista completa de una vez.
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return "conflictos: " + strings.Join(e.Conflicts, "; ")
}
