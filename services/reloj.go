package services

import (
	"time"
)

// Reloj provee la hora actual. Se inyecta para poder probar el filtrado de
// slots pasados y la vigencia de recetas con horas fijas.
type Reloj interface {
	Ahora() time.Time
}

// RelojSistema es el reloj de producción
type RelojSistema struct{}

func (RelojSistema) Ahora() time.Time {
	return time.Now()
}

// RelojFijo siempre devuelve la misma hora; útil en pruebas
type RelojFijo struct {
	Hora time.Time
}

func (r RelojFijo) Ahora() time.Time {
	return r.Hora
}
