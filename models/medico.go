package models

import (
	"time"
)

// Estados posibles de un médico. Los médicos nunca se eliminan, solo se desactivan.
const (
	MedicoActivo   = "Activo"
	MedicoInactivo = "Inactivo"
)

// Claves de día usadas en el horario de atención
const (
	DiaLunes     = "monday"
	DiaMartes    = "tuesday"
	DiaMiercoles = "wednesday"
	DiaJueves    = "thursday"
	DiaViernes   = "friday"
	DiaSabado    = "saturday"
	DiaDomingo   = "sunday"
)

// RangoHorario es un rango [Inicio, Fin) en minutos desde medianoche
type RangoHorario struct {
	Inicio int `json:"start"`
	Fin    int `json:"end"`
}

// Valido indica si el rango está bien formado (0 <= inicio < fin <= 1440)
func (r RangoHorario) Valido() bool {
	return r.Inicio >= 0 && r.Inicio < r.Fin && r.Fin <= 1440
}

// HorarioAtencion es el horario semanal de un médico: día de la semana -> rango
// en minutos. Un día ausente significa cerrado. Un rango mal formado también se
// trata como cerrado para tolerar médicos con horario a medio configurar.
type HorarioAtencion map[string]RangoHorario

// Abierto indica si el médico atiende el día indicado
func (h HorarioAtencion) Abierto(dia string) bool {
	_, ok := h.RangoDe(dia)
	return ok
}

// RangoDe devuelve el rango de atención del día, si existe y es válido
func (h HorarioAtencion) RangoDe(dia string) (RangoHorario, bool) {
	rango, ok := h[dia]
	if !ok || !rango.Valido() {
		return RangoHorario{}, false
	}
	return rango, true
}

// ClaveDia convierte un time.Weekday a la clave usada en el horario
func ClaveDia(d time.Weekday) string {
	claves := [...]string{DiaDomingo, DiaLunes, DiaMartes, DiaMiercoles, DiaJueves, DiaViernes, DiaSabado}
	return claves[int(d)%7]
}

// Medico representa la tabla Medico en la base de datos. IDMedico es el
// id_usuario del usuario con rol medico dueño del perfil.
type Medico struct {
	IDMedico     int             `json:"id_medico" db:"id_medico"`
	Nombre       string          `json:"nombre" db:"nombre"`
	Especialidad string          `json:"especialidad" db:"especialidad" validate:"max=100"`
	Estado       string          `json:"estado" db:"estado" validate:"oneof=Activo Inactivo"`
	Horario      HorarioAtencion `json:"horario_atencion" db:"horario_atencion"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
