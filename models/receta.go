package models

import (
	"time"
)

// Estados derivados de una receta. No se almacenan: se calculan comparando la
// vigencia contra la hora actual al momento de leer.
const (
	RecetaActiva  = "Activa"
	RecetaVencida = "Vencida"
)

// Tipos de frecuencia de una receta
const (
	FrecuenciaHoras = "horas"
	FrecuenciaDias  = "dias"
)

// Receta representa la tabla Receta en la base de datos. Pertenece a una
// consulta y a un paciente; se crea únicamente dentro del cierre de encuentro
// y es inmutable: una corrección es una receta nueva, no una edición.
type Receta struct {
	IDReceta       string    `json:"id_receta" db:"id_receta"`
	IDMedico       int       `json:"id_medico" db:"id_medico"`
	FechaHoraCita  time.Time `json:"fecha_hora_cita" db:"fecha_hora_cita"`
	IDPaciente     int       `json:"id_paciente" db:"id_paciente"`
	Medicamento    string    `json:"medicamento" db:"medicamento" validate:"required,max=255"`
	Dosis          string    `json:"dosis" db:"dosis" validate:"required,max=100"`
	FormatoDosis   string    `json:"formato_dosis" db:"formato_dosis" validate:"max=50"`
	Frecuencia     int       `json:"frecuencia" db:"frecuencia"`
	TipoFrecuencia string    `json:"tipo_frecuencia" db:"tipo_frecuencia" validate:"oneof=horas dias"`
	Vigencia       time.Time `json:"vigencia" db:"vigencia"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Estado devuelve Activa o Vencida según la vigencia y la hora dada
func (r Receta) Estado(ahora time.Time) string {
	if ahora.Before(r.Vigencia) {
		return RecetaActiva
	}
	return RecetaVencida
}
