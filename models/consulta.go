package models

import (
	"time"
)

// Consulta representa la tabla Consulta en la base de datos. Es la extensión
// 1:1 de una cita completada: su clave es el mismo par (id_medico,
// fecha_hora_cita) de la cita que la originó. Solo el cierre de encuentro la
// crea, nunca un alta directa.
type Consulta struct {
	IDMedico      int       `json:"id_medico" db:"id_medico"`
	FechaHoraCita time.Time `json:"fecha_hora_cita" db:"fecha_hora_cita"`
	IDPaciente    int       `json:"id_paciente" db:"id_paciente"`
	Motivo        string    `json:"motivo" db:"motivo" validate:"max=500"`
	Diagnostico   string    `json:"diagnostico" db:"diagnostico"`
	Tratamiento   string    `json:"tratamiento" db:"tratamiento"`
	Observaciones string    `json:"observaciones" db:"observaciones"`
	Registro      string    `json:"registro" db:"registro"`
	Inicio        time.Time `json:"inicio" db:"inicio"`
	Fin           time.Time `json:"fin" db:"fin"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
