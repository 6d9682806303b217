package models

import (
	"time"
)

// Estados del ciclo de vida de una cita. Completada y Cancelada son terminales.
const (
	CitaRegistrada = "Registrada"
	CitaAprobada   = "Aprobada"
	CitaCompletada = "Completada"
	CitaCancelada  = "Cancelada"
)

// Tipos de cita
const (
	CitaPrimaria    = "Primaria"
	CitaSeguimiento = "Seguimiento"
	CitaPreventiva  = "Preventiva"
)

// transicionesCita es la tabla de transiciones legales del ciclo de vida
var transicionesCita = map[string][]string{
	CitaRegistrada: {CitaAprobada, CitaCancelada},
	CitaAprobada:   {CitaCompletada, CitaCancelada},
	CitaCompletada: {},
	CitaCancelada:  {},
}

// TransicionValida indica si el cambio de estado desde -> hacia está permitido
func TransicionValida(desde, hacia string) bool {
	for _, destino := range transicionesCita[desde] {
		if destino == hacia {
			return true
		}
	}
	return false
}

// EstadoTerminal indica si el estado no admite más transiciones
func EstadoTerminal(estado string) bool {
	return len(transicionesCita[estado]) == 0
}

// EstadoCitaValido indica si la cadena es un estado conocido
func EstadoCitaValido(estado string) bool {
	_, ok := transicionesCita[estado]
	return ok
}

// TipoCitaValido indica si la cadena es un tipo de cita conocido
func TipoCitaValido(tipo string) bool {
	return tipo == CitaPrimaria || tipo == CitaSeguimiento || tipo == CitaPreventiva
}

// Cita representa la tabla Cita en la base de datos. Su identidad es el par
// compuesto (id_medico, fecha_hora): esa unicidad es la que impide reservar
// dos veces al mismo médico en el mismo instante.
type Cita struct {
	IDMedico   int       `json:"id_medico" db:"id_medico"`
	FechaHora  time.Time `json:"fecha_hora" db:"fecha_hora"`
	IDPaciente int       `json:"id_paciente" db:"id_paciente"`
	Tipo       string    `json:"tipo" db:"tipo" validate:"oneof=Primaria Seguimiento Preventiva"`
	Motivo     string    `json:"motivo" db:"motivo" validate:"max=500"`
	Estado     string    `json:"estado" db:"estado" validate:"oneof=Registrada Aprobada Completada Cancelada"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
