package models

import (
	"fmt"
	"time"
)

// Biometria representa la tabla Biometria en la base de datos: una toma de
// signos vitales de un paciente. Cada campo numérico es opcional de forma
// independiente, pero si viene debe caer en su rango fisiológico.
type Biometria struct {
	IDBiometria        string    `json:"id_biometria" db:"id_biometria"`
	IDPaciente         int       `json:"id_paciente" db:"id_paciente"`
	Peso               *float64  `json:"peso,omitempty" db:"peso"`                   // kg
	Estatura           *float64  `json:"estatura,omitempty" db:"estatura"`           // cm
	Temperatura        *float64  `json:"temperatura,omitempty" db:"temperatura"`     // °C
	FrecuenciaCardiaca *int      `json:"frecuencia_cardiaca,omitempty" db:"frecuencia_cardiaca"` // lpm
	PresionSistolica   *int      `json:"presion_sistolica,omitempty" db:"presion_sistolica"`     // mmHg
	PresionDiastolica  *int      `json:"presion_diastolica,omitempty" db:"presion_diastolica"`   // mmHg
	Fecha              time.Time `json:"fecha" db:"fecha"`
}

// Validar revisa que cada campo presente esté dentro de su rango
func (b *Biometria) Validar() error {
	if b.Peso != nil && (*b.Peso <= 0 || *b.Peso > 500) {
		return fmt.Errorf("peso fuera de rango: %.1f", *b.Peso)
	}
	if b.Estatura != nil && (*b.Estatura <= 0 || *b.Estatura > 300) {
		return fmt.Errorf("estatura fuera de rango: %.1f", *b.Estatura)
	}
	if b.Temperatura != nil && (*b.Temperatura < 30 || *b.Temperatura > 45) {
		return fmt.Errorf("temperatura fuera de rango: %.1f", *b.Temperatura)
	}
	if b.FrecuenciaCardiaca != nil && (*b.FrecuenciaCardiaca < 20 || *b.FrecuenciaCardiaca > 300) {
		return fmt.Errorf("frecuencia cardiaca fuera de rango: %d", *b.FrecuenciaCardiaca)
	}
	if b.PresionSistolica != nil && (*b.PresionSistolica < 40 || *b.PresionSistolica > 300) {
		return fmt.Errorf("presión sistólica fuera de rango: %d", *b.PresionSistolica)
	}
	if b.PresionDiastolica != nil && (*b.PresionDiastolica < 20 || *b.PresionDiastolica > 200) {
		return fmt.Errorf("presión diastólica fuera de rango: %d", *b.PresionDiastolica)
	}
	return nil
}
