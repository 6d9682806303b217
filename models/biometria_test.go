package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func flotante(v float64) *float64 { return &v }
func entero(v int) *int           { return &v }

func TestBiometriaValidar(t *testing.T) {
	t.Run("sin campos es valida", func(t *testing.T) {
		b := Biometria{}
		assert.NoError(t, b.Validar())
	})

	t.Run("toma completa en rango", func(t *testing.T) {
		b := Biometria{
			Peso:               flotante(72.5),
			Estatura:           flotante(171),
			Temperatura:        flotante(36.6),
			FrecuenciaCardiaca: entero(68),
			PresionSistolica:   entero(118),
			PresionDiastolica:  entero(76),
		}
		assert.NoError(t, b.Validar())
	})

	casos := []struct {
		nombre string
		b      Biometria
	}{
		{"peso cero", Biometria{Peso: flotante(0)}},
		{"peso excesivo", Biometria{Peso: flotante(501)}},
		{"estatura negativa", Biometria{Estatura: flotante(-1)}},
		{"estatura excesiva", Biometria{Estatura: flotante(301)}},
		{"temperatura baja", Biometria{Temperatura: flotante(29.9)}},
		{"temperatura alta", Biometria{Temperatura: flotante(45.1)}},
		{"frecuencia cardiaca baja", Biometria{FrecuenciaCardiaca: entero(19)}},
		{"frecuencia cardiaca alta", Biometria{FrecuenciaCardiaca: entero(301)}},
		{"sistolica baja", Biometria{PresionSistolica: entero(39)}},
		{"sistolica alta", Biometria{PresionSistolica: entero(301)}},
		{"diastolica baja", Biometria{PresionDiastolica: entero(19)}},
		{"diastolica alta", Biometria{PresionDiastolica: entero(201)}},
	}

	for _, caso := range casos {
		t.Run(caso.nombre, func(t *testing.T) {
			assert.Error(t, caso.b.Validar())
		})
	}
}
