package models

import (
	"time"
)

// Bitacora representa la tabla Bitacora en la base de datos: el registro de
// auditoría de cada petición HTTP y de los eventos de negocio relevantes.
type Bitacora struct {
	IDBitacora   int       `json:"id_bitacora" db:"id_bitacora"`
	Method       string    `json:"method" db:"method"`
	Path         string    `json:"path" db:"path"`
	StatusCode   int       `json:"status_code" db:"status_code"`
	ResponseTime *int      `json:"response_time" db:"response_time"`
	UserAgent    *string   `json:"user_agent" db:"user_agent"`
	IP           string    `json:"ip" db:"ip"`
	Body         *string   `json:"body" db:"body"`
	Query        *string   `json:"query" db:"query"`
	Email        *string   `json:"email" db:"email"`
	Rol          *string   `json:"rol" db:"rol"`
	Nivel        string    `json:"nivel" db:"nivel"`
	Ambiente     string    `json:"ambiente" db:"ambiente"`
	Detalle      *string   `json:"detalle" db:"detalle"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

// CreateBitacoraRequest es la entrada para registrar un evento de bitácora
type CreateBitacoraRequest struct {
	Method       string  `json:"method" validate:"required,max=10"`
	Path         string  `json:"path" validate:"required,max=500"`
	StatusCode   int     `json:"status_code" validate:"required"`
	ResponseTime *int    `json:"response_time,omitempty"`
	UserAgent    *string `json:"user_agent,omitempty"`
	IP           string  `json:"ip" validate:"required,max=45"`
	Body         *string `json:"body,omitempty"`
	Query        *string `json:"query,omitempty"`
	Email        *string `json:"email,omitempty"`
	Rol          *string `json:"rol,omitempty"`
	Nivel        *string `json:"nivel,omitempty"`
	Ambiente     *string `json:"ambiente,omitempty"`
	Detalle      *string `json:"detalle,omitempty"`
}

// Constantes para niveles de bitácora
const (
	NivelInfo    = "info"
	NivelWarning = "warning"
	NivelError   = "error"
	NivelDebug   = "debug"
	NivelSuccess = "success"
)

// Constantes para ambientes
const (
	AmbienteDesarrollo = "development"
	AmbienteProduccion = "production"
	AmbientePruebas    = "testing"
)
