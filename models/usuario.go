package models

import (
	"time"
)

// Roles de usuario del sistema
const (
	RolAdmin    = "admin"
	RolMedico   = "medico"
	RolPaciente = "paciente"
)

// RolValido indica si la cadena es un rol conocido
func RolValido(rol string) bool {
	return rol == RolAdmin || rol == RolMedico || rol == RolPaciente
}

// Usuario representa la tabla Usuario en la base de datos
type Usuario struct {
	IDUsuario       int       `json:"id_usuario" db:"id_usuario"`
	Nombre          string    `json:"nombre" db:"nombre"`
	Apellido        string    `json:"apellido" db:"apellido"`
	Email           string    `json:"email" db:"email"`
	Password        string    `json:"password,omitempty" db:"password"`
	FechaNacimiento string    `json:"fecha_nacimiento" db:"fecha_nacimiento"`
	Rol             string    `json:"rol" db:"rol"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
	MFAEnabled      bool      `json:"mfa_enabled" db:"mfa_enabled"`
	MFASecret       string    `json:"-" db:"mfa_secret"`
}

// UsuarioResponse representa la respuesta sin datos sensibles
type UsuarioResponse struct {
	ID              int       `json:"id_usuario"`
	Nombre          string    `json:"nombre"`
	Apellido        string    `json:"apellido"`
	FechaNacimiento string    `json:"fecha_nacimiento"`
	Rol             string    `json:"rol"`
	Email           string    `json:"email"`
	CreatedAt       time.Time `json:"created_at"`
}

// LoginRequest representa la solicitud de login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfa_code,omitempty"` // requerido solo si el usuario tiene MFA
}

// LoginResponse representa la respuesta del login
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"` // segundos
	Usuario     UsuarioResponse `json:"usuario"`
}

// Tipos para MFA
type MFASetupRequest struct {
	Password string `json:"password" validate:"required"`
}

type MFASetupResponse struct {
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qr_code_url"`
}

type MFAVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}
