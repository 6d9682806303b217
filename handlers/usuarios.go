package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/medagenda/clinica-backend/database"
	"github.com/medagenda/clinica-backend/middleware"
	"github.com/medagenda/clinica-backend/models"
)

// RegistrarUsuario crea un nuevo usuario en el sistema
func RegistrarUsuario(c *fiber.Ctx) error {
	var usuario models.Usuario
	if err := c.BodyParser(&usuario); err != nil {
		return respuestaError(c, 400, "F01", "Datos inválidos")
	}

	if !models.RolValido(usuario.Rol) {
		return respuestaError(c, 400, "F01", "Rol de usuario inválido")
	}
	if usuario.Nombre == "" || usuario.Apellido == "" || usuario.Email == "" || usuario.Password == "" {
		return respuestaError(c, 400, "F01", "Nombre, apellido, email y contraseña son requeridos")
	}

	// Verificar si el email ya existe
	var existeEmail int
	err := database.GetDB().QueryRow(context.Background(),
		"SELECT COUNT(*) FROM Usuario WHERE email = $1", usuario.Email).Scan(&existeEmail)
	if err != nil {
		return respuestaError(c, 500, "F01", "Error interno del servidor")
	}
	if existeEmail > 0 {
		return respuestaError(c, 409, "F01", "El email ya está registrado")
	}

	// Encriptar la contraseña
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(usuario.Password), bcrypt.DefaultCost)
	if err != nil {
		return respuestaError(c, 500, "F01", "Error al procesar la contraseña")
	}

	var nuevoID int
	err = database.GetDB().QueryRow(context.Background(),
		`INSERT INTO Usuario (nombre, apellido, fecha_nacimiento, rol, email, password, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id_usuario`,
		usuario.Nombre, usuario.Apellido, usuario.FechaNacimiento, usuario.Rol,
		usuario.Email, string(hashedPassword)).Scan(&nuevoID)
	if err != nil {
		return respuestaError(c, 500, "F01", "Error al crear el usuario")
	}

	respuesta := models.UsuarioResponse{
		ID:              nuevoID,
		Nombre:          usuario.Nombre,
		Apellido:        usuario.Apellido,
		FechaNacimiento: usuario.FechaNacimiento,
		Rol:             usuario.Rol,
		Email:           usuario.Email,
		CreatedAt:       time.Now(),
	}
	return respuestaExito(c, 201, "S01", fiber.Map{"mensaje": "Usuario creado exitosamente", "usuario": respuesta})
}

// Login autentica un usuario y devuelve un token JWT. Si el usuario tiene MFA
// habilitado, el código TOTP es obligatorio.
func Login(c *fiber.Ctx) error {
	var loginReq models.LoginRequest
	if err := c.BodyParser(&loginReq); err != nil {
		return respuestaError(c, 400, "F02", "Datos inválidos")
	}

	var usuario models.Usuario
	err := database.GetDB().QueryRow(context.Background(),
		`SELECT id_usuario, nombre, apellido, rol, email, password, mfa_enabled, mfa_secret, created_at
		 FROM Usuario WHERE email = $1`, loginReq.Email).Scan(
		&usuario.IDUsuario, &usuario.Nombre, &usuario.Apellido, &usuario.Rol, &usuario.Email,
		&usuario.Password, &usuario.MFAEnabled, &usuario.MFASecret, &usuario.CreatedAt)
	if err != nil {
		return respuestaError(c, 401, "F02", "Credenciales inválidas")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.Password), []byte(loginReq.Password)); err != nil {
		return respuestaError(c, 401, "F02", "Credenciales inválidas")
	}

	if usuario.MFAEnabled {
		if loginReq.MFACode == "" {
			return respuestaError(c, 401, "F02", "Código MFA requerido")
		}
		if !totp.Validate(loginReq.MFACode, usuario.MFASecret) {
			return respuestaError(c, 401, "F02", "Código MFA inválido")
		}
	}

	token, err := middleware.GenerateJWT(usuario.IDUsuario, usuario.Rol, usuario.Email)
	if err != nil {
		return respuestaError(c, 500, "F02", "Error al generar el token")
	}

	middleware.LogCustomEvent(models.NivelSuccess, "Login exitoso", usuario.Email, usuario.Rol,
		map[string]interface{}{"usuario_id": usuario.IDUsuario, "action": "login"})

	return respuestaExito(c, 200, "S02", fiber.Map{"login": models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(middleware.DuracionToken.Seconds()),
		Usuario: models.UsuarioResponse{
			ID:       usuario.IDUsuario,
			Nombre:   usuario.Nombre,
			Apellido: usuario.Apellido,
			Rol:      usuario.Rol,
			Email:    usuario.Email,
		},
	}})
}

// ObtenerPerfil devuelve el perfil del usuario autenticado
func ObtenerPerfil(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	var usuario models.UsuarioResponse
	err := database.GetDB().QueryRow(context.Background(),
		`SELECT id_usuario, nombre, apellido, fecha_nacimiento, rol, email, created_at
		 FROM Usuario WHERE id_usuario = $1`, userID).Scan(
		&usuario.ID, &usuario.Nombre, &usuario.Apellido, &usuario.FechaNacimiento,
		&usuario.Rol, &usuario.Email, &usuario.CreatedAt)
	if err != nil {
		return respuestaError(c, 404, "F03", "Usuario no encontrado")
	}
	return respuestaExito(c, 200, "S03", fiber.Map{"usuario": usuario})
}

// SetupMFA genera un secreto TOTP para el usuario autenticado. El MFA queda
// habilitado hasta que VerifyMFA confirme un código válido.
func SetupMFA(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	var req models.MFASetupRequest
	if err := c.BodyParser(&req); err != nil {
		return respuestaError(c, 400, "F04", "Datos inválidos")
	}

	var email, password string
	err := database.GetDB().QueryRow(context.Background(),
		"SELECT email, password FROM Usuario WHERE id_usuario = $1", userID).Scan(&email, &password)
	if err != nil {
		return respuestaError(c, 404, "F04", "Usuario no encontrado")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return respuestaError(c, 401, "F04", "Contraseña incorrecta")
	}

	clave, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Clinica Agenda",
		AccountName: email,
	})
	if err != nil {
		return respuestaError(c, 500, "F04", "Error al generar el secreto MFA")
	}

	_, err = database.GetDB().Exec(context.Background(),
		"UPDATE Usuario SET mfa_secret = $1, mfa_enabled = false, updated_at = NOW() WHERE id_usuario = $2",
		clave.Secret(), userID)
	if err != nil {
		return respuestaError(c, 500, "F04", "Error al guardar el secreto MFA")
	}

	return respuestaExito(c, 200, "S04", fiber.Map{"mfa": models.MFASetupResponse{
		Secret:    clave.Secret(),
		QRCodeURL: clave.URL(),
	}})
}

// VerifyMFA valida el primer código TOTP y habilita el MFA del usuario
func VerifyMFA(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	var req models.MFAVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return respuestaError(c, 400, "F05", "Datos inválidos")
	}

	var secreto string
	err := database.GetDB().QueryRow(context.Background(),
		"SELECT mfa_secret FROM Usuario WHERE id_usuario = $1", userID).Scan(&secreto)
	if err != nil || secreto == "" {
		return respuestaError(c, 400, "F05", "Primero genera el secreto MFA")
	}

	if !totp.Validate(req.Code, secreto) {
		return respuestaError(c, 401, "F05", "Código MFA inválido")
	}

	_, err = database.GetDB().Exec(context.Background(),
		"UPDATE Usuario SET mfa_enabled = true, updated_at = NOW() WHERE id_usuario = $1", userID)
	if err != nil {
		return respuestaError(c, 500, "F05", "Error al habilitar MFA")
	}
	return respuestaExito(c, 200, "S05", fiber.Map{"mensaje": "MFA habilitado exitosamente"})
}

// DisableMFA deshabilita el MFA del usuario autenticado
func DisableMFA(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	var req models.MFASetupRequest
	if err := c.BodyParser(&req); err != nil {
		return respuestaError(c, 400, "F06", "Datos inválidos")
	}

	var password string
	err := database.GetDB().QueryRow(context.Background(),
		"SELECT password FROM Usuario WHERE id_usuario = $1", userID).Scan(&password)
	if err != nil {
		return respuestaError(c, 404, "F06", "Usuario no encontrado")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return respuestaError(c, 401, "F06", "Contraseña incorrecta")
	}

	_, err = database.GetDB().Exec(context.Background(),
		"UPDATE Usuario SET mfa_enabled = false, mfa_secret = '', updated_at = NOW() WHERE id_usuario = $1", userID)
	if err != nil {
		return respuestaError(c, 500, "F06", "Error al deshabilitar MFA")
	}
	return respuestaExito(c, 200, "S06", fiber.Map{"mensaje": "MFA deshabilitado exitosamente"})
}
