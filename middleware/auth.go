package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/medagenda/clinica-backend/models"
)

// DuracionToken es la vigencia de los tokens de acceso
const DuracionToken = 24 * time.Hour

// jwtSecret devuelve la clave de firma desde el ambiente
func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "clave_secreta_desarrollo"
	}
	return []byte(secret)
}

// Claims personalizados para el JWT
type Claims struct {
	UserID int    `json:"user_id"`
	Rol    string `json:"rol"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWT genera un token JWT para un usuario
func GenerateJWT(userID int, rol, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Rol:    rol,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(DuracionToken)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// JWTMiddleware middleware para validar tokens JWT
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Obtener el token del header Authorization
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{
				"error": "Token de autorización requerido",
			})
		}

		// Verificar que el token tenga el formato "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{
				"error": "Formato de token inválido",
			})
		}

		// Validar el token
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return jwtSecret(), nil
		})

		if err != nil || !token.Valid {
			return c.Status(401).JSON(fiber.Map{
				"error": "Token inválido",
			})
		}

		// Extraer claims y guardarlos en el contexto
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return c.Status(401).JSON(fiber.Map{
				"error": "Claims inválidos",
			})
		}

		// Guardar información del usuario en el contexto
		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", claims.Rol)
		c.Locals("user_email", claims.Email)

		return c.Next()
	}
}

// RequireRole middleware para requerir un rol específico
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("user_role").(string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{
				"error": "Rol de usuario no encontrado",
			})
		}

		// Verificar si el usuario tiene uno de los roles permitidos
		for _, role := range allowedRoles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Acceso denegado: permisos insuficientes",
		})
	}
}

// permisosPorRol define qué operaciones puede ejecutar cada rol. Los permisos
// finos sobre recursos propios (la agenda del propio médico, las citas del
// propio paciente) se validan en los handlers.
var permisosPorRol = map[string][]string{
	models.RolAdmin: {
		"medicos_crear", "medicos_leer", "medicos_actualizar", "medicos_eliminar",
		"agenda_leer", "citas_leer", "citas_actualizar",
		"consultas_leer", "recetas_leer", "biometrias_leer",
	},
	models.RolMedico: {
		"medicos_leer", "medicos_actualizar",
		"agenda_leer", "citas_leer", "citas_actualizar",
		"encuentros_crear", "consultas_leer", "recetas_leer", "biometrias_leer",
	},
	models.RolPaciente: {
		"medicos_leer", "agenda_leer", "citas_crear", "citas_leer",
		"consultas_leer", "recetas_leer", "biometrias_leer",
	},
}

// RequirePermission middleware para requerir un permiso específico
func RequirePermission(permiso string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("user_role").(string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{
				"error": "Rol de usuario no encontrado",
			})
		}

		for _, p := range permisosPorRol[userRole] {
			if p == permiso {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Acceso denegado: permisos insuficientes",
		})
	}
}
