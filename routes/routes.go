package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/medagenda/clinica-backend/handlers"
	"github.com/medagenda/clinica-backend/middleware"
)

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(app *fiber.App) {
	// Middleware global
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(middleware.LoggingMiddleware())
	app.Use(middleware.DefaultRateLimiter())

	// Ruta de salud del sistema
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Clinica Agenda API",
			"version": "1.0.0",
		})
	})

	// Grupo de API
	api := app.Group("/api/v1")

	// === RUTAS PÚBLICAS (Sin autenticación) ===
	auth := api.Group("/auth", middleware.AuthRateLimiter())
	auth.Post("/register", handlers.RegistrarUsuario)
	auth.Post("/login", handlers.Login)

	// === RUTAS PROTEGIDAS (Requieren autenticación) ===
	protected := api.Group("/", middleware.JWTMiddleware())

	// --- RUTAS DE USUARIOS ---
	usuarios := protected.Group("/usuarios")
	usuarios.Get("/perfil", handlers.ObtenerPerfil)

	// --- RUTAS MFA ---
	mfa := protected.Group("/mfa")
	mfa.Post("/setup", handlers.SetupMFA)
	mfa.Post("/verify", handlers.VerifyMFA)
	mfa.Post("/disable", handlers.DisableMFA)

	// --- RUTAS DE MÉDICOS ---
	medicos := protected.Group("/medicos")
	medicos.Post("/", middleware.RequirePermission("medicos_crear"), handlers.CrearMedico)
	medicos.Get("/", middleware.RequirePermission("medicos_leer"), handlers.ObtenerMedicos)
	medicos.Get("/:id", middleware.RequirePermission("medicos_leer"), handlers.ObtenerMedicoPorID)
	medicos.Put("/:id/horario", middleware.RequirePermission("medicos_actualizar"), handlers.ActualizarHorarioMedico)
	medicos.Delete("/:id", middleware.RequirePermission("medicos_eliminar"), handlers.DesactivarMedico)

	// --- RUTAS DE AGENDA ---
	agenda := protected.Group("/agenda")
	agenda.Get("/:medico_id/slots", middleware.RequirePermission("agenda_leer"), handlers.ObtenerSlotsDisponibles)

	// --- RUTAS DE CITAS ---
	citas := protected.Group("/citas")
	citas.Post("/", middleware.RequirePermission("citas_crear"), handlers.CrearCita)
	citas.Get("/", middleware.RequirePermission("citas_leer"), handlers.ObtenerMisCitas)
	citas.Get("/medico/:medico_id", middleware.RequirePermission("citas_leer"), handlers.ObtenerCitasDelDia)
	citas.Put("/estado", middleware.RequirePermission("citas_actualizar"), handlers.CambiarEstadoCita)

	// --- RUTAS DE ENCUENTROS ---
	encuentros := protected.Group("/encuentros")
	encuentros.Post("/completar", middleware.RequirePermission("encuentros_crear"), handlers.CompletarEncuentro)

	// --- RUTAS DE CONSULTAS, RECETAS Y BIOMETRÍAS ---
	consultas := protected.Group("/consultas")
	consultas.Get("/paciente/:paciente_id", middleware.RequirePermission("consultas_leer"), handlers.ObtenerConsultasPorPaciente)
	consultas.Get("/cita/:medico_id", middleware.RequirePermission("consultas_leer"), handlers.ObtenerConsultaDeCita)

	recetas := protected.Group("/recetas")
	recetas.Get("/paciente/:paciente_id", middleware.RequirePermission("recetas_leer"), handlers.ObtenerRecetasPorPaciente)

	biometrias := protected.Group("/biometrias")
	biometrias.Get("/paciente/:paciente_id", middleware.RequirePermission("biometrias_leer"), handlers.ObtenerBiometriasPorPaciente)
}
