package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medagenda/clinica-backend/database"
	"github.com/medagenda/clinica-backend/models"
)

// LoggingMiddleware captura y registra todas las peticiones HTTP en la bitácora
func LoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Continuar con la petición
		err := c.Next()

		// Calcular tiempo de respuesta
		responseTime := int(time.Since(start).Milliseconds())

		// Crear la entrada de bitácora
		entrada := crearEntradaBitacora(c, responseTime)

		// Guardar en base de datos de forma asíncrona
		go guardarBitacora(entrada)

		return err
	}
}

// crearEntradaBitacora construye la entrada de bitácora de una petición
func crearEntradaBitacora(c *fiber.Ctx, responseTime int) models.CreateBitacoraRequest {
	// Obtener información del usuario si está autenticado
	var email, rol *string
	if userEmail := c.Locals("user_email"); userEmail != nil {
		if emailStr, ok := userEmail.(string); ok && emailStr != "" {
			email = &emailStr
		}
	}
	if userRole := c.Locals("user_role"); userRole != nil {
		if rolStr, ok := userRole.(string); ok && rolStr != "" {
			rol = &rolStr
		}
	}

	// Obtener IP real del cliente
	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.Split(forwarded, ",")[0]
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		ip = realIP
	}

	// Obtener User-Agent
	userAgent := c.Get("User-Agent")
	var userAgentPtr *string
	if userAgent != "" {
		userAgentPtr = &userAgent
	}

	// Obtener body (solo para métodos POST, PUT, PATCH)
	var bodyPtr *string
	if c.Method() == "POST" || c.Method() == "PUT" || c.Method() == "PATCH" {
		body := string(c.Body())
		if body != "" {
			// Filtrar información sensible
			body = filtrarDatosSensibles(body)
			bodyPtr = &body
		}
	}

	// Obtener query parameters
	var queryPtr *string
	if queryStr := string(c.Request().URI().QueryString()); queryStr != "" {
		queryPtr = &queryStr
	}

	// Determinar nivel de bitácora basado en status code
	nivel := determinarNivel(c.Response().StatusCode())

	return models.CreateBitacoraRequest{
		Method:       c.Method(),
		Path:         c.Path(),
		StatusCode:   c.Response().StatusCode(),
		ResponseTime: &responseTime,
		UserAgent:    userAgentPtr,
		IP:           ip,
		Body:         bodyPtr,
		Query:        queryPtr,
		Email:        email,
		Rol:          rol,
		Nivel:        &nivel,
		Ambiente:     obtenerAmbiente(),
	}
}

// filtrarDatosSensibles filtra información sensible del body
func filtrarDatosSensibles(body string) string {
	// Lista de campos sensibles a filtrar
	camposSensibles := []string{"password", "mfa_code", "secret", "token", "code"}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		// Si no es JSON válido, retornar truncado
		if len(body) > 1000 {
			return body[:1000] + "...[truncated]"
		}
		return body
	}

	// Filtrar campos sensibles
	for _, campo := range camposSensibles {
		if _, exists := data[campo]; exists {
			data[campo] = "[FILTERED]"
		}
	}

	filteredJSON, _ := json.Marshal(data)
	filteredBody := string(filteredJSON)

	// Truncar si es muy largo
	if len(filteredBody) > 1000 {
		return filteredBody[:1000] + "...[truncated]"
	}

	return filteredBody
}

// determinarNivel determina el nivel de bitácora según el status code
func determinarNivel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return models.NivelSuccess
	case statusCode >= 300 && statusCode < 400:
		return models.NivelInfo
	case statusCode >= 400 && statusCode < 500:
		return models.NivelWarning
	case statusCode >= 500:
		return models.NivelError
	default:
		return models.NivelInfo
	}
}

// guardarBitacora guarda la entrada en la base de datos
func guardarBitacora(entrada models.CreateBitacoraRequest) {
	db := database.GetDB()
	if db == nil {
		fmt.Println("Error: No se pudo obtener conexión a la base de datos para bitácora")
		return
	}

	query := `
		INSERT INTO Bitacora (
			method, path, status_code, response_time, user_agent, ip,
			body, query, email, rol, nivel, ambiente, detalle, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := db.Exec(context.Background(), query,
		entrada.Method,
		entrada.Path,
		entrada.StatusCode,
		entrada.ResponseTime,
		entrada.UserAgent,
		entrada.IP,
		entrada.Body,
		entrada.Query,
		entrada.Email,
		entrada.Rol,
		entrada.Nivel,
		entrada.Ambiente,
		entrada.Detalle,
		time.Now(),
	)

	if err != nil {
		fmt.Printf("Error guardando bitácora en base de datos: %v\n", err)
	}
}

// LogCustomEvent permite registrar eventos de negocio en la bitácora
func LogCustomEvent(nivel, mensaje, userEmail, userRole string, datosAdicionales map[string]interface{}) {
	entrada := models.CreateBitacoraRequest{
		Method:     "EVENT",
		Path:       "/evento",
		StatusCode: 200,
		IP:         "127.0.0.1",
		Nivel:      &nivel,
		Ambiente:   obtenerAmbiente(),
		Detalle:    &mensaje,
	}

	if userEmail != "" {
		entrada.Email = &userEmail
	}

	if userRole != "" {
		entrada.Rol = &userRole
	}

	// Agregar datos adicionales al body
	if datosAdicionales != nil {
		bodyJSON, _ := json.Marshal(datosAdicionales)
		bodyStr := string(bodyJSON)
		entrada.Body = &bodyStr
	}

	go guardarBitacora(entrada)
}

func obtenerAmbiente() *string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = models.AmbienteDesarrollo
	}
	return &env
}
