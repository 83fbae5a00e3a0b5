package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// decodeJSON decodifica el body de forma estricta: campos desconocidos y datos
// sobrantes se rechazan como error de validación.
func decodeJSON(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.NewValidationError("body", "required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(typeErr.Field, "type="+typeErr.Type.String())
		}
		return domain.NewValidationError("body", err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", "datos sobrantes después del objeto JSON")
	}
	return nil
}

// statusFor traduce el código de dominio a estado HTTP.
func statusFor(code string) int {
	switch code {
	case "VALIDATION":
		return fiber.StatusBadRequest
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "INSUFFICIENT_STOCK", "CONFLICT", "DUPLICATE":
		return fiber.StatusConflict
	case "UNAUTHORIZED":
		return fiber.StatusUnauthorized
	case "FORBIDDEN":
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde con dto.ErrorResponse. Los errores internos se registran
// y su detalle no se expone.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	code := domain.Code(err)
	status := statusFor(code)
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
		resp.Message = "error interno"
	}
	return c.Status(status).JSON(resp)
}

// queryInt lee un entero opcional de la query; vacío devuelve def.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(key, "numeric")
	}
	return n, nil
}
