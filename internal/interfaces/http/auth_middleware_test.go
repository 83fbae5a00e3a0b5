package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testOrgID     = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "stock-ledger-test"
	testExpMin    = 60
)

// tokenForRole genera el header Authorization con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testOrgID, role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// guardedApp monta /guarded detrás de AuthMiddleware + RequireRole(roles...).
func guardedApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id": apphttp.GetUserID(c),
				"org_id":  apphttp.GetOrgID(c),
				"role":    apphttp.GetRole(c),
			})
		},
	)
	return app
}

func getGuarded(t *testing.T, app *fiber.App, authHeader string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body := map[string]string{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

// Matriz de roles del libro: quién puede dar de baja, contar inventario y respaldar.
func TestRequireRole_MatrizDelLibro(t *testing.T) {
	managers := []string{pkgjwt.RoleAdmin, pkgjwt.RoleStorekeeper}
	adminOnly := []string{pkgjwt.RoleAdmin}

	cases := []struct {
		name    string
		allowed []string
		role    string
		status  int
		code    string
	}{
		{"admin da de baja", managers, pkgjwt.RoleAdmin, http.StatusOK, ""},
		{"bodeguero da de baja", managers, pkgjwt.RoleStorekeeper, http.StatusOK, ""},
		{"voluntario no da de baja", managers, pkgjwt.RoleVolunteer, http.StatusForbidden, "FORBIDDEN"},
		{"admin respalda", adminOnly, pkgjwt.RoleAdmin, http.StatusOK, ""},
		{"bodeguero no respalda", adminOnly, pkgjwt.RoleStorekeeper, http.StatusForbidden, "FORBIDDEN"},
		{"rol desconocido", managers, "cocinero", http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", managers, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := getGuarded(t, guardedApp(tc.allowed...), tokenForRole(t, tc.role))
			assert.Equal(t, tc.status, status)
			if tc.code != "" {
				assert.Equal(t, tc.code, body["code"])
				return
			}
			assert.Equal(t, tc.role, body["role"])
		})
	}
}

func TestAuthMiddleware_RechazaCredenciales(t *testing.T) {
	app := guardedApp(pkgjwt.RoleAdmin)
	sinUsuario, err := pkgjwt.Generate(testJWTSecret, "", testOrgID, pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)
	otroSecreto, err := pkgjwt.Generate("otro-secret", testUserID, testOrgID, pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema Basic", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"sin user_id", "Bearer " + sinUsuario, "INVALID_TOKEN"},
		{"firmado con otro secreto", "Bearer " + otroSecreto, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := getGuarded(t, app, tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestAuthMiddleware_CargaLocals(t *testing.T) {
	status, body := getGuarded(t, guardedApp(pkgjwt.RoleVolunteer), tokenForRole(t, pkgjwt.RoleVolunteer))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testOrgID, body["org_id"])
	assert.Equal(t, pkgjwt.RoleVolunteer, body["role"])
}

func TestJWT_GenerateParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testOrgID, pkgjwt.RoleStorekeeper, testIssuer, testExpMin)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testOrgID, claims.OrgID)
	assert.Equal(t, pkgjwt.RoleStorekeeper, claims.Role)
	assert.Equal(t, testIssuer, claims.Issuer)

	expirado, err := pkgjwt.Generate(testJWTSecret, testUserID, testOrgID, pkgjwt.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(testJWTSecret, expirado)
	assert.Error(t, err, "token expirado")

	assert.True(t, pkgjwt.IsKnownRole(pkgjwt.RoleVolunteer))
	assert.False(t, pkgjwt.IsKnownRole("cocinero"))

	_, err = pkgjwt.Generate("", testUserID, testOrgID, pkgjwt.RoleAdmin, testIssuer, testExpMin)
	assert.Error(t, err, "secret vacío")
}
