package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/application/transfer"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Traslados-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	storeB    = "00000000-0000-0000-0000-0000000000b2"
	storeC    = "00000000-0000-0000-0000-0000000000c3"
	variantID = "00000000-0000-0000-0000-0000000000f1"
)

// newTestServer monta el router real sobre un store en memoria: tiendas A (la activa del
// token), B y C; una variante con 50 unidades en A y 30 en B.
func newTestServer(t *testing.T) (*fiber.App, *store) {
	t.Helper()
	s := newStore()
	for _, id := range []string{testStoreID, storeB, storeC} {
		s.stores[id] = &entity.Store{ID: id, OrganizationID: testCompanyID, Name: "Tienda " + id[len(id)-2:], Code: id[len(id)-2:], IsActive: true}
	}
	s.variants[variantID] = &entity.ProductVariant{ID: variantID, OrganizationID: testCompanyID, ProductID: "p-1", ProductName: "Camiseta", Name: "Talla M", SKU: "CAM-M"}
	s.users[testUserID] = &entity.User{ID: testUserID, Name: "Ana", Email: "ana@example.com"}
	s.stock[testStoreID+"|"+variantID] = decimal.NewFromInt(50)
	s.stock[storeB+"|"+variantID] = decimal.NewFromInt(30)

	uc := transfer.NewTransferUseCase(transfer.Deps{
		TxRunner:  s,
		Transfers: transferRepo{s},
		Stores:    refs{s},
		Variants:  variantRefs{s},
		Users:     userRefs{s},
		Stock:     ledger{s},
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) },
	}, transfer.Config{NumberPrefix: "TRF", MaxPerPage: 50})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{TransferUC: uc, JWTSecret: testJWTSecret, Logger: zerolog.Nop()})
	return app, s
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createBody(from, to string, quantity int64) fiber.Map {
	return fiber.Map{
		"from_store_id": from,
		"to_store_id":   to,
		"items":         []fiber.Map{{"product_variant_id": variantID, "quantity": quantity}},
	}
}

func mustCreate(t *testing.T, app *fiber.App, from, to string, quantity int64) dto.TransferResponse {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "bodeguero"), createBody(from, to, quantity))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.TransferResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferHTTP_CrearAprobarRecibir(t *testing.T) {
	app, s := newTestServer(t)
	token := tokenForRole(t, "bodeguero")

	created := mustCreate(t, app, testStoreID, storeB, 10)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "TRF-20240315-0001", created.TransferNumber)
	assert.Equal(t, "Ana", created.Requester.Name)

	resp := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/approve", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[dto.TransferResponse](t, resp)
	assert.Equal(t, "in_transit", approved.Status)
	assert.True(t, s.stockOf(testStoreID, variantID).Equal(decimal.NewFromInt(40)))

	resp = call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/receive", token, fiber.Map{
		"quantities": fiber.Map{approved.Items[0].ID: 8},
		"notes":      "caja golpeada",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	received := decode[dto.TransferResponse](t, resp)
	assert.Equal(t, "completed", received.Status)
	assert.True(t, received.Items[0].HasShortage)
	assert.True(t, received.TotalShortage.Equal(decimal.NewFromInt(2)))
	assert.True(t, s.stockOf(storeB, variantID).Equal(decimal.NewFromInt(38)))
}

func TestTransferHTTP_AprobarDosVecesRetorna400(t *testing.T) {
	app, _ := newTestServer(t)
	token := tokenForRole(t, "admin")
	created := mustCreate(t, app, testStoreID, storeB, 5)

	resp := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/approve", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/approve", token, nil)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", body.Code)
}

func TestTransferHTTP_AprobarSinStockRetorna409(t *testing.T) {
	app, s := newTestServer(t)
	created := mustCreate(t, app, testStoreID, storeB, 10)
	s.stock[testStoreID+"|"+variantID] = decimal.NewFromInt(4)

	resp := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/approve", tokenForRole(t, "admin"), nil)
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.True(t, s.stockOf(testStoreID, variantID).Equal(decimal.NewFromInt(4)), "el stock no debe cambiar")
}

func TestTransferHTTP_CancelarEnTransitoDevuelveStock(t *testing.T) {
	app, s := newTestServer(t)
	token := tokenForRole(t, "bodeguero")
	created := mustCreate(t, app, testStoreID, storeB, 10)

	resp := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/approve", token, fiber.Map{
		"quantities": fiber.Map{created.Items[0].ID: 6},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.True(t, s.stockOf(testStoreID, variantID).Equal(decimal.NewFromInt(44)))

	resp = call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/cancel", token, fiber.Map{"reason": "error de digitación"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cancelled := decode[dto.TransferResponse](t, resp)

	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "error de digitación", cancelled.CancellationReason)
	assert.True(t, s.stockOf(testStoreID, variantID).Equal(decimal.NewFromInt(50)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación y autorización
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferHTTP_CrearSinItemsRetorna422(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "admin"), fiber.Map{
		"from_store_id": testStoreID,
		"to_store_id":   storeB,
		"items":         []fiber.Map{},
	})
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Errors, "items")
}

func TestTransferHTTP_CrearCantidadCeroRetorna422(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "admin"), createBody(testStoreID, storeB, 0))
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "items[0].quantity")
}

func TestTransferHTTP_CrearMismaTiendaRetorna422(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "admin"), createBody(storeB, storeB, 1))
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "to_store_id")
}

func TestTransferHTTP_CrearConIDsNoUUIDRetorna422(t *testing.T) {
	app, _ := newTestServer(t)

	body := createBody("abc", storeB, 1)
	body["items"] = []fiber.Map{{"product_variant_id": "xyz", "quantity": 1}}
	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "admin"), body)
	out := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Errors, "from_store_id")
	assert.Contains(t, out.Errors, "items[0].product_variant_id")
}

func TestTransferHTTP_CrearExcedeStockRetorna409(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "admin"), createBody(testStoreID, storeB, 51))
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
}

func TestTransferHTTP_VendedorNoPuedeCrear(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodPost, "/api/transfers", tokenForRole(t, "vendedor"), createBody(testStoreID, storeB, 1))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTransferHTTP_CancelarSinMotivoRetorna422(t *testing.T) {
	app, _ := newTestServer(t)
	created := mustCreate(t, app, testStoreID, storeB, 1)

	resp := call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/cancel", tokenForRole(t, "admin"), fiber.Map{"reason": ""})
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "reason")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferHTTP_DetalleInexistenteRetorna404(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodGet, "/api/transfers/no-existe", tokenForRole(t, "admin"), nil)
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestTransferHTTP_DetalleFueraDeLaTiendaActiva(t *testing.T) {
	app, _ := newTestServer(t)
	other := mustCreate(t, app, storeB, storeC, 1)

	resp := call(t, app, http.MethodGet, "/api/transfers/"+other.ID, tokenForRole(t, "vendedor"), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "vendedor solo ve traslados de su tienda")

	resp = call(t, app, http.MethodGet, "/api/transfers/"+other.ID, tokenForRole(t, "admin"), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "admin ve toda la organización")
}

func TestTransferHTTP_ListarConMeta(t *testing.T) {
	app, _ := newTestServer(t)
	mustCreate(t, app, testStoreID, storeB, 1)
	mustCreate(t, app, testStoreID, storeC, 2)

	resp := call(t, app, http.MethodGet, "/api/transfers?status=pending&per_page=10", tokenForRole(t, "vendedor"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.TransferListResponse](t, resp)

	assert.Len(t, list.Data, 2)
	assert.Equal(t, 2, list.Meta.Total)
	assert.Equal(t, 10, list.Meta.PerPage)
}

func TestTransferHTTP_ListarTodasSoloDeLaTiendaActiva(t *testing.T) {
	app, _ := newTestServer(t)
	mustCreate(t, app, testStoreID, storeB, 1)
	mustCreate(t, app, storeB, storeC, 2)

	resp := call(t, app, http.MethodGet, "/api/transfers?direction=all", tokenForRole(t, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.TransferListResponse](t, resp)

	require.Equal(t, 1, list.Meta.Total)
	assert.Equal(t, testStoreID, list.Data[0].FromStore.ID)
}

func TestTransferHTTP_ListarPaginaDemasiadoAltaRetorna422(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodGet, "/api/transfers?page=9223372036854775807", tokenForRole(t, "admin"), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestTransferHTTP_ListarFechaInvalidaRetorna422(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodGet, "/api/transfers?date_from=15-03-2024", tokenForRole(t, "admin"), nil)
	body := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "date_from")
}

func TestTransferHTTP_EstadisticasRequierenTiendaActiva(t *testing.T) {
	app, _ := newTestServer(t)

	resp := call(t, app, http.MethodGet, "/api/transfers/statistics", tokenFor(t, "admin", ""), nil)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NO_ACTIVE_STORE", body.Code)

	mustCreate(t, app, testStoreID, storeB, 3)
	resp = call(t, app, http.MethodGet, "/api/transfers/statistics", tokenForRole(t, "vendedor"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[dto.TransferStatistics](t, resp)
	assert.Equal(t, testStoreID, stats.StoreID)
	assert.Equal(t, 1, stats.Outgoing.Pending)
	assert.Equal(t, 1, stats.PendingApproval)
}
