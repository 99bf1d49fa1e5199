package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharma-backend/internal/audit"
	"pharma-backend/internal/engine"
	"pharma-backend/internal/models"
	"pharma-backend/internal/rbac"
	"pharma-backend/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner        = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	supplier     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	transporter  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	manufacturer = common.HexToAddress("0x3333333333333333333333333333333333333333")
	outsider     = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

// callerHeader carries the test caller account in place of the JWT
// middleware.
const callerHeader = "X-Test-Caller"

type testAPI struct {
	router *gin.Engine
	engine *engine.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	roles := rbac.NewService(rbac.NewMemoryStore(owner), logger)
	require.NoError(t, roles.GrantRole(owner, models.RoleSupplier, supplier))
	require.NoError(t, roles.GrantRole(owner, models.RoleTransporter, transporter))
	require.NoError(t, roles.GrantRole(owner, models.RoleManufacturer, manufacturer))

	eng := engine.New(store.NewMemoryStore(), audit.NewMemoryLog(), roles, logger, nil)

	batches := NewBatchHandler(eng, logger)
	queries := NewQueryHandler(eng, logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if caller := c.GetHeader(callerHeader); common.IsHexAddress(caller) {
			c.Set(CallerKey, common.HexToAddress(caller))
		}
	})
	api := router.Group("/api")
	api.POST("/batches/raw-materials", batches.CreateRawMaterialHandler)
	api.POST("/batches/medicines", batches.CreateMedicineHandler)
	api.POST("/batches/:id/transfer", batches.TransferHandler)
	api.POST("/batches/:id/receive", batches.ReceiveHandler)
	api.POST("/batches/:id/finalize", batches.FinalizeHandler)
	api.POST("/batches/:id/destroy", batches.DestroyHandler)
	api.GET("/batches/raw-materials", queries.ListRawMaterialsHandler)
	api.GET("/batches/:id", queries.GetBatchDetailsHandler)
	api.GET("/batches/:id/type", queries.GetBatchTypeHandler)
	api.GET("/batches/:id/history", queries.GetHistoryHandler)
	api.GET("/batches/:id/verify", queries.VerifyChainHandler)

	return &testAPI{router: router, engine: eng}
}

func (a *testAPI) do(t *testing.T, method, path string, caller common.Address, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != (common.Address{}) {
		req.Header.Set(callerHeader, caller.Hex())
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createRawMaterialReq() map[string]interface{} {
	return map[string]interface{}{
		"description":           "active ingredient",
		"quantity":              100,
		"intended_manufacturer": manufacturer.Hex(),
		"latitude":              52520000,
		"longitude":             13405000,
	}
}

func TestCreateRawMaterialEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["batch_id"])
	assert.Equal(t, "raw_material", body["batch_type"])
}

func TestCreateRawMaterialRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", common.Address{}, createRawMaterialReq())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRawMaterialBadRequest(t *testing.T) {
	api := newTestAPI(t)

	// Missing required fields.
	rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, map[string]interface{}{"description": "lot"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode(t, rec)["code"])

	// Malformed manufacturer address.
	req := createRawMaterialReq()
	req["intended_manufacturer"] = "not-an-address"
	rec = api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_address", decode(t, rec)["code"])
}

func TestCreateRawMaterialForbidden(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", outsider, createRawMaterialReq())
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "role_check_failed", decode(t, rec)["code"])
}

func TestTransferEndpoint(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())
	require.Equal(t, http.StatusCreated, rec.Code)

	transfer := map[string]interface{}{
		"transporter": transporter.Hex(),
		"receiver":    manufacturer.Hex(),
	}
	rec = api.do(t, http.MethodPost, "/api/batches/1/transfer", supplier, transfer)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, string(models.EventRawMaterialInTransit), entry["event_code"])

	// A second transfer conflicts with the in-transit status.
	rec = api.do(t, http.MethodPost, "/api/batches/1/transfer", supplier, transfer)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state_for_action", decode(t, rec)["code"])
}

func TestTransferReceiverMismatch(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/batches/1/transfer", supplier, map[string]interface{}{
		"transporter": transporter.Hex(),
		"receiver":    outsider.Hex(),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "receiver_mismatch", decode(t, rec)["code"])
}

func TestReceiveAndVerifyEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())
	api.do(t, http.MethodPost, "/api/batches/1/transfer", supplier, map[string]interface{}{
		"transporter": transporter.Hex(),
		"receiver":    manufacturer.Hex(),
	})

	rec := api.do(t, http.MethodPost, "/api/batches/1/receive", manufacturer, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/batches/1/history", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode(t, rec)
	assert.Len(t, history["entries"], 3)

	rec = api.do(t, http.MethodGet, "/api/batches/1/verify", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	verify := decode(t, rec)
	assert.Equal(t, true, verify["valid"])
	assert.Equal(t, float64(3), verify["length"])
}

func TestDestroyEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())

	rec := api.do(t, http.MethodPost, "/api/batches/1/destroy", outsider, map[string]interface{}{"reason": "damaged"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized_actor", decode(t, rec)["code"])

	rec = api.do(t, http.MethodPost, "/api/batches/1/destroy", supplier, map[string]interface{}{"reason": "damaged"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/batches/1/destroy", supplier, map[string]interface{}{"reason": "damaged"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_destroyed", decode(t, rec)["code"])
}

func TestBatchQueryEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())

	rec := api.do(t, http.MethodGet, "/api/batches/1/type", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "raw_material", decode(t, rec)["batch_type"])

	rec = api.do(t, http.MethodGet, "/api/batches/999/type", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decode(t, rec)["batch_type"])

	rec = api.do(t, http.MethodGet, "/api/batches/1", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/batches/999", common.Address{}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["code"])

	rec = api.do(t, http.MethodGet, "/api/batches/abc", common.Address{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRawMaterialsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 5; i++ {
		rec := api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/batches/raw-materials?page=2&page_size=2", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(5), body["total"])
	assert.Equal(t, float64(2), body["page"])
	assert.Len(t, body["items"], 2)

	rec = api.do(t, http.MethodGet, "/api/batches/raw-materials?status=created", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decode(t, rec)["total"])
}

func TestMedicineEndpointLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/batches/raw-materials", supplier, createRawMaterialReq())
	api.do(t, http.MethodPost, "/api/batches/1/transfer", supplier, map[string]interface{}{
		"transporter": transporter.Hex(),
		"receiver":    manufacturer.Hex(),
	})
	api.do(t, http.MethodPost, "/api/batches/1/receive", manufacturer, map[string]interface{}{})

	rec := api.do(t, http.MethodPost, "/api/batches/medicines", manufacturer, map[string]interface{}{
		"description":      "tablets 500mg",
		"quantity":         50,
		"raw_material_ids": []uint64{1},
		"expiry_date":      time.Now().AddDate(1, 0, 0).Unix(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["batch_id"])
	assert.Equal(t, "medicine", body["batch_type"])

	// Raw material references must be received batches.
	rec = api.do(t, http.MethodPost, "/api/batches/medicines", manufacturer, map[string]interface{}{
		"description":      "tablets",
		"quantity":         50,
		"raw_material_ids": []uint64{2},
		"expiry_date":      time.Now().AddDate(1, 0, 0).Unix(),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "raw_material_validation_failed", decode(t, rec)["code"])

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/batches/%d", 2), common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
