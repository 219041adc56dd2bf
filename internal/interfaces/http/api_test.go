package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-fefo/internal/application/auth"
	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/application/orders"
	"github.com/jhoicas/inventario-fefo/internal/application/purchasing"
	"github.com/jhoicas/inventario-fefo/internal/application/usecase"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-fefo/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/inventario-fefo/internal/interfaces/http"
)

type apiEnv struct {
	app   *fiber.App
	store *memory.Store
	admin string
	staff string
}

// newAPI levanta la API completa sobre el almacenamiento en memoria, con un admin y un staff logueados.
func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	s := memory.NewStore()
	runner := memory.NewTxRunner(s)
	moves := inventory.NewMovementUseCase(runner, nil)
	authUC := auth.NewAuthUseCase(s.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:         usecase.NewProductUseCase(s.Products(), s.Batches()),
		Movements:         moves,
		Ledger:            inventory.NewLedgerUseCase(runner, nil),
		Expiry:            inventory.NewExpiryUseCase(s.Batches(), pdf.NewExpiryReportGenerator("test")),
		OrderUC:           orders.NewOrderUseCase(s.Orders(), s.Products(), moves, nil),
		PurchasingUC:      purchasing.NewPurchasingUseCase(s.PurchaseOrders(), s.Products(), moves, nil),
		AuthUC:            authUC,
		JWTSecret:         testJWTSecret,
		ExpiryDefaultDays: 7,
	})

	ctx := context.Background()
	created, err := authUC.EnsureAdmin(ctx, "admin@tienda.co", "admin-secret")
	require.NoError(t, err)
	require.True(t, created)
	_, err = authUC.RegisterUser(ctx, dto.RegisterRequest{Email: "caja@tienda.co", Password: "caja-secret", Role: entity.RoleStaff})
	require.NoError(t, err)

	env := &apiEnv{app: app, store: s}
	env.admin = env.login(t, "admin@tienda.co", "admin-secret")
	env.staff = env.login(t, "caja@tienda.co", "caja-secret")
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
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

func (e *apiEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.LoginResponse](t, resp).Token
}

func (e *apiEnv) createProduct(t *testing.T, sku string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/products", e.staff, dto.CreateProductRequest{SKU: sku, Name: "Producto " + sku, Price: decimal.NewFromInt(1000)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp).ID
}

func (e *apiEnv) receive(t *testing.T, productID string, n int64, expiry string) dto.StockMoveResponse {
	t.Helper()
	in := dto.ReceiveStockRequest{ProductID: productID, Quantity: decimal.NewFromInt(n)}
	if expiry != "" {
		in.ExpiryDate = &expiry
	}
	resp := e.do(t, http.MethodPost, "/api/inventory/receive", e.admin, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.StockMoveResponse](t, resp)
}

func inDays(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format(dto.DateLayout)
}

func TestAPI_LoginInvalido(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@tienda.co", Password: "otra-clave"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RegistroSoloAdmin(t *testing.T) {
	e := newAPI(t)
	in := dto.RegisterRequest{Email: "nuevo@tienda.co", Password: "clave-segura", Role: entity.RoleManager}

	resp := e.do(t, http.MethodPost, "/api/auth/register", e.staff, in)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/register", e.admin, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.RoleManager, decode[dto.UserResponse](t, resp).Role)

	resp = e.do(t, http.MethodPost, "/api/auth/register", e.admin, in)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_SinToken(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodGet, "/api/products", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_FlujoFEFOCompleto(t *testing.T) {
	e := newAPI(t)
	pid := e.createProduct(t, "LECHE-1L")

	late := e.receive(t, pid, 10, inDays(30))
	early := e.receive(t, pid, 10, inDays(3))
	require.NotNil(t, late.BatchID)
	require.NotNil(t, early.BatchID)
	assert.Equal(t, entity.MoveTypeAdjustmentIn, early.MoveType)

	// Venta de 15: vacía el lote que vence antes y toma 5 del otro.
	resp := e.do(t, http.MethodPost, "/api/orders", e.staff, dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{{ProductID: pid, Quantity: decimal.NewFromInt(15)}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[dto.OrderResponse](t, resp)
	assert.Equal(t, entity.OrderStatusDraft, order.Status)

	resp = e.do(t, http.MethodPost, "/api/orders/"+order.ID+"/pay", e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decode[dto.OrderResponse](t, resp)
	assert.Equal(t, entity.OrderStatusPaid, paid.Status)
	require.Len(t, paid.Items, 1)
	assert.NotEmpty(t, paid.Items[0].StockMoveID)

	resp = e.do(t, http.MethodGet, "/api/inventory/batches?product_id="+pid, e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	batches := decode[[]dto.StockBatchResponse](t, resp)
	require.Len(t, batches, 2)
	assert.Equal(t, *late.BatchID, batches[0].ID)
	assert.True(t, batches[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, batches[1].Quantity.IsZero())

	resp = e.do(t, http.MethodGet, "/api/inventory/moves?product_id="+pid, e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moves := decode[[]dto.StockMoveResponse](t, resp)
	require.Len(t, moves, 3)
	assert.Equal(t, entity.MoveTypeSale, moves[0].MoveType)
	assert.True(t, moves[0].Quantity.Equal(decimal.NewFromInt(-15)))
	assert.Equal(t, "Order #"+order.ID, moves[0].Reference)

	resp = e.do(t, http.MethodGet, "/api/products/"+pid, e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.ProductResponse](t, resp).StockQuantity.Equal(decimal.NewFromInt(5)))

	resp = e.do(t, http.MethodGet, "/api/inventory/reconcile?product_id="+pid, e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[[]dto.ReconcileResponse](t, resp)
	require.Len(t, rec, 1)
	assert.True(t, rec[0].OK)

	// Pagar de nuevo es conflicto.
	resp = e.do(t, http.MethodPost, "/api/orders/"+order.ID+"/pay", e.staff, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_AjusteErrores(t *testing.T) {
	e := newAPI(t)
	pid := e.createProduct(t, "PAN")
	e.receive(t, pid, 3, "")

	cases := []struct {
		name   string
		token  string
		body   dto.AdjustStockRequest
		status int
		code   string
	}{
		{"insuficiente", e.admin, dto.AdjustStockRequest{ProductID: pid, QuantityChange: decimal.NewFromInt(-4)}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"cero", e.admin, dto.AdjustStockRequest{ProductID: pid}, http.StatusBadRequest, "VALIDATION"},
		{"inexistente", e.admin, dto.AdjustStockRequest{ProductID: "no-existe", QuantityChange: decimal.NewFromInt(-1)}, http.StatusNotFound, "NOT_FOUND"},
		{"staff sin permiso", e.staff, dto.AdjustStockRequest{ProductID: pid, QuantityChange: decimal.NewFromInt(-1)}, http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, "/api/inventory/adjust", tc.token, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}

	resp := e.do(t, http.MethodPost, "/api/inventory/adjust", e.admin, dto.AdjustStockRequest{ProductID: pid, QuantityChange: decimal.NewFromInt(-3), Reason: "Merma"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	move := decode[dto.StockMoveResponse](t, resp)
	assert.Equal(t, entity.MoveTypeAdjustment, move.MoveType)
	assert.Equal(t, "Merma", move.Reference)
}

func TestAPI_PagoParcial(t *testing.T) {
	e := newAPI(t)
	ctx := context.Background()
	now := time.Now()
	for _, id := range []string{"p-a", "p-b"} {
		require.NoError(t, e.store.Products().Create(ctx, &entity.Product{ID: id, SKU: id, Name: id, Price: decimal.NewFromInt(10), CreatedAt: now, UpdatedAt: now}))
	}
	e.receive(t, "p-a", 5, "")

	resp := e.do(t, http.MethodPost, "/api/orders", e.staff, dto.CreateOrderRequest{Items: []dto.OrderItemRequest{
		{ProductID: "p-b", Quantity: decimal.NewFromInt(1)},
		{ProductID: "p-a", Quantity: decimal.NewFromInt(2)},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[dto.OrderResponse](t, resp)

	resp = e.do(t, http.MethodPost, "/api/orders/"+order.ID+"/pay", e.staff, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	partial := decode[dto.PartialFailureResponse](t, resp)
	assert.Equal(t, "PARTIAL_FULFILLMENT", partial.Code)
	assert.Equal(t, "p-b", partial.FailedProductID)
	require.Len(t, partial.Committed, 1)
	assert.Equal(t, "p-a", partial.Committed[0].ProductID)

	resp = e.do(t, http.MethodGet, "/api/orders/"+order.ID, e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.OrderStatusPartial, decode[dto.OrderResponse](t, resp).Status)

	// Reponer p-b y reintentar: solo se descuenta la línea pendiente.
	e.receive(t, "p-b", 1, "")
	resp = e.do(t, http.MethodPost, "/api/orders/"+order.ID+"/pay", e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.OrderStatusPaid, decode[dto.OrderResponse](t, resp).Status)

	p, err := e.store.Products().GetByID(ctx, "p-a")
	require.NoError(t, err)
	assert.True(t, p.StockQuantity.Equal(decimal.NewFromInt(3)))
}

func TestAPI_Vencimientos(t *testing.T) {
	e := newAPI(t)
	pid := e.createProduct(t, "YOGUR")
	e.receive(t, pid, 4, inDays(-2))
	e.receive(t, pid, 6, inDays(5))
	e.receive(t, pid, 8, inDays(40))

	resp := e.do(t, http.MethodGet, "/api/inventory/expiring", e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[[]dto.ExpiringBatchDTO](t, resp)
	require.Len(t, rows, 2)
	assert.Equal(t, -2, rows[0].DaysLeft)
	assert.Equal(t, 5, rows[1].DaysLeft)
	assert.Equal(t, "Producto YOGUR", rows[0].ProductName)

	resp = e.do(t, http.MethodGet, "/api/inventory/expiring?days=-1", e.staff, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/inventory/expiring?days=abc", e.staff, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/inventory/expiring/report?days=60", e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	// Baja de vencidos: descuenta exactamente los 4 del lote vencido.
	resp = e.do(t, http.MethodPost, "/api/inventory/products/"+pid+"/write-off-expired", e.admin, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	wo := decode[dto.DeductResponse](t, resp)
	assert.True(t, wo.Move.Quantity.Equal(decimal.NewFromInt(-4)))
	assert.Equal(t, inventory.ReferenceExpiredWriteOff, wo.Move.Reference)
	require.Len(t, wo.Allocations, 1)

	resp = e.do(t, http.MethodPost, "/api/inventory/products/"+pid+"/write-off-expired", e.admin, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_OrdenDeCompra(t *testing.T) {
	e := newAPI(t)
	pid := e.createProduct(t, "QUESO")
	expiry := inDays(20)
	in := dto.CreatePurchaseOrderRequest{
		VendorID: "proveedor-1",
		Items: []dto.PurchaseOrderItemRequest{
			{ProductID: pid, Quantity: decimal.NewFromInt(12), UnitCost: decimal.NewFromInt(500), ExpiryDate: &expiry},
		},
	}

	resp := e.do(t, http.MethodPost, "/api/purchase-orders", e.staff, in)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/purchase-orders", e.admin, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	po := decode[dto.PurchaseOrderResponse](t, resp)

	resp = e.do(t, http.MethodPost, "/api/purchase-orders/"+po.ID+"/receive", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	received := decode[dto.PurchaseOrderResponse](t, resp)
	assert.Equal(t, entity.PurchaseOrderStatusReceived, received.Status)

	resp = e.do(t, http.MethodGet, "/api/inventory/batches?product_id="+pid, e.staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	batches := decode[[]dto.StockBatchResponse](t, resp)
	require.Len(t, batches, 1)
	require.NotNil(t, batches[0].ExpiryDate)
	assert.Equal(t, expiry, *batches[0].ExpiryDate)

	resp = e.do(t, http.MethodPost, "/api/purchase-orders/"+po.ID+"/cancel", e.admin, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ProductoConLotesNoSeElimina(t *testing.T) {
	e := newAPI(t)
	pid := e.createProduct(t, "ARROZ")
	e.receive(t, pid, 1, "")

	resp := e.do(t, http.MethodDelete, "/api/products/"+pid, e.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, resp).Code)

	other := e.createProduct(t, "SAL")
	resp = e.do(t, http.MethodDelete, "/api/products/"+other, e.admin, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/products/"+other, e.staff, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
