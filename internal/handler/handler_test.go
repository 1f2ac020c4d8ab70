package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/evxeen/shop-backend/internal/middleware"
	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
	"github.com/evxeen/shop-backend/internal/service"
	"github.com/evxeen/shop-backend/internal/telegram"
)

type stubService struct {
	registerUser *model.User
	registerErr  error

	authUser *model.User
	authErr  error

	telegramUser    *model.User
	telegramCreated bool
	telegramErr     error

	products    []model.Product
	productsErr error
	product     *model.Product
	productErr  error

	createdProduct *model.Product
	updatedProduct *model.Product
	productOpErr   error

	order          *model.Order
	createOrderErr error

	orders    []model.Order
	ordersErr error

	ordersTotal int64

	updatedOrder   *model.Order
	updateOrderErr error

	referralStats *model.ReferralStats
	bonusHistory  []model.BonusTransaction

	dashboard  *model.DashboardStats
	users      []model.User
	usersTotal int64
}

func (s *stubService) RegisterUser(ctx context.Context, email, password, phone, referralCode string) (*model.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) TelegramLogin(ctx context.Context, data telegram.LoginData, referralCode string) (*model.User, bool, error) {
	return s.telegramUser, s.telegramCreated, s.telegramErr
}

func (s *stubService) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	return s.products, s.productsErr
}

func (s *stubService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.products, s.productsErr
}

func (s *stubService) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	return s.createdProduct, s.productOpErr
}

func (s *stubService) UpdateProduct(ctx context.Context, id int64, upd model.ProductUpdate) (*model.Product, error) {
	return s.updatedProduct, s.productOpErr
}

func (s *stubService) CreateOrder(ctx context.Context, req model.NewOrder, user *model.User) (*model.Order, error) {
	return s.order, s.createOrderErr
}

func (s *stubService) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	return s.orders, s.ordersErr
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.orders, s.ordersErr
}

func (s *stubService) ListOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error) {
	return s.orders, s.ordersTotal, s.ordersErr
}

func (s *stubService) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	return s.updatedOrder, s.updateOrderErr
}

func (s *stubService) GetReferralStats(ctx context.Context, userID int64) (*model.ReferralStats, error) {
	return s.referralStats, nil
}

func (s *stubService) GetBonusHistory(ctx context.Context, userID int64) ([]model.BonusTransaction, error) {
	return s.bonusHistory, nil
}

func (s *stubService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	return s.dashboard, nil
}

func (s *stubService) ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return s.users, s.usersTotal, nil
}

type stubUsers struct {
	user *model.User
	err  error
}

func (s *stubUsers) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.user, s.err
}

func newTestHandler(t *testing.T, svc Service, currentUser *model.User) (*Handler, string) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret", &stubUsers{user: currentUser})
	h := NewHandler(svc, logger, auth, false)

	token := ""
	if currentUser != nil {
		token, err = auth.IssueToken(currentUser.ID)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
	}

	return h, token
}

func doRequest(h *Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.SetupRouter(nil).ServeHTTP(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	email := "a@b.c"
	svc := &stubService{
		registerUser: &model.User{ID: 42, Email: &email, ReferralCode: "ABC123"},
	}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email:    email,
		Password: "secret1",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected token in response")
	}
	if resp.User == nil || resp.User.ID != 42 {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
}

func TestRegister_DuplicateUser(t *testing.T) {
	svc := &stubService{registerErr: repository.ErrUserExists}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/auth/register", "", registerRequest{
		Email:    "a@b.c",
		Password: "secret1",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/auth/login", "", loginRequest{
		Email:    "a@b.c",
		Password: "wrong",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTelegramLogin_NotConfigured(t *testing.T) {
	svc := &stubService{telegramErr: telegram.ErrNotConfigured}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/auth/telegram", "", telegramLoginRequest{})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestTelegramLogin_InvalidSignature(t *testing.T) {
	svc := &stubService{telegramErr: telegram.ErrInvalidSignature}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/auth/telegram", "", telegramLoginRequest{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMe_RequiresToken(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/api/auth/me", "", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	svc := &stubService{productErr: repository.ErrProductNotFound}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodGet, "/api/products/99", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetProduct_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/api/products/abc", "", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListProducts_Envelope(t *testing.T) {
	svc := &stubService{
		products: []model.Product{{ID: 1, Name: "Вейп"}, {ID: 2, Name: "Жидкость"}},
	}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodGet, "/api/products?category=вейп&minPrice=100", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []model.Product `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta.Total != 2 || len(resp.Data) != 2 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestListProducts_InvalidPrice(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/api/products?minPrice=abc", "", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateOrder_ValidationFailed(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodPost, "/api/orders", "", createOrderRequest{
		CustomerName:  "И",
		CustomerPhone: "123",
		Address:       "кор.",
		Items:         nil,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Details == nil {
		t.Fatalf("expected validation details in response")
	}
}

func TestCreateOrder_Guest(t *testing.T) {
	svc := &stubService{
		order: &model.Order{ID: 10, Status: model.OrderStatusPending},
	}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/orders", "", createOrderRequest{
		CustomerName:  "Иван Петров",
		CustomerPhone: "+7 999 000-11-22",
		Address:       "Москва, ул. Ленина, 1",
		Items:         []model.NewOrderItem{{ProductID: 1, Quantity: 2}},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	svc := &stubService{createOrderErr: repository.ErrInsufficientStock}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPost, "/api/orders", "", createOrderRequest{
		CustomerName:  "Иван Петров",
		CustomerPhone: "+7 999 000-11-22",
		Address:       "Москва, ул. Ленина, 1",
		Items:         []model.NewOrderItem{{ProductID: 1, Quantity: 100}},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetAllOrders_RequiresToken(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/api/orders", "", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetMyOrders(t *testing.T) {
	user := &model.User{ID: 7, Role: model.RoleUser}
	svc := &stubService{orders: []model.Order{{ID: 1}, {ID: 2}}}
	h, token := newTestHandler(t, svc, user)

	rec := doRequest(h, http.MethodGet, "/api/orders/my", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var orders []model.Order
	if err := json.NewDecoder(rec.Body).Decode(&orders); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
}

func TestUpdateOrderStatus_Invalid(t *testing.T) {
	svc := &stubService{updateOrderErr: service.ErrInvalidStatus}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPatch, "/api/orders/10/status", "", map[string]string{"status": "unknown"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc := &stubService{updateOrderErr: repository.ErrOrderNotFound}
	h, _ := newTestHandler(t, svc, nil)

	rec := doRequest(h, http.MethodPatch, "/api/orders/10/status", "", map[string]string{"status": "shipped"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAdminStats_ForbiddenForUser(t *testing.T) {
	user := &model.User{ID: 7, Role: model.RoleUser}
	h, token := newTestHandler(t, &stubService{}, user)

	rec := doRequest(h, http.MethodGet, "/api/admin/stats", token, nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAdminStats_OKForAdmin(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	svc := &stubService{
		dashboard: &model.DashboardStats{
			Stats: model.DashboardTotals{TotalOrders: 3, TotalRevenue: 1250.50},
		},
	}
	h, token := newTestHandler(t, svc, admin)

	rec := doRequest(h, http.MethodGet, "/api/admin/stats", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Счётчики и выручка приходят вложенным объектом stats,
	// списки заказов и товаров лежат на верхнем уровне.
	var resp struct {
		Stats           model.DashboardTotals  `json:"stats"`
		RecentOrders    []model.Order          `json:"recentOrders"`
		PopularProducts []model.PopularProduct `json:"popularProducts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stats.TotalOrders != 3 {
		t.Fatalf("expected 3 orders, got %d", resp.Stats.TotalOrders)
	}
	if resp.Stats.TotalRevenue != 1250.50 {
		t.Fatalf("expected revenue 1250.50, got %v", resp.Stats.TotalRevenue)
	}
}

func TestAdminOrders_Pagination(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	svc := &stubService{
		orders:      []model.Order{{ID: 1}},
		ordersTotal: 41,
	}
	h, token := newTestHandler(t, svc, admin)

	rec := doRequest(h, http.MethodGet, "/api/admin/orders?page=2&limit=20", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Orders     []model.Order `json:"orders"`
		Pagination struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
			Pages int64 `json:"pages"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pagination.Page != 2 || resp.Pagination.Pages != 3 {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
}

func TestAdminOrders_InvalidStatusFilter(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	h, token := newTestHandler(t, &stubService{}, admin)

	rec := doRequest(h, http.MethodGet, "/api/admin/orders?status=bogus", token, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminCreateProduct_Invalid(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	svc := &stubService{productOpErr: service.ErrInvalidProduct}
	h, token := newTestHandler(t, svc, admin)

	rec := doRequest(h, http.MethodPost, "/api/admin/products", token, model.ProductInput{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReferralStats(t *testing.T) {
	user := &model.User{ID: 7, Role: model.RoleUser}
	svc := &stubService{
		referralStats: &model.ReferralStats{
			TotalReferrals:     2,
			CompletedReferrals: 1,
			PendingBonus:       5,
			Referrals:          []model.Referral{},
		},
	}
	h, token := newTestHandler(t, svc, user)

	rec := doRequest(h, http.MethodGet, "/api/users/referral-stats", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var stats model.ReferralStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.PendingBonus != 5 {
		t.Fatalf("expected pending bonus 5, got %v", stats.PendingBonus)
	}
}

func TestBonusHistory_ReturnsEntries(t *testing.T) {
	user := &model.User{ID: 7, Role: model.RoleUser}
	svc := &stubService{
		bonusHistory: []model.BonusTransaction{
			{ID: 1, UserID: 7, Amount: 22.5, Type: model.BonusTypeLoyalty},
			{ID: 2, UserID: 7, Amount: 5, Type: model.BonusTypeReferral},
		},
	}
	h, token := newTestHandler(t, svc, user)

	rec := doRequest(h, http.MethodGet, "/api/users/bonus-history", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// История отдаётся массивом записей без обёртки.
	var history []model.BonusTransaction
	if err := json.NewDecoder(rec.Body).Decode(&history); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Amount != 22.5 {
		t.Fatalf("expected amount 22.5, got %v", history[0].Amount)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/health", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "OK" {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, nil)

	rec := doRequest(h, http.MethodGet, "/nope", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("not found response must be JSON: %v", err)
	}
}
