package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payportal.backend/internal/domain/entities"
	"payportal.backend/internal/interfaces/http/middleware"
	"payportal.backend/pkg/utils"
)

type authServiceStub struct {
	registerFn    func(ctx context.Context, input *entities.RegisterInput) (*entities.UserSummary, error)
	loginFn       func(ctx context.Context, input *entities.LoginInput) (*entities.Session, error)
	logoutFn      func(ctx context.Context, tokenID string, expiresAt time.Time) error
	getUserByIDFn func(ctx context.Context, id uuid.UUID) (*entities.UserSummary, error)
}

func (s authServiceStub) Register(ctx context.Context, input *entities.RegisterInput) (*entities.UserSummary, error) {
	return s.registerFn(ctx, input)
}
func (s authServiceStub) Login(ctx context.Context, input *entities.LoginInput) (*entities.Session, error) {
	return s.loginFn(ctx, input)
}
func (s authServiceStub) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.logoutFn(ctx, tokenID, expiresAt)
}
func (s authServiceStub) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.UserSummary, error) {
	return s.getUserByIDFn(ctx, id)
}

type paymentServiceStub struct {
	createFn    func(ctx context.Context, customerID uuid.UUID, input *entities.CreatePaymentInput) (*entities.Payment, error)
	listFn      func(ctx context.Context, customerID uuid.UUID, p utils.PaginationParams) ([]*entities.Payment, *utils.PaginationMeta, error)
	verifyFn    func(ctx context.Context, employeeID, paymentID uuid.UUID, input *entities.VerifyPaymentInput) (*entities.TransitionResult, error)
	submitFn    func(ctx context.Context, employeeID, paymentID uuid.UUID) (*entities.TransitionResult, error)
	pendingFn   func(ctx context.Context, p utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error)
	submittedFn func(ctx context.Context, p utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error)
	eventsFn    func(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error)
}

func (s paymentServiceStub) CreatePayment(ctx context.Context, customerID uuid.UUID, input *entities.CreatePaymentInput) (*entities.Payment, error) {
	return s.createFn(ctx, customerID, input)
}
func (s paymentServiceStub) ListCustomerPayments(ctx context.Context, customerID uuid.UUID, p utils.PaginationParams) ([]*entities.Payment, *utils.PaginationMeta, error) {
	return s.listFn(ctx, customerID, p)
}
func (s paymentServiceStub) VerifyPayment(ctx context.Context, employeeID, paymentID uuid.UUID, input *entities.VerifyPaymentInput) (*entities.TransitionResult, error) {
	return s.verifyFn(ctx, employeeID, paymentID, input)
}
func (s paymentServiceStub) SubmitPayment(ctx context.Context, employeeID, paymentID uuid.UUID) (*entities.TransitionResult, error) {
	return s.submitFn(ctx, employeeID, paymentID)
}
func (s paymentServiceStub) ListPendingPayments(ctx context.Context, p utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error) {
	return s.pendingFn(ctx, p)
}
func (s paymentServiceStub) ListSubmittedPayments(ctx context.Context, p utils.PaginationParams) ([]*entities.PaymentWithCustomer, *utils.PaginationMeta, error) {
	return s.submittedFn(ctx, p)
}
func (s paymentServiceStub) GetPaymentEvents(ctx context.Context, paymentID uuid.UUID) ([]*entities.PaymentEvent, error) {
	return s.eventsFn(ctx, paymentID)
}

// withUser stands in for SessionAuth.
func withUser(id uuid.UUID, role entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Set(middleware.UserRoleKey, role)
		c.Set(middleware.TokenIDKey, "jti-1")
		c.Set(middleware.TokenExpiresAtKey, time.Now().Add(time.Hour))
		c.Next()
	}
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
