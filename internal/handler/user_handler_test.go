package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/service"
)

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) result(args mock.Arguments) (*apperrors.Result, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apperrors.Result), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, in service.CreateUserInput) (*apperrors.Result, error) {
	return m.result(m.Called(ctx, in))
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*apperrors.Result, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockUserService) GetAllUsers(ctx context.Context) (*apperrors.Result, error) {
	return m.result(m.Called(ctx))
}

func (m *MockUserService) FindUsers(ctx context.Context, q service.FindUsersQuery) (*apperrors.Result, error) {
	return m.result(m.Called(ctx, q))
}

func (m *MockUserService) BulkCreate(ctx context.Context, users []service.CreateUserInput) (*apperrors.Result, error) {
	return m.result(m.Called(ctx, users))
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*apperrors.Result, error) {
	return m.result(m.Called(ctx, id, in))
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) (*apperrors.Result, error) {
	return m.result(m.Called(ctx, id))
}

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newTestServer(svc service.UserService) *echo.Echo {
	logger, _ := logtest.NewNullLogger()
	h := NewUserHandler(svc, logger)

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	e.POST("/users", h.CreateUser)
	e.POST("/users/bulk", h.BulkCreate)
	e.GET("/users", h.ListUsers)
	e.GET("/users/search", h.SearchUsers)
	e.GET("/users/:id", h.GetUser)
	e.PUT("/users/:id", h.UpdateUser)
	e.DELETE("/users/:id", h.DeleteUser)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUserHandler_CreateUser(t *testing.T) {
	tests := []struct {
		name       string
		result     *apperrors.Result
		wantStatus int
	}{
		{name: "created", result: apperrors.OK("User created successfully with ID: x"), wantStatus: http.StatusOK},
		{name: "rejected", result: apperrors.ResultFromError(apperrors.ErrPasswordMismatch), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			svc.On("CreateUser", mock.Anything, service.CreateUserInput{
				Name:           "Ada",
				Email:          "ada@example.com",
				Password:       "pw",
				PasswordSecond: "pw2",
				Cellphone:      "555",
			}).Return(tt.result, nil)

			rec := doRequest(newTestServer(svc), http.MethodPost, "/users",
				`{"name":"Ada","email":"ada@example.com","password":"pw","password_second":"pw2","cellphone":"555"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeResult(t, rec)
			assert.Equal(t, float64(tt.wantStatus), body["code"])
			assert.Equal(t, tt.result.Message, body["message"])
			svc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_CreateUser_TooLong(t *testing.T) {
	svc := new(MockUserService)
	long := strings.Repeat("9", 40)

	rec := doRequest(newTestServer(svc), http.MethodPost, "/users", `{"cellphone":"`+long+`"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserHandler_GetUser(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("GetUserByID", mock.Anything, id).Return(apperrors.OK(&model.User{ID: id, Name: "Ada", Password: "digest", Status: true}), nil)

	rec := doRequest(newTestServer(svc), http.MethodGet, "/users/"+id.String(), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResult(t, rec)
	user := body["message"].(map[string]interface{})
	assert.Equal(t, id.String(), user["id"])
	assert.NotContains(t, user, "password")
}

func TestUserHandler_GetUser_NotFoundIsNull(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("GetUserByID", mock.Anything, id).Return(apperrors.OK(nil), nil)

	rec := doRequest(newTestServer(svc), http.MethodGet, "/users/"+id.String(), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":200,"message":null}`, rec.Body.String())
}

func TestUserHandler_InvalidID(t *testing.T) {
	svc := new(MockUserService)
	e := newTestServer(svc)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := doRequest(e, method, "/users/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, method)
	}
	svc.AssertExpectations(t)
}

func TestUserHandler_ListUsers_InternalError(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetAllUsers", mock.Anything).Return(nil, errors.New("db down"))

	rec := doRequest(newTestServer(svc), http.MethodGet, "/users", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestUserHandler_SearchUsers(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.FindUsersQuery
	}{
		{
			name:  "no status parameter",
			query: "?name=ad&login_before=2024-06-01",
			want:  service.FindUsersQuery{Name: "ad", LoginBefore: "2024-06-01"},
		},
		{
			name:  "empty status parameter still counts as present",
			query: "?status=",
			want:  service.FindUsersQuery{Status: strPtr("")},
		},
		{
			name:  "status and both bounds",
			query: "?status=true&login_before=2024-06-01&login_after=2024-01-01",
			want:  service.FindUsersQuery{Status: strPtr("true"), LoginBefore: "2024-06-01", LoginAfter: "2024-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			svc.On("FindUsers", mock.Anything, tt.want).Return(apperrors.OK([]model.User{}), nil)

			rec := doRequest(newTestServer(svc), http.MethodGet, "/users/search"+tt.query, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_BulkCreate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []service.CreateUserInput
	}{
		{
			name: "wrapped list",
			body: `{"users":[{"email":"a@example.com","password":"pw","password_second":"pw"}]}`,
			want: []service.CreateUserInput{{Email: "a@example.com", Password: "pw", PasswordSecond: "pw"}},
		},
		{
			name: "bare list",
			body: `[{"email":"a@example.com"}]`,
			want: []service.CreateUserInput{{Email: "a@example.com"}},
		},
		{
			name: "empty list",
			body: `{"users":[]}`,
			want: []service.CreateUserInput{},
		},
		{
			name: "object instead of list",
			body: `{"users":{"email":"a@example.com"}}`,
			want: nil,
		},
		{
			name: "missing users",
			body: `{}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			svc.On("BulkCreate", mock.Anything, tt.want).Return(apperrors.OK(service.BulkSummary{}), nil)

			rec := doRequest(newTestServer(svc), http.MethodPost, "/users/bulk", tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_UpdateUser(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("UpdateUser", mock.Anything, id, service.UpdateUserInput{Cellphone: strPtr("X")}).
		Return(apperrors.OK("User updated successfully"), nil)

	rec := doRequest(newTestServer(svc), http.MethodPut, "/users/"+id.String(), `{"cellphone":"X"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_DeleteUser_NotFound(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("DeleteUser", mock.Anything, id).Return(apperrors.ResultFromError(apperrors.ErrUserNotFound), nil)

	rec := doRequest(newTestServer(svc), http.MethodDelete, "/users/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":404,"message":"User not found"}`, rec.Body.String())
}

func strPtr(s string) *string {
	return &s
}
