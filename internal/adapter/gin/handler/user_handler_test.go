package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-crud-service/internal/adapter/gin/middleware"
	usecase "user-crud-service/internal/usecase/user"
	apperrors "user-crud-service/pkg/errors"
)

// MockUserUsecase is a mock implementation of user.Usecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context) ([]usecase.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.User), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	logger := zaptest.NewLogger(t)
	h := NewUserHandler(mockUsecase, logger)

	r := gin.New()
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	byID := r.Group("/users/:id", middleware.IntParam("id"))
	byID.GET("", h.GetUser)
	byID.PUT("", h.UpdateUser)
	byID.DELETE("", h.DeleteUser)
	return r, mockUsecase
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return([]usecase.User{
			{ID: 1, Name: "One", Email: "First@email.com"},
			{ID: 2, Name: "Two", Email: "Second@email.com"},
		}, nil)

		w := doJSON(r, http.MethodGet, "/users", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[
			{"id":1,"name":"One","email":"First@email.com"},
			{"id":2,"name":"Two","email":"Second@email.com"}
		]`, w.Body.String())
	})

	t.Run("Empty", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return([]usecase.User{}, nil)

		w := doJSON(r, http.MethodGet, "/users", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Usecase Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return(nil, errors.New("store unavailable"))

		w := doJSON(r, http.MethodGet, "/users", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, middleware.UnexpectedErrorMessage, resp.Error)
		assert.Equal(t, "store unavailable", resp.Detail)
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 1}).
			Return(&usecase.User{ID: 1, Name: "One", Email: "First@email.com"}, nil)

		w := doJSON(r, http.MethodGet, "/users/1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, UserResponse{ID: 1, Name: "One", Email: "First@email.com"}, resp)
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 42}).
			Return(nil, apperrors.UserNotFound(42))

		w := doJSON(r, http.MethodGet, "/users/42", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User with ID 42 not found.", w.Body.String())
	})

	t.Run("Non Integer ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := doJSON(r, http.MethodGet, "/users/abc", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{Name: "Three", Email: "third@email.com"}).
			Return(&usecase.User{ID: 3, Name: "Three", Email: "third@email.com"}, nil)

		w := doJSON(r, http.MethodPost, "/users", UserRequest{ID: 99, Name: "Three", Email: "third@email.com"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/users/3", w.Header().Get("Location"))
		assert.JSONEq(t, `{"id":3,"name":"Three","email":"third@email.com"}`, w.Body.String())
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("invalid json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, InvalidBodyMessage, w.Body.String())
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("Name", usecase.MsgNameRequired))

		w := doJSON(r, http.MethodPost, "/users", UserRequest{Name: "", Email: "a@b"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Name cannot be empty.", w.Body.String())
		assert.Empty(t, w.Header().Get("Location"))
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1, Name: "Uno", Email: "uno@email.com"}).
			Return(&usecase.User{ID: 1, Name: "Uno", Email: "uno@email.com"}, nil)

		w := doJSON(r, http.MethodPut, "/users/1", UserRequest{ID: 5, Name: "Uno", Email: "uno@email.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"name":"Uno","email":"uno@email.com"}`, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, apperrors.UserNotFound(7))

		w := doJSON(r, http.MethodPut, "/users/7", UserRequest{Name: "x", Email: "x@y"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User with ID 7 not found.", w.Body.String())
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("Email", usecase.MsgEmailRequired))

		w := doJSON(r, http.MethodPut, "/users/1", UserRequest{Name: "x", Email: "nope"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "A valid email is required.", w.Body.String())
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 2}).Return(nil)

		w := doJSON(r, http.MethodDelete, "/users/2", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 2}).Return(apperrors.UserNotFound(2))

		w := doJSON(r, http.MethodDelete, "/users/2", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User with ID 2 not found.", w.Body.String())
	})
}

func TestSystemHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Root)
	r.GET("/health", Health("user-crud-service"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "This is root", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"user-crud-service"}`, w.Body.String())

	assert.PanicsWithError(t, TestExceptionMessage, func() { Exception(nil) })
}
