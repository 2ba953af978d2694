package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"usersvc/internal/errors"
	"usersvc/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
	log logrus.FieldLogger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, log logrus.FieldLogger) *UserHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserHandler{svc: svc, log: log}
}

// BulkCreateRequest is the documented shape of a bulk payload; a bare array is also accepted.
type BulkCreateRequest struct {
	Users []service.CreateUserInput `json:"users"`
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body service.CreateUserInput true "User payload"
// @Success 200 {object} errors.Result
// @Failure 400 {object} errors.Result
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var in service.CreateUserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.CreateUser(c.Request().Context(), in)
	return h.respond(c, res, err)
}

// BulkCreate godoc
// @Summary Create many users
// @Description Items are created independently; the response only carries success and failure counts.
// @Tags users
// @Accept json
// @Produce json
// @Param request body BulkCreateRequest true "Users to create"
// @Success 200 {object} errors.Result
// @Failure 400 {object} errors.Result
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/bulk [post]
func (h *UserHandler) BulkCreate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.BulkCreate(c.Request().Context(), decodeBulkUsers(body))
	return h.respond(c, res, err)
}

// GetUser godoc
// @Summary Get active user by id
// @Description Responds 200 with a null message when no active user matches.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} errors.Result
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.GetUserByID(c.Request().Context(), id)
	return h.respond(c, res, err)
}

// ListUsers godoc
// @Summary List active users
// @Tags users
// @Produce json
// @Success 200 {object} errors.Result
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	res, err := h.svc.GetAllUsers(c.Request().Context())
	return h.respond(c, res, err)
}

// SearchUsers godoc
// @Summary Search users
// @Description Without a status parameter soft-deleted users are included. When both login bounds are given only login_after applies. Bounds take a date (2006-01-02), a date with time (2006-01-02 15:04:05) or an RFC 3339 timestamp.
// @Tags users
// @Produce json
// @Param name query string false "Substring of the name"
// @Param status query string false "true for active users, anything else for deleted ones"
// @Param login_before query string false "Created at or before"
// @Param login_after query string false "Created at or after"
// @Success 200 {object} errors.Result
// @Failure 400 {object} errors.Result
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/search [get]
func (h *UserHandler) SearchUsers(c echo.Context) error {
	params := c.QueryParams()
	q := service.FindUsersQuery{
		Name:        params.Get("name"),
		LoginBefore: params.Get("login_before"),
		LoginAfter:  params.Get("login_after"),
	}
	if _, ok := params["status"]; ok {
		status := params.Get("status")
		q.Status = &status
	}
	res, err := h.svc.FindUsers(c.Request().Context(), q)
	return h.respond(c, res, err)
}

// UpdateUser godoc
// @Summary Update user
// @Description Omitted fields keep their current value.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} errors.Result
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.Result
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in service.UpdateUserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.UpdateUser(c.Request().Context(), id, in)
	return h.respond(c, res, err)
}

// DeleteUser godoc
// @Summary Soft-delete user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} errors.Result
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.Result
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.DeleteUser(c.Request().Context(), id)
	return h.respond(c, res, err)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid user ID",
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

// respond writes the Result with its code as HTTP status, or maps an unexpected error.
func (h *UserHandler) respond(c echo.Context, res *errors.Result, err error) error {
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).Error("user operation failed")
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(res.Code, res)
}

// decodeBulkUsers accepts {"users": [...]} or a bare array and returns nil
// when the payload holds no list.
func decodeBulkUsers(body []byte) []service.CreateUserInput {
	raw := bytes.TrimSpace(body)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapper struct {
			Users json.RawMessage `json:"users"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil
		}
		raw = bytes.TrimSpace(wrapper.Users)
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}

	users := []service.CreateUserInput{}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil
	}
	return users
}
