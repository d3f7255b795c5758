package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-api/internal/core/domain"
	"github.com/taskhub/task-api/internal/core/ports"
)

// UserHandler handles account, session and avatar endpoints.
type UserHandler struct {
	accounts      ports.AccountService
	maxPhotoBytes int64
}

func NewUserHandler(accounts ports.AccountService, maxPhotoBytes int) *UserHandler {
	return &UserHandler{accounts: accounts, maxPhotoBytes: int64(maxPhotoBytes)}
}

// Register creates a new user account and opens its first session.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, token, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, sessionResponse{User: toUserResponse(user), Token: token})
}

// Login authenticates a user and returns a new session token.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, token, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sessionResponse{User: toUserResponse(user), Token: token})
}

// Logout revokes the token used for this request.
//
// @Summary      Logout the current session
// @Tags         users
// @Security     BearerAuth
// @Success      200
// @Failure      401   {object}  errorResponse
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	user, token, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Request().Context(), user, token); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// LogoutAll revokes every session of the caller.
//
// @Summary      Logout all sessions
// @Tags         users
// @Security     BearerAuth
// @Success      200
// @Failure      401   {object}  errorResponse
// @Router       /users/logoutAll [post]
func (h *UserHandler) LogoutAll(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.accounts.LogoutAll(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Me returns the caller's profile.
//
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe applies a partial profile update. Only name, email, password and
// age may be present.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      object  true  "Any of: name, email, password, age"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	fields, err := bindFields(c)
	if err != nil {
		return err
	}

	updated, err := h.accounts.UpdateProfile(c.Request().Context(), user, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}

// DeleteMe deletes the caller's account together with all of its tasks.
//
// @Summary      Delete own account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteAccount(c.Request().Context(), user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UploadPhoto stores a resized copy of the uploaded avatar.
//
// @Summary      Upload avatar
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "jpg, jpeg or png image, at most 1 MB"
// @Success      200     {object}  userResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Router       /users/me/photo [post]
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return &domain.ValidationError{Field: "avatar", Reason: "file is required"}
	}
	if fh.Size > h.maxPhotoBytes {
		return &domain.ValidationError{Field: "avatar", Reason: fmt.Sprintf("file must not exceed %d bytes", h.maxPhotoBytes)}
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxPhotoBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	updated, err := h.accounts.SetPhoto(c.Request().Context(), user, ports.PhotoUpload{
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}

// Photo serves a user's avatar. No authentication is required.
//
// @Summary      Get avatar
// @Tags         users
// @Produce      png
// @Param        id   path      string  true  "User ID"
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/photo [get]
func (h *UserHandler) Photo(c echo.Context) error {
	photo, err := h.accounts.Photo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", photo)
}

// DeletePhoto removes the caller's avatar.
//
// @Summary      Delete avatar
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me/photo [delete]
func (h *UserHandler) DeletePhoto(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	updated, err := h.accounts.DeletePhoto(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}

// bindFields decodes a PATCH body into raw fields. An empty body is an empty
// update.
func bindFields(c echo.Context) (ports.Fields, error) {
	var fields ports.Fields
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return fields, nil
}
