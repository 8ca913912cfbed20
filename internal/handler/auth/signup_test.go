package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"civic-access/internal/model"
	"civic-access/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestSignupHandler(t *testing.T) {
	const body = `{"email":"alice@example.com","password":"pw"}`

	t.Run("bind error", func(t *testing.T) {
		e := newEcho()
		e.Binder = errBinder{}
		ctx, rec := newCtx(e, http.MethodPost, "/auth/signup", echo.MIMEApplicationJSON, body)
		require.NoError(t, SignupHandler(&fakeService{})(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"detail":"Invalid request body"}`, rec.Body.String())
	})

	t.Run("validate error", func(t *testing.T) {
		e := echo.New()
		e.Validator = errValidator{}
		ctx, rec := newCtx(e, http.MethodPost, "/auth/signup", echo.MIMEApplicationJSON, body)
		require.NoError(t, SignupHandler(&fakeService{})(ctx))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.JSONEq(t, `{"detail":"Invalid request fields"}`, rec.Body.String())
	})

	t.Run("validation detail hides struct names", func(t *testing.T) {
		e := echo.New()
		e.Validator = structValidator{v: validator.New()}
		ctx, rec := newCtx(e, http.MethodPost, "/auth/signup", echo.MIMEApplicationJSON, `{"email":"nope","password":"x"}`)
		require.NoError(t, SignupHandler(&fakeService{})(ctx))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.JSONEq(t, `{"detail":"email: must be a valid email address"}`, rec.Body.String())
		require.NotContains(t, rec.Body.String(), "SignupRequest")
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &fakeService{RegisterFn: func(context.Context, string, string) (*model.User, error) {
			return nil, service.ErrDuplicateEmail
		}}
		ctx, rec := newCtx(newEcho(), http.MethodPost, "/auth/signup", echo.MIMEApplicationJSON, body)
		require.NoError(t, SignupHandler(svc)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"detail":"Email already registered"}`, rec.Body.String())
	})

	t.Run("password too long", func(t *testing.T) {
		svc := &fakeService{RegisterFn: func(context.Context, string, string) (*model.User, error) {
			return nil, service.ErrPasswordTooLong
		}}
		ctx, rec := newCtx(newEcho(), http.MethodPost, "/auth/signup", echo.MIMEApplicationJSON, body)
		require.NoError(t, SignupHandler(svc)(ctx))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("store error is passed on", func(t *testing.T) {
		svc := &fakeService{RegisterFn: func(context.Context, string, string) (*model.User, error) {
			return nil, service.ErrStoreUnavailable
		}}
		ctx, _ := newCtx(newEcho(), http.MethodPost, "/auth/signup", echo.MIMEApplicationJSON, body)
		err := SignupHandler(svc)(ctx)
		require.True(t, errors.Is(err, service.ErrStoreUnavailable))
	})

	t.Run("success with form body", func(t *testing.T) {
		var gotEmail, gotPassword string
		svc := &fakeService{RegisterFn: func(_ context.Context, email, password string) (*model.User, error) {
			gotEmail, gotPassword = email, password
			return alice, nil
		}}
		ctx, rec := newCtx(newEcho(), http.MethodPost, "/auth/signup", echo.MIMEApplicationForm, "email=alice%40example.com&password=pw")
		require.NoError(t, SignupHandler(svc)(ctx))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "alice@example.com", gotEmail)
		require.Equal(t, "pw", gotPassword)
		require.JSONEq(t, `{"message":"Account created successfully. Please log in.","email":"alice@example.com"}`, rec.Body.String())
	})
}
