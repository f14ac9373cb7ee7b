package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/books2shelf/shelfd/pkg/binder"
	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/identity"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsersTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.Set(identity.ContextKeyUserID, "user-1")
	return c, rr
}

func TestHandlerRecordLogin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{userService: NewService(db)}
	ctx := context.Background()

	_, err := h.userService.Create(ctx, CreateUserOptions{
		ID:          "user-1",
		Email:       "reader@example.com",
		DisplayName: "Avid Reader",
	})
	require.NoError(t, err)

	c, rr := newUsersTestContext(t, http.MethodPost, "/users/me/login", "")

	require.NoError(t, h.recordLogin(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		ID          string    `json:"id"`
		LastLoginAt time.Time `json:"last_login_at"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.ID)
	assert.WithinDuration(t, time.Now(), resp.LastLoginAt, time.Minute)
}

func TestHandlerRecordLoginMissingUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{userService: NewService(db)}

	c, _ := newUsersTestContext(t, http.MethodPost, "/users/me/login", "")

	err := h.recordLogin(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}
