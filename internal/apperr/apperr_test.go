package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewUnauthenticated("x"), http.StatusUnauthorized},
		{NewAuthorizationDenied("x"), http.StatusForbidden},
		{NewValidation("x"), http.StatusBadRequest},
		{NewAlreadyExists("x"), http.StatusBadRequest},
		{NewNotFound("x"), http.StatusNotFound},
		{New(MethodNotSupported, "x"), http.StatusMethodNotAllowed},
		{New(RateLimited, "x"), http.StatusTooManyRequests},
		{Internal("op", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewNotFound("project not found"))
	assert.Equal(t, NotFound, KindOf(err))
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(nil, NotFound))
}

func TestPublicMessage_HidesInternalCause(t *testing.T) {
	err := Internal("create project", errors.New("pq: connection refused on 10.0.0.4"))
	assert.Equal(t, genericInternalMessage, PublicMessage(err))
	assert.Equal(t, genericInternalMessage, PublicMessage(errors.New("raw")))
	assert.Equal(t, "nope", PublicMessage(NewValidation("nope")))
	assert.ErrorContains(t, err, "connection refused")
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Respond(c, Internal("list", errors.New("secret detail")))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.True(t, c.IsAborted())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, genericInternalMessage, body["message"])
	assert.NotContains(t, rr.Body.String(), "secret detail")
}
