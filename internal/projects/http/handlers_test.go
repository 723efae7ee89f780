package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/gate"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/session"
	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
	projectdomain "github.com/GoSim-25-26J-441/project-auth/internal/projects/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/repository"
	"github.com/GoSim-25-26J-441/project-auth/internal/projects/service"
)

// headerVerifier authenticates "Bearer <user id>:<email>" so tests can act as
// any user.
type headerVerifier struct{}

func (headerVerifier) Verify(_ context.Context, r *http.Request) (*domain.Identity, error) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	id, email, ok := strings.Cut(raw, ":")
	if !ok || id == "" {
		return nil, session.ErrNoSession
	}
	return &domain.Identity{UserID: id, Email: email}, nil
}

type caller struct {
	id, email string
}

var (
	alice = caller{"5a3e9c1d-2b47-4f80-9d16-e8c0a4b7f231", "alice@example.com"}
	bob   = caller{"c7d2f4a9-61b3-4e58-8a0f-3d9b1e6c5724", "bob@example.com"}
	root  = caller{"0e4b8d2f-9a16-4c73-b5e8-7f1a3c6d9b02", "root@example.com"}
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := repository.NewMemoryStore().WithClock(func() time.Time {
		t0 = t0.Add(time.Second)
		return t0
	})
	svc := service.NewProjectService(store, nil, logging.Discard())
	g := gate.New([]string{root.email})

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(MethodNotSupported)
	New(svc, g).Register(r.Group("/api/v1"), middleware.RequireSession(headerVerifier{}), g.Middleware())

	t.Cleanup(func() { assert.Equal(t, int64(0), store.Outstanding()) })
	return &testAPI{t: t, router: r, store: store}
}

func (a *testAPI) do(as *caller, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+as.id+":"+as.email)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

type projectEnvelope struct {
	Message string                `json:"message"`
	Project projectdomain.Project `json:"project"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (a *testAPI) create(as *caller, body string) projectdomain.Project {
	a.t.Helper()
	rr := a.do(as, http.MethodPost, "/api/v1/projects", body)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[projectEnvelope](a.t, rr).Project
}

func TestCreate_Demo(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(&alice, http.MethodPost, "/api/v1/projects", `{"project_title":"Demo","tags":["x","y"]}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	env := decode[projectEnvelope](t, rr)
	assert.Equal(t, "project created successfully", env.Message)
	assert.Equal(t, alice.id, env.Project.UserID)
	assert.Equal(t, []string{"x", "y"}, env.Project.Tags)
	require.Len(t, env.Project.Stages, 8)
	names := make([]string, 0, 8)
	for _, s := range env.Project.Stages {
		names = append(names, s.StageName)
		assert.False(t, s.Finalized)
	}
	assert.Equal(t, projectdomain.DefaultStageNames, names)
}

func TestCreate_Validation(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(&alice, http.MethodPost, "/api/v1/projects", `{"project_title":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"project_title is required"}`, rr.Body.String())

	rr = api.do(&alice, http.MethodPost, "/api/v1/projects", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnauthenticated(t *testing.T) {
	api := newTestAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/projects"},
		{http.MethodPost, "/api/v1/projects"},
		{http.MethodGet, "/api/v1/projects/123"},
	} {
		rr := api.do(nil, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.method+" "+tc.path)
	}
}

func TestList_OrderAndScope(t *testing.T) {
	api := newTestAPI(t)

	first := api.create(&alice, `{"project_title":"First"}`)
	second := api.create(&alice, `{"project_title":"Second"}`)
	api.create(&bob, `{"project_title":"Bob's"}`)

	rr := api.do(&alice, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Projects []projectdomain.Project `json:"projects"`
	}](t, rr).Projects
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Empty(t, list[0].Stages)
	assert.NotContains(t, rr.Body.String(), `"stages"`)
}

func TestItem_ReadUpdateDelete(t *testing.T) {
	api := newTestAPI(t)
	p := api.create(&alice, `{"project_title":"Demo","project_description":"first draft"}`)
	item := "/api/v1/projects/" + p.ID

	rr := api.do(&alice, http.MethodGet, item, "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[projectEnvelope](t, rr).Project
	assert.Len(t, got.Stages, 8)
	assert.Equal(t, "Deployment", got.Stages[0].StageName)

	rr = api.do(&alice, http.MethodPut, item, `{"project_title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	env := decode[projectEnvelope](t, rr)
	assert.Equal(t, "project updated successfully", env.Message)
	assert.Equal(t, "Renamed", env.Project.Title)
	require.NotNil(t, env.Project.Description)
	assert.Equal(t, "first draft", *env.Project.Description)

	rr = api.do(&alice, http.MethodPatch, item, `{"project_description":null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"project_description":null`)

	stageID := got.Stages[0].ID
	rr = api.do(&alice, http.MethodDelete, item, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"project deleted successfully"}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, api.do(&alice, http.MethodGet, item, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(&alice, http.MethodGet, item+"/stages/"+stageID, "").Code)
}

func TestItem_OtherUsersProjectIsNotFound(t *testing.T) {
	api := newTestAPI(t)
	p := api.create(&alice, `{"project_title":"Private"}`)
	item := "/api/v1/projects/" + p.ID
	missing := "/api/v1/projects/00000000-0000-0000-0000-000000000000"

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := ""
		if method == http.MethodPut {
			body = `{"project_title":"mine now"}`
		}
		theirs := api.do(&bob, method, item, body)
		absent := api.do(&bob, method, missing, body)
		assert.Equal(t, http.StatusNotFound, theirs.Code, method)
		assert.Equal(t, absent.Code, theirs.Code, method)
		assert.Equal(t, absent.Body.String(), theirs.Body.String(), method)
	}

	rr := api.do(&alice, http.MethodGet, item, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Private", decode[projectEnvelope](t, rr).Project.Title)
}

func TestMethodNotSupported(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(&alice, http.MethodDelete, "/api/v1/projects", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.JSONEq(t, `{"message":"method not supported"}`, rr.Body.String())

	rr = api.do(&alice, http.MethodPost, "/api/v1/projects/abc", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestImpersonation(t *testing.T) {
	api := newTestAPI(t)
	p := api.create(&alice, `{"project_title":"Alice's"}`)

	t.Run("admin reads another user's project", func(t *testing.T) {
		rr := api.do(&root, http.MethodGet, "/api/v1/projects/"+p.ID, "",
			gate.HeaderImpersonating, "true", gate.HeaderImpersonatedID, alice.id)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("non admin is denied, not downgraded", func(t *testing.T) {
		rr := api.do(&bob, http.MethodGet, "/api/v1/projects", "",
			gate.HeaderImpersonating, "true", gate.HeaderImpersonatedID, alice.id)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("malformed headers are denied", func(t *testing.T) {
		rr := api.do(&root, http.MethodGet, "/api/v1/projects", "",
			gate.HeaderImpersonating, "true")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin must name a real user id", func(t *testing.T) {
		rr := api.do(&root, http.MethodGet, "/api/v1/projects", "",
			gate.HeaderImpersonating, "true", gate.HeaderImpersonatedID, "alice")
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = api.do(&root, http.MethodPost, "/api/v1/projects", `{"project_title":"Typo","user_id":"bob"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"message":"user_id must be a valid user id"}`, rr.Body.String())
	})

	t.Run("body user_id needs admin", func(t *testing.T) {
		rr := api.do(&bob, http.MethodPost, "/api/v1/projects", `{"project_title":"sneaky","user_id":"`+alice.id+`"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = api.do(&alice, http.MethodGet, "/api/v1/projects", "")
		assert.NotContains(t, rr.Body.String(), "sneaky")
	})

	t.Run("admin creates for another user", func(t *testing.T) {
		created := api.create(&root, `{"project_title":"On behalf","user_id":"`+bob.id+`"}`)
		assert.Equal(t, bob.id, created.UserID)

		rr := api.do(&bob, http.MethodGet, "/api/v1/projects/"+created.ID, "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestStageEndpoints(t *testing.T) {
	api := newTestAPI(t)
	p := api.create(&alice, `{"project_title":"Staged"}`)
	stage := "/api/v1/projects/" + p.ID + "/stages/" + p.Stages[0].ID

	rr := api.do(&alice, http.MethodPatch, stage, `{"ai_outputs":{"summary":"ok"},"finalized":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(&alice, http.MethodGet, stage, "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[struct {
		Stage projectdomain.Stage `json:"stage"`
	}](t, rr).Stage
	assert.True(t, got.Finalized)
	assert.JSONEq(t, `{"summary":"ok"}`, string(got.AIOutputs))

	assert.Equal(t, http.StatusNotFound, api.do(&bob, http.MethodGet, stage, "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(&alice, http.MethodPost, stage, "").Code)
}
