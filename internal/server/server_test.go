package server_test

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
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/assert/helpers"
	"github.com/kode4food/tartan/internal/engine"
	"github.com/kode4food/tartan/internal/events"
	"github.com/kode4food/tartan/internal/server"
	"github.com/kode4food/tartan/pkg/api"
)

type testServerEnv struct {
	*helpers.TestEngineEnv
	Server *server.Server
	Router *gin.Engine
	Bus    *events.Bus
}

type failingPinger struct{}

var errUnit = errors.New("unit exploded")

func (failingPinger) Ping(context.Context) error {
	return errors.New("redis unreachable")
}

func testServer(t *testing.T) *testServerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := helpers.NewTestEngine(t)

	bus := events.NewBus(nil)
	t.Cleanup(bus.Close)

	deps := env.Deps()
	deps.Events = bus
	deps.Clock = nil
	env.Engine = engine.New(deps, env.Config)

	srv := server.NewServer(env.Engine, bus, env.Store)
	return &testServerEnv{
		TestEngineEnv: env,
		Server:        srv,
		Router:        srv.SetupRoutes(),
		Bus:           bus,
	}
}

func (e *testServerEnv) do(
	method, path string, body any,
) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

func TestHealthEndpoint(t *testing.T) {
	env := testServer(t)

	w := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.HealthResponse](t, w)
	assert.Equal(t, "tartan", res.Service)
	assert.Equal(t, "ok", res.Status)
}

func TestHealthDegraded(t *testing.T) {
	env := testServer(t)
	srv := server.NewServer(env.Engine, env.Bus, failingPinger{})
	router := srv.SetupRoutes()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode[api.HealthResponse](t, w).Status)
}

func TestFlowEndpoints(t *testing.T) {
	env := testServer(t)

	flow := helpers.NewLinearFlow(t, "ignored", "a", "b")
	w := env.do(http.MethodPut, "/engine/flow/My%20Flow", flow)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, api.FlowID("my-flow"), decode[api.Flow](t, w).ID)

	w = env.do(http.MethodGet, "/engine/flow/My%20Flow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[api.Flow](t, w).Definition.Nodes, 2)

	w = env.do(http.MethodGet, "/engine/flow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[api.FlowsListResponse](t, w).Count)

	w = env.do(http.MethodGet, "/engine/flow/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/engine/flow/bad", `{"definition":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/engine/flow/bad", `{"definition":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[api.ErrorResponse](t, w).Error, "invalid JSON")
}

func TestFlowReplace(t *testing.T) {
	env := testServer(t)

	w := env.do(http.MethodPut, "/engine/flow/f1",
		helpers.NewLinearFlow(t, "f1", "a"),
	)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[api.Flow](t, w)

	w = env.do(http.MethodPut, "/engine/flow/f1",
		helpers.NewLinearFlow(t, "f1", "a", "b"),
	)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[api.Flow](t, w)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	w = env.do(http.MethodGet, "/engine/flow/f1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[api.Flow](t, w).Definition.Nodes, 2)

	w = env.do(http.MethodGet, "/engine/flow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[api.FlowsListResponse](t, w).Count)
}

func TestMixedCaseIDs(t *testing.T) {
	env := testServer(t)

	w := env.do(http.MethodPut, "/engine/flow/MyFlow",
		helpers.NewLinearFlow(t, "ignored", "a"),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPut, "/engine/project/MyProject", &api.Project{
		FlowID: "myflow", WorkspaceID: "ws",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.ProjectID("myproject"), decode[api.Project](t, w).ID)

	w = env.do(http.MethodGet, "/engine/project/MyProject", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.ProjectID("myproject"), decode[api.Project](t, w).ID)

	w = env.do(http.MethodGet, "/engine/flow/MyFlow", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/engine/project/MyProject/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[api.ExecutionSummary](t, w)
	assert.Equal(t, api.ProjectID("myproject"), sum.ProjectID)
	assert.Equal(t, api.FlowCompleted, sum.Status)

	w = env.do(http.MethodGet, "/engine/project/MyProject/artifact", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProjectEndpoints(t *testing.T) {
	env := testServer(t)
	env.SeedProject(t, "p1", helpers.NewLinearFlow(t, "f1", "a"))

	w := env.do(http.MethodGet, "/engine/project/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.FlowID("f1"), decode[api.Project](t, w).FlowID)

	w = env.do(http.MethodPut, "/engine/project/p2", &api.Project{
		FlowID: "f1", WorkspaceID: "w2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/engine/project/p2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.WorkspaceID("w2"), decode[api.Project](t, w).WorkspaceID)

	w = env.do(http.MethodGet, "/engine/project/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteEndpoint(t *testing.T) {
	env := testServer(t)
	env.SeedProject(t, "p1", helpers.NewLinearFlow(t, "f1", "a", "b"))

	w := env.do(http.MethodPost, "/engine/project/p1/execute",
		&api.ExecuteRequest{WorkspaceID: "ws", ActorID: "alice"},
	)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[api.ExecutionSummary](t, w)
	assert.Equal(t, api.FlowCompleted, sum.Status)
	assert.Equal(t, []api.NodeID{"a", "b"}, sum.Order)

	env.MockRunner.Reset()
	w = env.do(http.MethodPost, "/engine/project/p1/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.MockRunner.GetInvocations(), 2)

	w = env.do(http.MethodPost, "/engine/project/missing/execute", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/engine/project/p1/execute",
		&api.ExecuteRequest{ResumeFrom: "zzz"},
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteFailureAndResume(t *testing.T) {
	env := testServer(t)
	env.SeedProject(t, "p1", helpers.NewLinearFlow(t, "f1", "a", "b", "c"))
	env.MockRunner.SetError("b", errUnit)

	w := env.do(http.MethodPost, "/engine/project/p1/execute",
		&api.ExecuteRequest{ActorID: "alice", MaxRetries: 2},
	)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res := decode[api.ExecutionFailedResponse](t, w)
	assert.Equal(t, api.NodeID("b"), res.FailedNode)
	assert.Contains(t, res.Error, "unit exploded")
	assert.Len(t, env.MockRunner.InvocationsOf("b"), 2)

	w = env.do(http.MethodGet, "/engine/project/p1/checkpoint", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cp := decode[api.Checkpoint](t, w)
	assert.Equal(t, []api.NodeID{"a"}, cp.CompletedNodes)
	assert.Equal(t, api.NodeID("b"), cp.FailedNode)

	w = env.do(http.MethodPost, "/engine/project/p1/plan",
		&api.PlanRequest{ResumeFrom: "b"},
	)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		[]api.NodeID{"b", "c"}, decode[api.ExecutionPlan](t, w).Order,
	)

	env.MockRunner.ClearError("b")
	w = env.do(http.MethodPost, "/engine/project/p1/resume", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		[]api.NodeID{"b", "c"}, decode[api.ExecutionSummary](t, w).Order,
	)

	w = env.do(http.MethodPost, "/engine/project/p1/resume", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/engine/project/p1/checkpoint", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanCycle(t *testing.T) {
	env := testServer(t)
	nodes := []*api.Node{helpers.NewNode("a"), helpers.NewNode("b")}
	edges := []*api.Edge{{From: "a", To: "b"}, {From: "b", To: "a"}}
	env.SeedProject(t, "p1", helpers.NewFlow(t, "f1", nodes, edges))

	w := env.do(http.MethodPost, "/engine/project/p1/plan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[api.ErrorResponse](t, w).Error, "cyclic")
}

func TestArtifactEndpoints(t *testing.T) {
	env := testServer(t)
	a := helpers.NewNode("a")
	a.Config = &api.NodeConfig{
		Artifacts: []*api.ArtifactRule{
			{ID: "doc", Source: "doc", Type: api.ArtifactTypeMarkdown},
			{ID: "data", Source: "data", DependsOn: []api.ArtifactID{"doc"}},
		},
	}
	env.SeedProject(t, "p1", helpers.NewFlow(t, "f1", []*api.Node{a}, nil))
	env.MockRunner.SetResponse("a", `{"doc":"# Title","data":[1,2]}`)

	w := env.do(http.MethodPost, "/engine/project/p1/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/engine/project/p1/artifact", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[api.ArtifactsListResponse](t, w).Count)

	w = env.do(http.MethodGet, "/engine/project/p1/artifact?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[api.ArtifactsListResponse](t, w).Count)

	w = env.do(http.MethodGet, "/engine/project/p1/artifact?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/engine/project/p1/artifact/doc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a/doc.md", decode[api.ArtifactEntry](t, w).Path)

	w = env.do(http.MethodGet,
		"/engine/project/p1/artifact/data/dependencies", nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	deps := decode[api.ArtifactsListResponse](t, w)
	require.Len(t, deps.Artifacts, 1)
	assert.Equal(t, api.ArtifactID("doc"), deps.Artifacts[0].ArtifactID)

	w = env.do(http.MethodGet, "/engine/project/p1/artifact/doc/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Title", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")

	w = env.do(http.MethodGet, "/engine/project/p1/node/a/artifact", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[api.ArtifactsListResponse](t, w).Count)

	w = env.do(http.MethodGet, "/engine/project/p1/node/zzz/artifact", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[api.ArtifactsListResponse](t, w).Count)

	w = env.do(http.MethodGet, "/engine/project/p1/artifact/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
