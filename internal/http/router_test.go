package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	"github.com/yungbote/contentstream-backend/internal/data/repos/testutil"
	types "github.com/yungbote/contentstream-backend/internal/domain"
	httpH "github.com/yungbote/contentstream-backend/internal/http/handlers"
	httpMW "github.com/yungbote/contentstream-backend/internal/http/middleware"
	"github.com/yungbote/contentstream-backend/internal/http/response"
	"github.com/yungbote/contentstream-backend/internal/services"
)

type testServer struct {
	router *gin.Engine
	auth   services.AuthService
	items  []*types.ContentItem
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	registry := types.NewTypeRegistry(nil)
	rs := repos.NewSet(db, log)
	guard := services.NewStoreGuard(log, 5, time.Second)
	identity := services.NewIdentityService(db, log, registry, rs.Items, rs.Identities, rs.Counters)
	store := services.NewMembershipStore(db, log, rs.Memberships, nil, guard)
	cfg := services.EngineConfig{}
	auth := services.NewAuthService(log, "router-test-secret", time.Minute)

	items := testutil.SeedContentItems(t, context.Background(), db, "quiz", "", 3)
	router := NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		ContentHandler: httpH.NewContentHandler(
			log,
			services.NewSelectionService(db, log, cfg, registry, rs.Items, identity, store),
			services.NewMutationService(log, cfg, registry, identity, store),
			services.NewStatsService(log, registry, identity, store),
			identity,
		),
		HealthHandler: httpH.NewHealthHandler(db, guard),
	})
	return &testServer{router: router, auth: auth, items: items}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestRouterSeenFlow(t *testing.T) {
	s := newTestServer(t)
	tok, err := s.auth.IssueToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	for _, it := range s.items[:2] {
		rec := s.do(t, nethttp.MethodPost, "/api/content/quiz/"+it.ExternalID()+"/seen", tok, nil)
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("mark seen: status=%d body=%s", rec.Code, rec.Body.String())
		}
	}

	rec := s.do(t, nethttp.MethodGet, "/api/content/quiz/unseen?count=1", tok, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("unseen: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var res services.SelectionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Item.ID != s.items[2].ID || res.Wraparound {
		t.Fatalf("unexpected selection: %s", rec.Body.String())
	}
	if got := rec.Header().Get(response.HeaderWraparound); got != "false" {
		t.Fatalf("wraparound header: %q", got)
	}
	if got := rec.Header().Get(response.HeaderPoolSize); got != "3" {
		t.Fatalf("pool size header: %q", got)
	}

	rec = s.do(t, nethttp.MethodPost, "/api/content/quiz/completed", tok, map[string]any{
		"external_ids": []string{s.items[0].ExternalID(), s.items[2].ExternalID()},
	})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("batch: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, nethttp.MethodGet, "/api/content/quiz/stats", tok, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("stats: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var st types.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.SeenCount != 3 || st.CompletedCount != 2 || st.TotalCount != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRouterAuthAndValidation(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, nethttp.MethodGet, "/api/content/quiz/unseen?count=2", "", nil); rec.Code != nethttp.StatusOK {
		t.Fatalf("anonymous unseen: status=%d", rec.Code)
	}
	if rec := s.do(t, nethttp.MethodPost, "/api/content/quiz/x/seen", "", nil); rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous mark: status=%d", rec.Code)
	}
	if rec := s.do(t, nethttp.MethodGet, "/api/content/quiz/unseen", "not-a-jwt", nil); rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("bad token: status=%d", rec.Code)
	}
	if rec := s.do(t, nethttp.MethodGet, "/api/content/video/unseen", "", nil); rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("invalid type: status=%d", rec.Code)
	}
	if rec := s.do(t, nethttp.MethodGet, "/api/content/quiz/unseen?count=zero", "", nil); rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad count: status=%d", rec.Code)
	}
	if rec := s.do(t, nethttp.MethodGet, "/healthcheck", "", nil); rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: status=%d", rec.Code)
	}
	if rec := s.do(t, nethttp.MethodGet, "/readyz", "", nil); rec.Code != nethttp.StatusOK {
		t.Fatalf("readyz: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
