package handlers_test

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

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/core/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/handlers"
	"github.com/openbooks-app/openbooks/internal/repositories/memory"
	"github.com/openbooks-app/openbooks/internal/telemetry"
	"github.com/openbooks-app/openbooks/pkg/config"
)

// newTestRouter assembles the full route tree over the in-memory store.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		MatcherAmountWeight:         0.45,
		MatcherDateWeight:           0.35,
		MatcherDescriptionWeight:    0.20,
		MatcherAmountToleranceMinor: 5000,
		MatcherDateToleranceDays:    7,
		MatcherMinScore:             0.35,
	}

	repos := memory.NewRepositoryProvider()
	now := time.Now().UTC()
	require.NoError(t, repos.CurrencyRepo.SaveCurrency(context.Background(), domain.Currency{
		CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2,
		AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "seed", LastUpdatedAt: now, LastUpdatedBy: "seed"},
	}))

	container := services.NewServiceContainer(cfg, repos, telemetry.New())

	r := gin.New()
	handlers.RegisterRoutes(r, cfg, container, telemetry.New(), nil)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "tester")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCompanyEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/companies", `{"name":"Meridian Trading Ltd","baseCurrencyCode":"USD"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.CompanyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.CompanyID)
	assert.Equal(t, "USD", created.BaseCurrencyCode)

	w = doJSON(t, r, http.MethodGet, "/api/v1/companies/"+created.CompanyID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// The default chart comes with the company.
	w = doJSON(t, r, http.MethodGet, "/api/v1/companies/"+created.CompanyID+"/accounts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var chart dto.ListAccountsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.NotEmpty(t, chart.Accounts)
}

func TestCreateCompanyEndpoint_BadRequests(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/companies", `{"name":"No Base"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "binding rejects a missing base currency")

	w = doJSON(t, r, http.MethodPost, "/api/v1/companies", `{"name":"Bad Base","baseCurrencyCode":"ZZZ"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unregistered base currencies fail")

	w = doJSON(t, r, http.MethodGet, "/api/v1/companies/no-such-company", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = doJSON(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot telemetry.Snapshot
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
}
