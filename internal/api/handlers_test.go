//nolint:testpackage // Builds handlers with unexported collaborators
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/enrichment/internal/database"
	"github.com/citypulse/enrichment/internal/domain"
)

type fakeReports struct {
	created   []*domain.Report
	createErr error
	report    *domain.Report
	getErr    error
	processed []*domain.Report
	status    *database.ProcessingStatus
}

func (f *fakeReports) Create(_ context.Context, r *domain.Report) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, r)
	return nil
}

func (f *fakeReports) GetReport(context.Context, string) (*domain.Report, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.report, nil
}

func (f *fakeReports) ListProcessed(context.Context, int) ([]*domain.Report, error) {
	return f.processed, nil
}

func (f *fakeReports) Status(context.Context) (*database.ProcessingStatus, error) {
	return f.status, nil
}

type fakeStats struct {
	doc   *domain.StatsDocument
	found bool
	err   error
	key   string
}

func (f *fakeStats) GetStats(_ context.Context, scopeKey string) (*domain.StatsDocument, bool, error) {
	f.key = scopeKey
	return f.doc, f.found, f.err
}

type fakeSubmitter struct {
	ids []string
}

func (f *fakeSubmitter) Submit(id string) { f.ids = append(f.ids, id) }

type fakeProbe struct {
	pingErr   error
	healthErr error
}

func (f *fakeProbe) PingContext(context.Context) error { return f.pingErr }
func (f *fakeProbe) Health(context.Context) error      { return f.healthErr }

func newTestRouter(reports *fakeReports, stats *fakeStats, queue *fakeSubmitter, probe *fakeProbe) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(reports, stats, queue, probe, probe, nil, nil)
	router := gin.New()
	SetupRoutes(router, handler)
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateReport(t *testing.T) {
	reports := &fakeReports{}
	queue := &fakeSubmitter{}
	router := newTestRouter(reports, &fakeStats{}, queue, &fakeProbe{})

	w := performJSON(t, router, http.MethodPost, "/report", gin.H{
		"city":           "Lakeshore",
		"district":       "  Harbor   District ",
		"public_service": "Water Supply",
		"rating":         1,
		"comment":        "No water for three days",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, reports.created, 1)
	created := reports.created[0]
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Harbor District", created.District)
	require.True(t, created.IsAnonymous)
	require.Equal(t, []string{created.ID}, queue.ids)

	var resp CreateReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, created.ID, resp.ID)
	require.Equal(t, "queued", resp.Status)
}

func TestCreateReport_Validation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing comment", gin.H{"city": "a", "district": "b", "public_service": "c", "rating": 3}},
		{"rating too high", gin.H{"city": "a", "district": "b", "public_service": "c", "rating": 6, "comment": "x"}},
		{"rating too low", gin.H{"city": "a", "district": "b", "public_service": "c", "rating": 0, "comment": "x"}},
		{"missing district", gin.H{"city": "a", "public_service": "c", "rating": 3, "comment": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := &fakeReports{}
			router := newTestRouter(reports, &fakeStats{}, &fakeSubmitter{}, &fakeProbe{})

			w := performJSON(t, router, http.MethodPost, "/report", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Empty(t, reports.created)
		})
	}
}

func TestCreateReport_NamedSubmitter(t *testing.T) {
	reports := &fakeReports{}
	router := newTestRouter(reports, &fakeStats{}, &fakeSubmitter{}, &fakeProbe{})

	anonymous := false
	w := performJSON(t, router, http.MethodPost, "/report", gin.H{
		"city":           "Lakeshore",
		"district":       "Harbor",
		"public_service": "Roads",
		"rating":         2,
		"comment":        "Deep pothole on the overpass",
		"is_anonymous":   anonymous,
		"name":           "R. Alvarez",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	require.False(t, reports.created[0].IsAnonymous)
	require.Equal(t, "R. Alvarez", reports.created[0].Name)
}

func TestGetReport_NotFound(t *testing.T) {
	reports := &fakeReports{getErr: domain.ErrReportNotFound}
	router := newTestRouter(reports, &fakeStats{}, &fakeSubmitter{}, &fakeProbe{})

	w := performJSON(t, router, http.MethodGet, "/reports/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport_HidesNameWhenAnonymous(t *testing.T) {
	cleaned := "water outage on 5th street"
	reports := &fakeReports{report: &domain.Report{
		ID:             "r-1",
		City:           "Lakeshore",
		District:       "Harbor",
		Service:        "Water Supply",
		Rating:         1,
		Comment:        "water outage on 5th street!!!",
		CreatedAt:      time.Now().UTC(),
		IsAnonymous:    true,
		Name:           "should not leak",
		CleanedComment: &cleaned,
		Processing:     domain.StageCleaned,
	}}
	router := newTestRouter(reports, &fakeStats{}, &fakeSubmitter{}, &fakeProbe{})

	w := performJSON(t, router, http.MethodGet, "/reports/r-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Name)
	require.Equal(t, cleaned, resp.CleanedComment)
	require.Equal(t, domain.StageCleaned, resp.Processing)
}

func TestGetAnalytics(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantKey  string
	}{
		{"default scope is global", "/analytics", http.StatusOK, "global"},
		{"explicit global", "/analytics?scope=global", http.StatusOK, "global"},
		{"district scope", "/analytics?scope=district&district=Harbor", http.StatusOK, "district:Harbor"},
		{"district scope cleans name", "/analytics?scope=district&district=%20Harbor%20%20District%20", http.StatusOK, "district:Harbor District"},
		{"district without name", "/analytics?scope=district", http.StatusBadRequest, ""},
		{"unknown scope", "/analytics?scope=city", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &fakeStats{doc: domain.NewStatsDocument("global"), found: true}
			router := newTestRouter(&fakeReports{}, stats, &fakeSubmitter{}, &fakeProbe{})

			w := performJSON(t, router, http.MethodGet, tt.path, nil)

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantKey != "" {
				require.Equal(t, tt.wantKey, stats.key)
			}
		})
	}
}

func TestGetAnalytics_EmptyScopeReturnsZeroDocument(t *testing.T) {
	stats := &fakeStats{found: false}
	router := newTestRouter(&fakeReports{}, stats, &fakeSubmitter{}, &fakeProbe{})

	w := performJSON(t, router, http.MethodGet, "/analytics?scope=district&district=Empty", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, domain.ScopeDistrict, resp.Scope)
	require.Equal(t, "Empty", resp.District)
	require.NotNil(t, resp.Stats)
	require.Zero(t, resp.Stats.TotalFeedbackOverall)
}

func TestReadyCheck(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		router := newTestRouter(&fakeReports{}, &fakeStats{}, &fakeSubmitter{}, &fakeProbe{})
		w := performJSON(t, router, http.MethodGet, "/ready", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		probe := &fakeProbe{pingErr: errors.New("connection refused")}
		router := newTestRouter(&fakeReports{}, &fakeStats{}, &fakeSubmitter{}, probe)
		w := performJSON(t, router, http.MethodGet, "/ready", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("analysis backend down", func(t *testing.T) {
		probe := &fakeProbe{healthErr: errors.New("model loading")}
		router := newTestRouter(&fakeReports{}, &fakeStats{}, &fakeSubmitter{}, probe)
		w := performJSON(t, router, http.MethodGet, "/ready", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestProcessingStatus(t *testing.T) {
	reports := &fakeReports{status: &database.ProcessingStatus{Total: 10, Pending: 3, Processed: 7}}
	router := newTestRouter(reports, &fakeStats{}, &fakeSubmitter{}, &fakeProbe{})

	w := performJSON(t, router, http.MethodGet, "/reports/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp database.ProcessingStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 7, resp.Processed)
}
