package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clearway-backend/models"
	"clearway-backend/services"
	"clearway-backend/store"
	"clearway-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRouter wires the job routes against a real in-memory store. Each
// request authenticates via the injected role middleware instead of a JWT.
func testRouter(t *testing.T) (*gin.Engine, *store.JobStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger("error", "text")
	jobStore := store.New(store.Deps{Logger: log})
	svc := services.NewJobService(jobStore, nil, nil, log)
	jc := NewJobController(context.Background(), svc, log)

	router := gin.New()
	asRole := func(role models.ActorRole) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("jwt_claims", &models.JWTClaims{UserID: string(role) + "-1", Role: role})
			c.Next()
		}
	}

	jobs := router.Group("/api/v1/jobs")
	jobs.POST("", asRole(models.RoleClient), jc.CreateJob)
	jobs.GET("", jc.GetJobs)
	jobs.GET("/:id", jc.GetJob)
	jobs.POST("/:id/quote", asRole(models.RoleAdmin), jc.ProvideQuote)
	jobs.POST("/:id/quote/approve", asRole(models.RoleClient), jc.ApproveQuote)
	jobs.POST("/:id/payment/deposit", asRole(models.RoleClient), jc.PayDeposit)
	jobs.POST("/:id/dispatch", asRole(models.RoleAdmin), jc.DispatchJob)
	jobs.POST("/:id/cancel", asRole(models.RoleClient), jc.CancelJob)
	jobs.GET("/:id/sla", jc.GetSLAStatus)
	jobs.GET("/:id/report", jc.GetReport)

	// A route with no claims middleware to exercise the 401 path.
	router.POST("/unauthenticated/jobs", jc.CreateJob)

	return router, jobStore
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func createJobHTTP(t *testing.T, router *gin.Engine) string {
	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs", models.CreateJobRequest{
		ClientID:       "client-1",
		ServiceType:    "house-clearance",
		Urgency:        models.UrgencyStandard,
		EstimatedValue: 500,
	})
	data := resp.Data.(map[string]interface{})
	return data["jobID"].(string)
}

func TestCreateJobEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs", models.CreateJobRequest{
		ClientID:       "client-1",
		ServiceType:    "house-clearance",
		Urgency:        models.UrgencyStandard,
		EstimatedValue: 500,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusCreated, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "booking-request", data["status"])
	assert.NotEmpty(t, data["jobID"])
	assert.NotEmpty(t, data["referenceID"])
}

func TestCreateJobValidationEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	// Missing urgency and clientID.
	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs", models.CreateJobRequest{
		ServiceType: "house-clearance",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ValidationError", resp.Error.Type)
	assert.Contains(t, resp.Error.Details, "required")
}

func TestUnauthenticatedRequest(t *testing.T) {
	router, _ := testRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/unauthenticated/jobs", models.CreateJobRequest{
		ClientID:    "client-1",
		ServiceType: "house-clearance",
		Urgency:     models.UrgencyStandard,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AuthenticationError", resp.Error.Type)
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := testRouter(t)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/jobs/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NotFound", resp.Error.Type)
}

func TestInvalidTransitionReturnsConflict(t *testing.T) {
	router, _ := testRouter(t)
	jobID := createJobHTTP(t, router)

	// A fresh booking request cannot be dispatched.
	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/dispatch", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TransitionDenied", resp.Error.Type)
}

func TestUnderpaidDepositReturnsUnprocessable(t *testing.T) {
	router, jobStore := testRouter(t)
	jobID := createJobHTTP(t, router)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/quote", models.ProvideQuoteRequest{
		QuotedAmount:  600,
		DepositAmount: 180,
	})
	require.True(t, resp.Success)
	_, resp = doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/quote/approve", nil)
	require.True(t, resp.Success)
	jobStore.Runner().Drain()

	// Deposit short of the agreed amount leaves payment unsettled.
	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/payment/deposit", models.PaymentRequest{
		Amount: 20,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PaymentRequired", resp.Error.Type)
}

func TestReportBeforeCompletionReturnsUnprocessable(t *testing.T) {
	router, _ := testRouter(t)
	jobID := createJobHTTP(t, router)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/jobs/"+jobID+"/report", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "InvalidState", resp.Error.Type)
}

func TestCancelEndpointAppliesRefundPolicy(t *testing.T) {
	router, jobStore := testRouter(t)
	jobID := createJobHTTP(t, router)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/quote", models.ProvideQuoteRequest{
		QuotedAmount:  600,
		DepositAmount: 180,
	})
	require.True(t, resp.Success)
	_, resp = doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/quote/approve", nil)
	require.True(t, resp.Success)
	jobStore.Runner().Drain()
	_, resp = doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/payment/deposit", models.PaymentRequest{
		Amount: 180,
	})
	require.True(t, resp.Success)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+jobID+"/cancel", models.CancelJobRequest{
		Reason: "client changed plans",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])

	// Cancelling at booking-confirmed refunds the full deposit.
	assert.Equal(t, float64(180), data["refundAmount"])
	assert.Equal(t, "processed", data["refundStatus"])

	cancellation := data["cancellation"].(map[string]interface{})
	assert.Equal(t, "client changed plans", cancellation["reason"])
}

func TestGetSLAStatusEndpoint(t *testing.T) {
	router, _ := testRouter(t)
	jobID := createJobHTTP(t, router)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/jobs/"+jobID+"/sla", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "safe", data["health"])
}

func TestListJobsEndpointFilters(t *testing.T) {
	router, _ := testRouter(t)
	createJobHTTP(t, router)
	createJobHTTP(t, router)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/jobs?clientID=client-1&status=booking-request", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data.([]interface{}), 2)

	_, resp = doJSON(t, router, http.MethodGet, "/api/v1/jobs?clientID=somebody-else", nil)
	assert.Empty(t, resp.Data)
}
