// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for the verification endpoints

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testBudget = 10 * time.Second

// Handlers accept nil metrics so tests skip Prometheus registration.
func testRouter() *gin.Engine {
	router := gin.New()
	calc := router.Group("/calc")
	calc.POST("/derivative", HandleDerivative(nil, testBudget))
	calc.POST("/integral", HandleIntegral(nil, testBudget))
	calc.POST("/limit", HandleLimit(nil, testBudget))
	calc.POST("/algebra", HandleAlgebra(nil, testBudget))
	calc.POST("/dimensional", HandleDimensional(nil, testBudget))
	calc.POST("/numeric-probe", HandleNumericProbe(nil, testBudget))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest("POST", path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func details(t *testing.T, response map[string]any) map[string]any {
	t.Helper()
	d, ok := response["details"].(map[string]any)
	require.True(t, ok, "response missing details object")
	return d
}

// =============================================================================
// Derivative Endpoint
// =============================================================================

func TestHandleDerivative_CorrectAnswer(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/derivative",
		`{"expr": "x^2", "var": "x", "expected": "2*x"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["equivalent"])
	d := details(t, resp)
	assert.Equal(t, true, d["symbolic_match"])
}

func TestHandleDerivative_WrongAnswer(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/derivative",
		`{"expr": "x^2", "var": "x", "expected": "3*x"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["equivalent"])
}

func TestHandleDerivative_MissingField(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/derivative",
		`{"expr": "x^2", "var": "x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp, "error")
}

func TestHandleDerivative_UnsafeInputStillAnswers200(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/derivative",
		`{"expr": "eval('x')", "var": "x", "expected": "1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["equivalent"])
	d := details(t, resp)
	errMsg, ok := d["error"].(string)
	require.True(t, ok)
	assert.Contains(t, errMsg, "unsafe")
}

// =============================================================================
// Integral Endpoint
// =============================================================================

func TestHandleIntegral_ConstantFreeDefault(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/integral",
		`{"expr": "2*x", "var": "x", "expected": "x^2 + 7"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["equivalent"])
	d := details(t, resp)
	assert.Equal(t, true, d["constant_free"])
}

func TestHandleIntegral_ConstantSignificant(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/integral",
		`{"expr": "2*x", "var": "x", "expected": "x^2 + 7", "constant_free": false}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["equivalent"])
}

// =============================================================================
// Limit Endpoint
// =============================================================================

func TestHandleLimit_NumericApproachPoint(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/limit",
		`{"expr": "x^2", "var": "x", "to": 0}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["equivalent"])
	d := details(t, resp)
	assert.Equal(t, true, d["limit_exists"])
	assert.Equal(t, true, d["finite"])
}

func TestHandleLimit_StringApproachPoint(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/limit",
		`{"expr": "1/x", "var": "x", "to": "0", "direction": "right"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["equivalent"])
	d := details(t, resp)
	assert.Equal(t, true, d["limit_exists"])
	assert.Equal(t, false, d["finite"])
	assert.Equal(t, "oo", d["computed"])
}

func TestHandleLimit_InfiniteApproachPoint(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/limit",
		`{"expr": "1/x", "var": "x", "to": "oo"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["equivalent"])
	d := details(t, resp)
	assert.Equal(t, true, d["limit_exists"])
	assert.Equal(t, true, d["finite"])
}

func TestHandleLimit_DefaultDirectionBoth(t *testing.T) {
	router := testRouter()

	_, resp := postJSON(t, router, "/calc/limit",
		`{"expr": "x^2 + 1", "var": "x", "to": 2}`)

	d := details(t, resp)
	assert.Equal(t, "both", d["direction"])
}

func TestHandleLimit_BadDirectionRejected(t *testing.T) {
	router := testRouter()

	w, _ := postJSON(t, router, "/calc/limit",
		`{"expr": "x", "var": "x", "to": 0, "direction": "sideways"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Algebra Endpoint
// =============================================================================

func TestHandleAlgebra_Identity(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/algebra",
		`{"lhs": "sin(x)^2 + cos(x)^2", "rhs": "1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["equivalent"])
}

func TestHandleAlgebra_NotEquivalent(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/algebra",
		`{"lhs": "x + 1", "rhs": "x + 2"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["equivalent"])
}

// =============================================================================
// Dimensional Endpoint
// =============================================================================

func TestHandleDimensional_UnitsPresent(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/dimensional",
		`{"expr": "9.8*m/s^2", "expected_unit": "m/s^2"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["equivalent"])
	d := details(t, resp)
	assert.Equal(t, true, d["has_units"])
}

// =============================================================================
// Numeric Probe Endpoint
// =============================================================================

func TestHandleNumericProbe_Constant(t *testing.T) {
	router := testRouter()

	w, resp := postJSON(t, router, "/calc/numeric-probe",
		`{"expr": "2 + 3*4"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["valid"])
	d := details(t, resp)
	assert.Equal(t, 14.0, d["constant_value"])
}

func TestHandleNumericProbe_CustomPointCount(t *testing.T) {
	router := testRouter()

	_, resp := postJSON(t, router, "/calc/numeric-probe",
		`{"expr": "x^2 + 1", "num_points": 12}`)

	assert.Equal(t, true, resp["valid"])
	d := details(t, resp)
	assert.Equal(t, 12.0, d["points_tested"])
}

func TestHandleNumericProbe_MissingExpr(t *testing.T) {
	router := testRouter()

	w, _ := postJSON(t, router, "/calc/numeric-probe", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Budget Enforcement
// =============================================================================

func TestRunWithBudget_CompletesInTime(t *testing.T) {
	res, timedOut := runWithBudget(time.Second, "late", func() string {
		return "done"
	})
	assert.False(t, timedOut)
	assert.Equal(t, "done", res)
}

func TestRunWithBudget_Expires(t *testing.T) {
	res, timedOut := runWithBudget(10*time.Millisecond, "late", func() string {
		time.Sleep(500 * time.Millisecond)
		return "done"
	})
	assert.True(t, timedOut)
	assert.Equal(t, "late", res)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "unsafe_input", rejectionReason("unsafe function detected: eval"))
	assert.Equal(t, "unsafe_input", rejectionReason("unsafe symbol pattern"))
	assert.Equal(t, "computation", rejectionReason("internal computation fault: boom"))
	assert.Equal(t, "parse_error", rejectionReason("cannot parse expression"))
}
