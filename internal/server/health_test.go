package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error {
	return f.err
}

type fakeBucketChecker struct {
	exists bool
	err    error
}

func (f *fakeBucketChecker) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func newHealthRouter(db dbPinger, store bucketChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerHealthRoutes(router, db, store, "labvault")
	return router
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestLivenessAlwaysOK(t *testing.T) {
	router := newHealthRouter(&fakePinger{err: errors.New("down")}, &fakeBucketChecker{})

	rr := getPath(router, "/health/live")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestReadinessOK(t *testing.T) {
	router := newHealthRouter(&fakePinger{}, &fakeBucketChecker{exists: true})

	rr := getPath(router, "/health/ready")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok"`)
}

func TestReadinessReportsPostgresDown(t *testing.T) {
	router := newHealthRouter(&fakePinger{err: errors.New("connection refused")}, &fakeBucketChecker{exists: true})

	rr := getPath(router, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"postgres"`)
}

func TestReadinessReportsMissingBucket(t *testing.T) {
	router := newHealthRouter(&fakePinger{}, &fakeBucketChecker{exists: false})

	rr := getPath(router, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"minio"`)
	assert.Contains(t, rr.Body.String(), "labvault")
}

func TestReadinessReportsBucketCheckError(t *testing.T) {
	router := newHealthRouter(&fakePinger{}, &fakeBucketChecker{err: errors.New("minio unreachable")})

	rr := getPath(router, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"minio"`)
}
