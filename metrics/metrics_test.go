// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("POST /events", http.StatusCreated, 15*time.Millisecond)
	m.Observe("POST /events", http.StatusCreated, 5*time.Millisecond)
	m.Observe("POST /events", http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("POST /events", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("POST /events", "400")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := New()
	b := New()
	a.CacheResult("hit")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("hit")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe("GET /health", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "jamhub_http_requests_total"), "missing request counter")
	assert.True(t, strings.Contains(body, "go_goroutines"), "missing go collector")
}
