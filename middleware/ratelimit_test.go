// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rps float64, burst int) *gin.Engine {
	router := gin.New()
	router.Use(NewRateLimiter(rps, burst).Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func ping(router *gin.Engine, remoteAddr string) int {
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	router := limitedRouter(1, 3)
	for i := 0; i < 3; i++ {
		if code := ping(router, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, code)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	router := limitedRouter(1, 2)
	ping(router, "10.0.0.1:1234")
	ping(router, "10.0.0.1:1234")

	if code := ping(router, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", code)
	}
}

func TestRateLimiter_TracksClientsIndependently(t *testing.T) {
	router := limitedRouter(1, 1)
	if code := ping(router, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client = %d, want 200", code)
	}
	if code := ping(router, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("second client = %d, want 200; limits must be per client", code)
	}
}

func TestRateLimiter_SweepIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")

	if removed := rl.SweepIdle(time.Now()); removed != 0 {
		t.Fatalf("removed %d fresh entries, want 0", removed)
	}
	if removed := rl.SweepIdle(time.Now().Add(limiterIdleTTL + time.Minute)); removed != 2 {
		t.Fatalf("removed %d stale entries, want 2", removed)
	}
}
