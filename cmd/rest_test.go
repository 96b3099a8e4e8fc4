package cmd

import (
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeUntilSignal_CleansUpBeforeReturning(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	stop := make(chan os.Signal, 1)
	var cleaned atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- serveUntilSignal(app, ln, stop, func() {
			time.Sleep(20 * time.Millisecond)
			cleaned.Store(true)
		})
	}()

	client := &http.Client{
		Timeout:   200 * time.Millisecond,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	stop <- syscall.SIGTERM

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.True(t, cleaned.Load(), "cleanup finished before serve returned")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
