//go:build !integration

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServe_Lifecycle(t *testing.T) {
	c := testConfig(t)
	c.Server.Port = getFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runServe(ctx, c, true) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", c.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/api/occupancy-choropleth")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Years []int `json:"years"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, []int{2023}, doc.Years)

	resp, err = http.Get(base + "/api/feature-timeseries?zcta=00601&features=population_25_44")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.JSONEq(t, `{"population_25_44":[{"year":2019,"value":22.5},{"year":2020,"value":23}]}`, string(body))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunServe_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Server.Port = 0

	err := runServe(context.Background(), c, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestRunServe_BadFeaturesFile(t *testing.T) {
	c := testConfig(t)
	c.Data.FeaturesFile = "does-not-exist.yaml"

	err := runServe(context.Background(), c, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load feature definitions")
}

func TestNewServer_Handler(t *testing.T) {
	c := testConfig(t)
	c.Server.Port = 8123

	srv, warm, err := newServer(c)
	require.NoError(t, err)
	assert.Equal(t, ":8123", srv.Addr)
	require.NotNil(t, srv.Handler)
	require.NotNil(t, warm)
	warm(context.Background())
}
