package simulator

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestAdminHandler(t *testing.T) {
	lock, _ := newTestLock(t, func(c *Config) { c.Name = "Front" })
	s := open(lock)
	require.NoError(t, s.Write(gatt.DoorLock.AuthChar, signedToken(t)))
	require.NoError(t, s.Write(gatt.DoorLock.CommandChar, []byte(openCommand)))
	s.Close()

	srv := httptest.NewServer(NewAdminHandler(lock))
	defer srv.Close()

	t.Run("healthz", func(t *testing.T) {
		resp, _ := get(t, srv, "/healthz")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("status", func(t *testing.T) {
		resp, body := get(t, srv, "/status")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var st Status
		require.NoError(t, json.Unmarshal([]byte(body), &st))
		assert.Equal(t, "Front", st.Name)
		assert.Equal(t, 1, st.Unlocks)
		assert.NotNil(t, st.LastUnlock)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, body := get(t, srv, "/metrics")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "smartdoor_sim_unlocks_total 1")
		assert.Contains(t, body, "smartdoor_sim_tokens_accepted_total 1")
		assert.Contains(t, body, "smartdoor_sim_connections 0")
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, _ := get(t, srv, "/nope")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
