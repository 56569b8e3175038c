package integrationtests

import (
	auction "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/database"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/services/auction/helpers"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testEnv is a router over a real service plus the users registered for the test
type testEnv struct {
	router *gin.Engine
	svc    *auction.AuctionService
	users  map[string]string // username -> user ID
}

// SetupTestRouter initializes the router with an in-memory repository for integration testing.
func SetupTestRouter(t *testing.T, usernames ...string) *testEnv {
	t.Helper()
	return newTestEnv(t, repository.NewMemoryRepo(), usernames...)
}

// SetupSQLiteRouter initializes the router over a SQLite file in the test's temp dir.
func SetupSQLiteRouter(t *testing.T, usernames ...string) *testEnv {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "auctions.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	return newTestEnv(t, repository.NewGormRepo(db), usernames...)
}

func newTestEnv(t *testing.T, repo repository.AuctionDB, usernames ...string) *testEnv {
	gin.SetMode(gin.TestMode)
	svc := auction.NewAuctionService(repo)

	env := &testEnv{
		router: server.SetupRouter(svc, server.RouterConfig{}),
		svc:    svc,
		users:  map[string]string{},
	}
	for _, name := range usernames {
		u, err := svc.CreateUser(context.Background(), name, name+"@example.com", "password-"+name)
		require.NoError(t, err)
		env.users[name] = u.UserID
	}
	return env
}

// ExecuteRequestAndParse executes an HTTP request as the named user ("" for anonymous) and parses the response envelope
func (e *testEnv) ExecuteRequestAndParse(t *testing.T, method, url, asUser string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		req.Header.Set(helpers.UserIDHeader, e.users[asUser])
	}
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}
