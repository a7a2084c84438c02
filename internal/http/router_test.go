package http

import (
	"net/http"
	"testing"
	"time"

	"bookswap/internal/auth"
	"bookswap/internal/http/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	router    http.Handler
	books     *mocks.MockBookService
	exchanges *mocks.MockExchangeService
	users     *mocks.MockUserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	books := mocks.NewMockBookService(ctrl)
	exchanges := mocks.NewMockExchangeService(ctrl)
	users := mocks.NewMockUserService(ctrl)

	router := NewRouter(RouterConfig{
		JWTSecret: testSecret,
		Books:     NewBookHandler(books, exchanges),
		Exchanges: NewExchangeHandler(exchanges),
		Users:     NewUserHandler(users, testSecret),
	})

	return &testEnv{router: router, books: books, exchanges: exchanges, users: users}
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, "USER", time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}
