package record_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	recordhttp "github.com/davitt-io/granary/internal/http/record"
	"github.com/davitt-io/granary/internal/record"
)

func newTestRouter(t *testing.T) (http.Handler, *record.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := record.NewMockRepository(ctrl)
	handler := recordhttp.NewHandler(record.NewService(repo, record.NewEngine()))

	router := chi.NewRouter()
	router.Route("/records", handler.Routes)

	return router, repo
}

func TestList_StatusAll(t *testing.T) {
	router, repo := newTestRouter(t)

	// "all" means no status filter, like time_range=all.
	repo.EXPECT().
		ListRecords(gomock.Any(), record.ListFilter{}).
		Return(nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records?status=all", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestList_StatusFilter(t *testing.T) {
	router, repo := newTestRouter(t)

	status := record.StatusPending
	repo.EXPECT().
		ListRecords(gomock.Any(), record.ListFilter{Status: &status}).
		Return(nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records?status=pending", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestList_InvalidStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records?status=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
