package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hublabs.dev/tagger/common/id"
	"hublabs.dev/tagger/internal/domain"
	"hublabs.dev/tagger/internal/http/dto"
	"hublabs.dev/tagger/internal/http/handler"
	"hublabs.dev/tagger/internal/ledger"
)

var _ = Describe("OperationsHandler", func() {
	var (
		router *gin.Engine
		book   *ledger.Ledger
	)

	appendRecord := func(repo string, status domain.OperationStatus) domain.OperationRecord {
		rec := domain.NewOperationRecord(id.New(), domain.InboundEvent{
			Repo: domain.Repo{Name: repo},
		})
		rec.Status = status
		book.Append(rec)
		return rec
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		book = ledger.New(100)

		router = gin.New()
		h := handler.NewOperationsHandler(book, nil, 3)
		router.GET("/operations", h.List)
		router.GET("/operations/history", h.History)
		router.GET("/operations/:id", h.GetByID)
	})

	It("lists the most recent window of records", func() {
		for i := 0; i < 5; i++ {
			appendRecord(fmt.Sprintf("org/model-%d", i), domain.StatusCompleted)
		}

		req := httptest.NewRequest(http.MethodGet, "/operations", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))

		var resp dto.OperationsResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Count).To(Equal(5))
		Expect(resp.Window).To(Equal(3))
		Expect(resp.Operations).To(HaveLen(3))
		Expect(resp.Operations[len(resp.Operations)-1].RepoName).To(Equal("org/model-4"))
	})

	It("returns an empty window for an empty ledger", func() {
		req := httptest.NewRequest(http.MethodGet, "/operations", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))

		var resp dto.OperationsResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Count).To(BeZero())
		Expect(resp.Operations).To(BeEmpty())
	})

	It("returns a single record by id", func() {
		rec := appendRecord("org/model", domain.StatusNoTags)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/operations/%d", rec.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))

		var got domain.OperationRecord
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.ID).To(Equal(rec.ID))
		Expect(got.Status).To(Equal(domain.StatusNoTags))
	})

	It("returns 404 for an unknown id", func() {
		req := httptest.NewRequest(http.MethodGet, "/operations/123456", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 400 for a non-numeric id", func() {
		req := httptest.NewRequest(http.MethodGet, "/operations/latest", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for history when no store is configured", func() {
		req := httptest.NewRequest(http.MethodGet, "/operations/history", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})

type fakeHistory struct {
	records []domain.OperationRecord
	err     error
	limit   int32
}

func (f *fakeHistory) ListRecent(ctx context.Context, limit int32) ([]domain.OperationRecord, error) {
	f.limit = limit
	return f.records, f.err
}

var _ = Describe("OperationsHandler history", func() {
	var (
		router  *gin.Engine
		history *fakeHistory
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		history = &fakeHistory{}

		router = gin.New()
		h := handler.NewOperationsHandler(ledger.New(100), history, 25)
		router.GET("/operations/history", h.History)
	})

	It("serves durable records beyond the ledger window", func() {
		history.records = []domain.OperationRecord{
			{ID: 1, RepoName: "org/old-model", Status: domain.StatusCompleted},
			{ID: 2, RepoName: "org/model", Status: domain.StatusNoTags},
		}

		req := httptest.NewRequest(http.MethodGet, "/operations/history", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(history.limit).To(BeEquivalentTo(25))

		var resp dto.OperationsResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Operations).To(HaveLen(2))
		Expect(resp.Operations[0].RepoName).To(Equal("org/old-model"))
	})

	It("returns 503 when the store is unreachable", func() {
		history.err = fmt.Errorf("connection refused")

		req := httptest.NewRequest(http.MethodGet, "/operations/history", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})
})
