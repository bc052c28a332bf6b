package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hublabs.dev/tagger/internal/http/handler"
)

var _ = Describe("SimulateHandler", func() {
	var (
		router  *gin.Engine
		enqueue *fakeEnqueuer
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		enqueue = &fakeEnqueuer{}

		router = gin.New()
		router.POST("/simulate", handler.NewSimulateHandler(enqueue).Simulate)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("synthesizes an accepted event from the request", func() {
		w := post(`{"repo_name": "org/model", "comment_content": "tags: pytorch"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(enqueue.events).To(HaveLen(1))

		event := enqueue.events[0]
		Expect(event.Accepted()).To(BeTrue())
		Expect(event.Repo.Name).To(Equal("org/model"))
		Expect(event.Comment.Author.ID).To(Equal("simulator"))
	})

	It("requires a repo name", func() {
		w := post(`{"comment_content": "tags: pytorch"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(enqueue.events).To(BeEmpty())
	})
})
