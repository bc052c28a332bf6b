package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hublabs.dev/tagger/core/config"
	"hublabs.dev/tagger/internal/domain"
	"hublabs.dev/tagger/internal/http/middleware"
	"hublabs.dev/tagger/internal/http/router"
	"hublabs.dev/tagger/internal/ledger"
	"hublabs.dev/tagger/internal/scheduler"
	"hublabs.dev/tagger/internal/worker"
)

type recordingAgent struct {
	mu    sync.Mutex
	calls []string
}

func (a *recordingAgent) ProcessTag(ctx context.Context, repoName, tag string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, tag)
	return fmt.Sprintf("Tag %q added to %s.", tag, repoName), nil
}

func (a *recordingAgent) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Drives real deliveries through the full pipeline: auth middleware,
// classification, the worker pool, the agent adapter and the ledger.
var _ = Describe("Pipeline", func() {
	const secret = "hub-secret"

	var (
		engine *gin.Engine
		book   *ledger.Ledger
		pool   *scheduler.Scheduler
		agent  *recordingAgent
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)

		cfg := config.Config{
			Webhook: config.WebhookConfig{Secret: secret},
			Ledger:  config.LedgerConfig{MaxRecords: 100, WindowSize: 50},
		}

		book = ledger.New(cfg.Ledger.MaxRecords)
		agent = &recordingAgent{}
		processor := worker.NewProcessor(book, agent)

		pool = scheduler.New(processor, scheduler.Config{Workers: 2, QueueDepth: 16})
		pool.Start(context.Background())
		DeferCleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			Expect(pool.Stop(ctx)).To(Succeed())
		})

		engine = gin.New()
		router.SetupRoutes(engine, router.Deps{
			Config:    cfg,
			Ledger:    book,
			Scheduler: pool,
		})
	})

	deliver := func(content string, headers map[string]string) *httptest.ResponseRecorder {
		payload, err := json.Marshal(map[string]any{
			"action": "create",
			"scope":  "discussion.comment",
			"comment": map[string]any{
				"content": content,
				"author":  map[string]any{"id": "user-9"},
			},
			"discussion": map[string]any{"title": "Model format question", "num": 3},
			"repo":       map[string]any{"name": "org/model"},
		})
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	latestRecord := func() (domain.OperationRecord, bool) {
		snap := book.Snapshot(1)
		if len(snap) == 0 {
			return domain.OperationRecord{}, false
		}
		return snap[0], true
	}

	It("processes a tag directive comment through to completion", func() {
		w := deliver("This model needs tags: pytorch, transformers",
			map[string]string{middleware.SecretHeader: secret})
		Expect(w.Code).To(Equal(http.StatusOK))

		Eventually(func() domain.OperationStatus {
			rec, ok := latestRecord()
			if !ok {
				return ""
			}
			return rec.Status
		}, 3*time.Second, 10*time.Millisecond).Should(Equal(domain.StatusCompleted))

		rec, _ := latestRecord()
		Expect(rec.ExtractedTags).To(ConsistOf("pytorch", "transformers"))
		Expect(rec.TagResults).To(HaveLen(2))
		for _, result := range rec.TagResults {
			Expect(result.Error).To(BeEmpty())
		}
		Expect(agent.Calls()).To(ConsistOf("pytorch", "transformers"))
	})

	It("ends in no_tags for a comment with nothing to extract", func() {
		w := deliver("looks good, thanks!",
			map[string]string{middleware.SecretHeader: secret})
		Expect(w.Code).To(Equal(http.StatusOK))

		Eventually(func() domain.OperationStatus {
			rec, ok := latestRecord()
			if !ok {
				return ""
			}
			return rec.Status
		}, 3*time.Second, 10*time.Millisecond).Should(Equal(domain.StatusNoTags))

		Expect(agent.Calls()).To(BeEmpty())
	})

	It("leaves no record for an unauthenticated delivery", func() {
		w := deliver("needs tags: pytorch",
			map[string]string{middleware.SecretHeader: "wrong"})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		Consistently(book.Len, 200*time.Millisecond, 20*time.Millisecond).Should(BeZero())
	})

	It("exposes the completed record on /operations", func() {
		deliver("tags: onnx", map[string]string{middleware.SecretHeader: secret})

		Eventually(func() int {
			return book.Len()
		}, 3*time.Second, 10*time.Millisecond).Should(Equal(1))

		Eventually(func() string {
			req := httptest.NewRequest(http.MethodGet, "/operations", nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			return w.Body.String()
		}, 3*time.Second, 10*time.Millisecond).Should(And(
			ContainSubstring(`"repo_name":"org/model"`),
			ContainSubstring(`"status":"completed"`),
			ContainSubstring(`"onnx"`),
		))
	})
})
