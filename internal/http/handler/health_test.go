package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hublabs.dev/tagger/core/config"
	"hublabs.dev/tagger/internal/http/handler"
)

type fakeQueueStats struct {
	depth    int
	capacity int
}

func (f fakeQueueStats) Depth() int    { return f.depth }
func (f fakeQueueStats) Capacity() int { return f.capacity }

var _ = Describe("HealthHandler", func() {
	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
	})

	serve := func(cfg config.Config, stats fakeQueueStats) map[string]any {
		router := gin.New()
		router.GET("/health", handler.NewHealthHandler(cfg, stats).Health)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	It("reports ok when all required credentials are configured", func() {
		cfg := config.Config{
			Webhook:  config.WebhookConfig{Secret: "s"},
			Hub:      config.HubConfig{BaseURL: "https://hub.example", Token: "t"},
			AgentLLM: config.AgentLLMConfig{APIKey: "k", Model: "m"},
		}

		body := serve(cfg, fakeQueueStats{depth: 2, capacity: 64})

		Expect(body["status"]).To(Equal("ok"))
		queue := body["queue"].(map[string]any)
		Expect(queue["depth"]).To(BeEquivalentTo(2))
		Expect(queue["capacity"]).To(BeEquivalentTo(64))
	})

	It("degrades when the webhook secret is missing", func() {
		cfg := config.Config{
			Hub:      config.HubConfig{BaseURL: "https://hub.example", Token: "t"},
			AgentLLM: config.AgentLLMConfig{APIKey: "k", Model: "m"},
		}

		body := serve(cfg, fakeQueueStats{})

		Expect(body["status"]).To(Equal("degraded"))
		checks := body["checks"].(map[string]any)
		Expect(checks["webhook_secret_configured"]).To(BeFalse())
		Expect(checks["hub_token_configured"]).To(BeTrue())
	})

	It("degrades when the agent LLM is not configured", func() {
		cfg := config.Config{
			Webhook: config.WebhookConfig{Secret: "s"},
			Hub:     config.HubConfig{BaseURL: "https://hub.example", Token: "t"},
		}

		body := serve(cfg, fakeQueueStats{})

		Expect(body["status"]).To(Equal("degraded"))
		checks := body["checks"].(map[string]any)
		Expect(checks["agent_llm_configured"]).To(BeFalse())
	})
})
