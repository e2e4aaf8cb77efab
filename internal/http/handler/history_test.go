package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"medrisk.app/console/internal/feed"
	"medrisk.app/console/internal/http/handler"
	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/queue"
)

var _ = Describe("HistoryHandler", func() {
	var (
		router *gin.Engine
		svc    *mockHistoryService
	)

	const subject = "5e0f7c9a-0b1d-4f2e-9c3a-2d4b6e8f0a1c"

	do := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockHistoryService{}
		h := handler.NewHistoryHandler(svc, nil)
		router.GET("/history", h.List)
		router.GET("/history/stats", h.Stats)
		router.DELETE("/history", h.Clear)
	})

	Describe("List", func() {
		It("returns the subject's entries", func() {
			svc.snapshotFn = func(_ context.Context, id string) (model.HistorySnapshot, error) {
				Expect(id).To(Equal(subject))
				return model.HistorySnapshot{
					{ID: 1, SubjectID: subject, Category: "heart", Label: 1, Probability: 0.7, RawInput: model.FeatureVector{"Age": 61}},
				}, nil
			}

			w := do(http.MethodGet, "/history?subject_id="+subject)

			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["count"]).To(Equal(1.0))
			entries := body["entries"].([]any)
			first := entries[0].(map[string]any)
			Expect(first["id"]).To(Equal("1"))
			Expect(first["category"]).To(Equal("heart"))
			Expect(first["features"].(map[string]any)["Age"]).To(Equal(61.0))
		})

		It("returns an empty list, not null, for a fresh subject", func() {
			w := do(http.MethodGet, "/history?subject_id="+subject)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"entries":[]`))
		})

		It("rejects a missing subject id with 400", func() {
			w := do(http.MethodGet, "/history")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Stats", func() {
		It("aggregates counts with category colors", func() {
			svc.snapshotFn = func(_ context.Context, _ string) (model.HistorySnapshot, error) {
				return model.HistorySnapshot{
					{ID: 1, Category: "heart"},
					{ID: 2, Category: "heart"},
					{ID: 3, Category: "kidney"},
				}, nil
			}

			w := do(http.MethodGet, "/history/stats?subject_id="+subject)

			Expect(w.Code).To(Equal(http.StatusOK))
			var body struct {
				Counts []struct {
					Category string `json:"category"`
					Count    int    `json:"count"`
					Color    string `json:"color"`
				} `json:"counts"`
				Total int `json:"total"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Total).To(Equal(3))
			Expect(body.Counts).To(HaveLen(2))
			Expect(body.Counts[0].Category).To(Equal("heart"))
			Expect(body.Counts[0].Count).To(Equal(2))
			Expect(body.Counts[0].Color).To(HavePrefix("#"))
		})

		It("returns zero totals for an empty log", func() {
			w := do(http.MethodGet, "/history/stats?subject_id="+subject)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"counts":[]`))
			Expect(w.Body.String()).To(ContainSubstring(`"total":0`))
		})
	})

	Describe("Clear", func() {
		It("reports how many entries were deleted", func() {
			svc.clearFn = func(_ context.Context, id string) (int, error) {
				Expect(id).To(Equal(subject))
				return 4, nil
			}

			w := do(http.MethodDelete, "/history?subject_id="+subject)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"deleted":4`))
		})

		It("maps a persistence failure to 502", func() {
			svc.clearFn = func(_ context.Context, _ string) (int, error) {
				return 0, &model.PersistenceError{Op: "clear", Err: errors.New("db down")}
			}

			w := do(http.MethodDelete, "/history?subject_id="+subject)

			Expect(w.Code).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("Stream", func() {
		It("emits the current snapshot as the first event", func() {
			lister := &staticLister{snapshot: model.HistorySnapshot{
				{ID: 5, SubjectID: subject, Category: "diabetes", Label: 0, Probability: 0.2},
			}}
			consumer := &idleConsumer{}
			hub := feed.NewHub(lister, consumer)
			hubCtx, stopHub := context.WithCancel(context.Background())
			defer stopHub()
			go hub.Run(hubCtx)

			h := handler.NewHistoryHandler(svc, hub)
			router.GET("/history/stream", h.Stream)
			server := httptest.NewServer(router)
			defer server.Close()

			reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, server.URL+"/history/stream?subject_id="+subject, nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))

			scanner := bufio.NewScanner(resp.Body)
			var event, data string
			for scanner.Scan() {
				line := scanner.Text()
				if strings.HasPrefix(line, "event:") {
					event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
				}
				if strings.HasPrefix(line, "data:") {
					data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
					break
				}
			}
			Expect(event).To(Equal("snapshot"))

			var body map[string]any
			Expect(json.Unmarshal([]byte(data), &body)).To(Succeed())
			Expect(body["count"]).To(Equal(1.0))
			cancel()
		})
	})
})

type staticLister struct {
	snapshot model.HistorySnapshot
}

func (l *staticLister) ListBySubject(_ context.Context, _ string) (model.HistorySnapshot, error) {
	return l.snapshot, nil
}

type idleConsumer struct{}

func (c *idleConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *idleConsumer) Ack(_ context.Context, _ queue.Message) error { return nil }
