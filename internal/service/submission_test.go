package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"medrisk.app/console/common/id"
	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/queue"
	"medrisk.app/console/internal/service"
)

var _ = Describe("SubmissionService", func() {
	var (
		svc       service.SubmissionService
		predictor *mockPredictor
		history   *mockHistoryStore
		producer  *mockProducer
		ctx       context.Context
		params    service.SubmissionParams
	)

	BeforeEach(func() {
		ctx = context.Background()
		predictor = &mockPredictor{}
		history = &mockHistoryStore{}
		producer = &mockProducer{}

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		params = service.SubmissionParams{
			SubjectID: "5e0f7c9a-0b1d-4f2e-9c3a-2d4b6e8f0a1c",
			Category:  "diabetes",
			Vector:    model.FeatureVector{"Glucose": 140, "Age": 52},
		}

		svc = service.NewSubmissionService(predictor, history, producer)
	})

	Context("when both calls succeed", func() {
		BeforeEach(func() {
			predictor.predictFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Classification, error) {
				return &model.Classification{Label: 1, Probability: 0.87}, nil
			}
			predictor.explainFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Explanation, error) {
				return &model.Explanation{
					Positive: []model.Contribution{{Feature: "Glucose", Weight: 0.4}},
					Negative: []model.Contribution{{Feature: "Age", Weight: -0.1}},
				}, nil
			}
		})

		It("returns both outcomes and persists one entry", func() {
			result := svc.Submit(ctx, params)

			Expect(result.Classification.OK()).To(BeTrue())
			Expect(result.Classification.Result.Probability).To(Equal(0.87))
			Expect(result.Explanation.OK()).To(BeTrue())
			Expect(result.Explanation.Result.Positive).To(HaveLen(1))
			Expect(result.SubmissionID).NotTo(BeZero())

			appended := history.appendedEntries()
			Expect(appended).To(HaveLen(1))
			Expect(result.EntryID).NotTo(BeNil())
			Expect(*result.EntryID).To(Equal(appended[0].ID))
			Expect(appended[0].SubjectID).To(Equal(params.SubjectID))
			Expect(appended[0].Category).To(Equal("diabetes"))
			Expect(appended[0].Label).To(Equal(1))
			Expect(appended[0].Probability).To(Equal(0.87))
			Expect(appended[0].RawInput).To(Equal(params.Vector))
		})

		It("publishes one append change carrying the entry id", func() {
			result := svc.Submit(ctx, params)

			published := producer.publishedMessages()
			Expect(published).To(HaveLen(1))
			Expect(published[0].Kind).To(Equal(queue.ChangeAppend))
			Expect(published[0].SubjectID).To(Equal(params.SubjectID))
			Expect(published[0].EntryID).NotTo(BeNil())
			Expect(*published[0].EntryID).To(Equal(*result.EntryID))
		})

		It("stores a copy of the input vector, not the caller's map", func() {
			result := svc.Submit(ctx, params)
			Expect(result.EntryID).NotTo(BeNil())

			params.Vector["Glucose"] = 999
			Expect(history.appendedEntries()[0].RawInput["Glucose"]).To(Equal(140.0))
		})

		It("runs both backend calls concurrently", func() {
			explainStarted := make(chan struct{})
			predictor.predictFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Classification, error) {
				select {
				case <-explainStarted:
					return &model.Classification{Label: 0, Probability: 0.2}, nil
				case <-time.After(2 * time.Second):
					return nil, errors.New("explain call never started")
				}
			}
			predictor.explainFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Explanation, error) {
				close(explainStarted)
				return &model.Explanation{}, nil
			}

			result := svc.Submit(ctx, params)
			Expect(result.Classification.OK()).To(BeTrue())
			Expect(result.Explanation.OK()).To(BeTrue())
		})
	})

	Context("when the classification call fails", func() {
		BeforeEach(func() {
			predictor.predictFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Classification, error) {
				return nil, &model.NetworkError{Op: "predict", Err: errors.New("connection refused")}
			}
			predictor.explainFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Explanation, error) {
				return &model.Explanation{Positive: []model.Contribution{{Feature: "BMI", Weight: 0.3}}}, nil
			}
		})

		It("persists nothing even though the explanation succeeded", func() {
			result := svc.Submit(ctx, params)

			Expect(result.Classification.OK()).To(BeFalse())
			Expect(result.Explanation.OK()).To(BeTrue())
			Expect(result.EntryID).To(BeNil())
			Expect(history.appendedEntries()).To(BeEmpty())
			Expect(producer.publishedMessages()).To(BeEmpty())
		})
	})

	Context("when only the explanation call fails", func() {
		BeforeEach(func() {
			predictor.predictFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Classification, error) {
				return &model.Classification{Label: 1, Probability: 0.91}, nil
			}
			predictor.explainFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Explanation, error) {
				return nil, &model.RemoteError{Op: "explain", Status: 500, Detail: "shap exploded"}
			}
		})

		It("still persists the classification", func() {
			result := svc.Submit(ctx, params)

			Expect(result.Classification.OK()).To(BeTrue())
			Expect(result.Explanation.OK()).To(BeFalse())
			Expect(result.Explanation.Err.Error()).To(Equal("shap exploded"))
			Expect(result.EntryID).NotTo(BeNil())
			Expect(history.appendedEntries()).To(HaveLen(1))
		})
	})

	Context("when the append fails", func() {
		BeforeEach(func() {
			predictor.predictFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Classification, error) {
				return &model.Classification{Label: 1, Probability: 0.75}, nil
			}
			history.appendFn = func(_ context.Context, _ *model.HistoryEntry) error {
				return &model.PersistenceError{Op: "append", Err: errors.New("db down")}
			}
		})

		It("keeps the returned outcomes intact and publishes nothing", func() {
			result := svc.Submit(ctx, params)

			Expect(result.Classification.OK()).To(BeTrue())
			Expect(result.Classification.Result.Probability).To(Equal(0.75))
			Expect(result.Explanation.OK()).To(BeTrue())
			Expect(result.EntryID).To(BeNil())
			Expect(producer.publishedMessages()).To(BeEmpty())
		})
	})

	Context("when publishing the change fails", func() {
		BeforeEach(func() {
			producer.publishFn = func(_ context.Context, _ queue.ChangeMessage) error {
				return errors.New("redis down")
			}
		})

		It("does not affect the result or the persisted entry", func() {
			result := svc.Submit(ctx, params)

			Expect(result.Classification.OK()).To(BeTrue())
			Expect(result.EntryID).NotTo(BeNil())
			Expect(history.appendedEntries()).To(HaveLen(1))
		})
	})

	It("assigns increasing submission ids", func() {
		first := svc.Submit(ctx, params)
		second := svc.Submit(ctx, params)
		Expect(second.SubmissionID).To(BeNumerically(">", first.SubmissionID))
	})

	It("persists one entry per overlapping successful submission", func() {
		predictor.predictFn = func(_ context.Context, _ string, _ model.FeatureVector) (*model.Classification, error) {
			return &model.Classification{Label: 1, Probability: 0.6}, nil
		}
		heart := service.SubmissionParams{
			SubjectID: params.SubjectID,
			Category:  "heart",
			Vector:    model.FeatureVector{"Age": 61},
		}

		results := make([]model.SubmissionResult, 2)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = svc.Submit(ctx, heart)
			}(i)
		}
		wg.Wait()

		for _, res := range results {
			Expect(res.Classification.OK()).To(BeTrue())
			Expect(res.EntryID).NotTo(BeNil())
		}

		appended := history.appendedEntries()
		Expect(appended).To(HaveLen(2))
		Expect(appended[0].ID).NotTo(Equal(appended[1].ID))

		snapshot := model.HistorySnapshot{}
		for _, entry := range appended {
			snapshot = append(snapshot, *entry)
		}
		Expect(service.Aggregate(snapshot)).To(Equal(model.AggregateCounts{"heart": 2}))
	})
})
