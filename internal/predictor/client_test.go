package predictor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/predictor"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	newClient := func() predictor.Client {
		return predictor.New(predictor.Config{BaseURL: server.URL})
	}

	Describe("Predict", func() {
		It("posts the vector and decodes the classification", func() {
			var gotPath string
			var gotBody map[string]float64

			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]any{
					"prediction":              1,
					"probability_has_disease": 0.83,
				})
			}))

			cls, err := newClient().Predict(ctx, "heart", model.FeatureVector{"Age": 61, "Sex": 1})

			Expect(err).NotTo(HaveOccurred())
			Expect(cls.Label).To(Equal(1))
			Expect(cls.Probability).To(Equal(0.83))
			Expect(gotPath).To(Equal("/predict/heart"))
			Expect(gotBody).To(Equal(map[string]float64{"Age": 61, "Sex": 1}))
		})

		It("omits unset features from the request body", func() {
			var gotBody map[string]float64

			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]any{"prediction": 0, "probability_has_disease": 0.1})
			}))

			_, err := newClient().Predict(ctx, "diabetes", model.FeatureVector{"Glucose": 120})

			Expect(err).NotTo(HaveOccurred())
			Expect(gotBody).To(HaveKey("Glucose"))
			Expect(gotBody).NotTo(HaveKey("Age"))
		})

		It("returns a remote error carrying the backend's detail", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"detail": "model not loaded"})
			}))

			_, err := newClient().Predict(ctx, "heart", model.FeatureVector{})

			var remoteErr *model.RemoteError
			Expect(errors.As(err, &remoteErr)).To(BeTrue())
			Expect(remoteErr.Status).To(Equal(http.StatusBadRequest))
			Expect(remoteErr.Error()).To(Equal("model not loaded"))
		})

		It("returns a remote error on an undecodable success body", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))

			_, err := newClient().Predict(ctx, "heart", model.FeatureVector{})

			var remoteErr *model.RemoteError
			Expect(errors.As(err, &remoteErr)).To(BeTrue())
		})

		It("returns a network error when the backend is unreachable", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			server.Close()

			_, err := newClient().Predict(ctx, "heart", model.FeatureVector{})

			var netErr *model.NetworkError
			Expect(errors.As(err, &netErr)).To(BeTrue())
			server = nil
		})
	})

	Describe("Explain", func() {
		It("decodes both contribution buckets", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/explain/kidney"))
				json.NewEncoder(w).Encode(map[string]any{
					"positive_features": []map[string]any{
						{"feature_name": "Serum_Creatinine_mgs_dL", "shap_value": 0.52},
					},
					"negative_features": []map[string]any{
						{"feature_name": "Hemoglobin_gms", "shap_value": -0.17},
					},
				})
			}))

			exp, err := newClient().Explain(ctx, "kidney", model.FeatureVector{})

			Expect(err).NotTo(HaveOccurred())
			Expect(exp.Positive).To(Equal([]model.Contribution{{Feature: "Serum_Creatinine_mgs_dL", Weight: 0.52}}))
			Expect(exp.Negative).To(Equal([]model.Contribution{{Feature: "Hemoglobin_gms", Weight: -0.17}}))
		})

		It("keeps its failures separate from classification", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/predict/heart" {
					json.NewEncoder(w).Encode(map[string]any{"prediction": 1, "probability_has_disease": 0.9})
					return
				}
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"detail": "shap failure"})
			}))

			client := newClient()
			cls, predictErr := client.Predict(ctx, "heart", model.FeatureVector{})
			_, explainErr := client.Explain(ctx, "heart", model.FeatureVector{})

			Expect(predictErr).NotTo(HaveOccurred())
			Expect(cls.Label).To(Equal(1))
			Expect(explainErr).To(HaveOccurred())
		})
	})
})
