package dto

import (
	"errors"
	"strconv"

	"medrisk.app/console/internal/model"
)

type SubmitRequest struct {
	SubjectID string              `json:"subject_id" binding:"required,uuid"`
	Features  map[string]*float64 `json:"features" binding:"required"`
}

type ClassificationResult struct {
	Label       int     `json:"prediction"`
	Probability float64 `json:"probability_has_disease"`
}

type ContributionResponse struct {
	FeatureName string  `json:"feature_name"`
	ShapValue   float64 `json:"shap_value"`
}

type ExplanationResult struct {
	PositiveFeatures []ContributionResponse `json:"positive_features"`
	NegativeFeatures []ContributionResponse `json:"negative_features"`
}

// OutcomeError is the wire form of a failed backend call. Kind is "network"
// for transport failures and "remote" for non-2xx responses.
type OutcomeError struct {
	Kind   string `json:"kind"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail"`
}

type ClassificationOutcome struct {
	OK    *ClassificationResult `json:"ok,omitempty"`
	Error *OutcomeError         `json:"error,omitempty"`
}

type ExplanationOutcome struct {
	OK    *ExplanationResult `json:"ok,omitempty"`
	Error *OutcomeError      `json:"error,omitempty"`
}

// SubmissionResponse carries both outcomes independently; one side failing
// never blanks the other. EntryID is set only when the classification was
// persisted.
type SubmissionResponse struct {
	SubmissionID   string                `json:"submission_id"`
	Category       string                `json:"category"`
	Classification ClassificationOutcome `json:"classification"`
	Explanation    ExplanationOutcome    `json:"explanation"`
	EntryID        *string               `json:"entry_id,omitempty"`
}

func ToSubmissionResponse(category string, res model.SubmissionResult) *SubmissionResponse {
	out := &SubmissionResponse{
		SubmissionID: strconv.FormatInt(res.SubmissionID, 10),
		Category:     category,
	}

	if res.Classification.OK() {
		out.Classification.OK = &ClassificationResult{
			Label:       res.Classification.Result.Label,
			Probability: res.Classification.Result.Probability,
		}
	} else {
		out.Classification.Error = toOutcomeError(res.Classification.Err)
	}

	if res.Explanation.OK() {
		out.Explanation.OK = &ExplanationResult{
			PositiveFeatures: toContributions(res.Explanation.Result.Positive),
			NegativeFeatures: toContributions(res.Explanation.Result.Negative),
		}
	} else {
		out.Explanation.Error = toOutcomeError(res.Explanation.Err)
	}

	if res.EntryID != nil {
		id := strconv.FormatInt(*res.EntryID, 10)
		out.EntryID = &id
	}

	return out
}

func toContributions(cs []model.Contribution) []ContributionResponse {
	out := make([]ContributionResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, ContributionResponse{FeatureName: c.Feature, ShapValue: c.Weight})
	}
	return out
}

func toOutcomeError(err error) *OutcomeError {
	var remoteErr *model.RemoteError
	if errors.As(err, &remoteErr) {
		return &OutcomeError{Kind: "remote", Status: remoteErr.Status, Detail: remoteErr.Error()}
	}
	return &OutcomeError{Kind: "network", Detail: err.Error()}
}
