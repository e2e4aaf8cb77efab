package model

// FeatureVector is a flat mapping from feature name to numeric value.
// A name absent from the map is the explicit "unset" sentinel: the backend
// imputes missing features from training-set means, so an unset field must
// never be coerced to 0 or NaN before submission.
type FeatureVector map[string]float64

// Get returns the value for name and whether it is set.
func (v FeatureVector) Get(name string) (float64, bool) {
	val, ok := v[name]
	return val, ok
}

// Clone returns an independent copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
