package sampler

import (
	"math"
	"strconv"

	"github.com/r3d91ll/spectrafit/pkg/dataset"
	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/likelihood"
	"github.com/r3d91ll/spectrafit/pkg/prior"
)

// LogProb returns the log-posterior of params and the blob to store with it.
//
// The prior is evaluated first. If it is infinite the model is not called and
// the result is (prior, nil). Errors returned by the model are passed through
// unchanged. A prediction whose length differs from the dataset is reported
// as MODEL_SHAPE_MISMATCH; one tagged with a physical type other than the
// dataset flux type as MODEL_TYPE_MISMATCH.
func LogProb(params []float64, d *dataset.Dataset, model Model, pr prior.Func) (float64, Blob, error) {
	lp := prior.Eval(pr, params)
	if math.IsInf(lp, 0) {
		return lp, nil, nil
	}

	out, err := model(params, d)
	if err != nil {
		return 0, nil, err
	}
	if err := checkOutput(out, d); err != nil {
		return 0, nil, err
	}

	return likelihood.LogLikelihood(out.Values, d) + lp, out.blob(), nil
}

// checkOutput reports model output that cannot be compared with d.
func checkOutput(out ModelOutput, d *dataset.Dataset) error {
	if len(out.Values) != d.Len() {
		return ferrors.New(ferrors.ErrModelShapeMismatch, ferrors.CategoryModel,
			"model output does not align with the dataset energies").
			WithContext("values", strconv.Itoa(len(out.Values))).
			WithContext("energies", strconv.Itoa(d.Len()))
	}
	if out.Type != "" && out.Type != d.FluxType {
		return ferrors.New(ferrors.ErrModelTypeMismatch, ferrors.CategoryModel,
			"model output and dataset flux have different physical types").
			WithContext("model", string(out.Type)).
			WithContext("data", string(d.FluxType))
	}
	return nil
}
