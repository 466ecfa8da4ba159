package request_models

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var errInvalidMetrics = errors.New("invalid metrics")

type ObservationForm struct {
	Age    string `form:"age"`
	Height string `form:"height"`
	Weight string `form:"weight"`
}

// Parse converts the form strings: age is an integer, height (cm) and weight (kg) are floats,
// all strictly positive.
func (f ObservationForm) Parse() (age int, height, weight float64, err error) {
	age, err = strconv.Atoi(strings.TrimSpace(f.Age))
	if err != nil || age <= 0 {
		return 0, 0, 0, errInvalidMetrics
	}
	height, err = strconv.ParseFloat(strings.TrimSpace(f.Height), 64)
	if err != nil || height <= 0 {
		return 0, 0, 0, errInvalidMetrics
	}
	weight, err = strconv.ParseFloat(strings.TrimSpace(f.Weight), 64)
	if err != nil || weight <= 0 {
		return 0, 0, 0, errInvalidMetrics
	}
	return age, height, weight, nil
}

// SubmitObservation carries a parsed dashboard submission into the observation service.
type SubmitObservation struct {
	AccountID uuid.UUID
	Gender    string
	Age       int
	Height    float64
	Weight    float64
	FileName  string
	Image     io.Reader
}

// BodyMetrics is the user context sent to the analyzer alongside the image.
type BodyMetrics struct {
	Age    int
	Height float64
	Weight float64
	Gender string
	BMI    float64
}
