package risk

import "github.com/pkg/errors"

// ErrModelUnavailable signals that no trained model artifact is present.
// Callers surface it as a service-unavailable condition; the model must be
// trained out-of-band (admin `trainmodel` command).
var ErrModelUnavailable = errors.New("risk model not trained")

// NumClasses is the number of risk classes: 0=LOW, 1=MEDIUM, 2=HIGH.
const NumClasses = 3

type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

var classLevels = [NumClasses]Level{LevelLow, LevelMedium, LevelHigh}

// LevelForClass maps a model class index to its Level.
func LevelForClass(class int) Level {
	return classLevels[class]
}

// Classifier is any trained model that can classify a feature vector into the
// three risk classes. Implementations are swappable; the scoring formula only
// depends on this contract and on the FeatureVector layout.
type Classifier interface {
	// Predict returns the predicted class and the per-class probability
	// distribution (sums to 1).
	Predict(fv FeatureVector) (class int, probs [NumClasses]float64, err error)
}
