package risk

import (
	"math"

	"github.com/learnpulse/backend/core/student"
)

// Class-representative risk points blended by probability mass. The blend is
// deliberately independent of which class wins: two students with the same
// argmax class but different probability spreads get different scores.
const (
	lowPoints    = 10
	mediumPoints = 55
	highPoints   = 95
)

// Result is a computed risk assessment. It is never mutated after creation.
type Result struct {
	Score      float64           `json:"risk_score"` // 0-100, 1 decimal
	Level      Level             `json:"risk_level"`
	Confidence float64           `json:"confidence"` // 0-100, 1 decimal
	Factors    map[string]string `json:"factors"`
}

// Scorer turns a student's raw records into a Result using the injected
// classifier. It is pure: identical inputs against a fixed classifier yield
// identical results.
type Scorer struct {
	clf Classifier
}

func NewScorer(clf Classifier) *Scorer {
	return &Scorer{clf: clf}
}

func (s *Scorer) Score(gpa, attendance float64, marks []student.Mark) (Result, error) {
	if s.clf == nil {
		return Result{}, ErrModelUnavailable
	}

	fv := ExtractFeatures(gpa, attendance, marks)
	class, probs, err := s.clf.Predict(fv)
	if err != nil {
		return Result{}, err
	}

	score := round1(probs[0]*lowPoints + probs[1]*mediumPoints + probs[2]*highPoints)
	confidence := round1(maxProb(probs) * 100)

	return Result{
		Score:      score,
		Level:      LevelForClass(class),
		Confidence: confidence,
		Factors:    explainFactors(fv),
	}, nil
}

// explainFactors maps each input dimension to a fixed qualitative banding.
// Bands are strict `<` thresholds, checked low to high.
func explainFactors(fv FeatureVector) map[string]string {
	factors := make(map[string]string, 4)

	switch gpa := fv[ftGPA]; {
	case gpa < 4:
		factors["gpa"] = "Very low GPA (< 4.0)"
	case gpa < 6:
		factors["gpa"] = "Below average GPA (< 6.0)"
	default:
		factors["gpa"] = "Satisfactory GPA"
	}

	switch att := fv[ftAttendance]; {
	case att < 50:
		factors["attendance"] = "Critical attendance (< 50%)"
	case att < 75:
		factors["attendance"] = "Low attendance (< 75%)"
	default:
		factors["attendance"] = "Good attendance"
	}

	switch avgPct := fv[ftAvgInternal] / student.DefaultMaxMarks * 100; {
	case avgPct < 40:
		factors["marks"] = "Very low internal marks (< 40%)"
	case avgPct < 60:
		factors["marks"] = "Below average marks (< 60%)"
	default:
		factors["marks"] = "Satisfactory marks"
	}

	if fv[ftHasUPC] == 1 {
		if upcPct := fv[ftUPCDays] / 10 * 100; upcPct < 50 {
			factors["upc"] = "High UPC days missed"
		} else {
			factors["upc"] = "Moderate UPC attendance"
		}
	}
	return factors
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func maxProb(probs [NumClasses]float64) float64 {
	max := probs[0]
	for _, p := range probs[1:] {
		if p > max {
			max = p
		}
	}
	return max
}
