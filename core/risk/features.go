package risk

import (
	"github.com/learnpulse/backend/core/student"
)

// DefaultAvgInternal is the per-mark internal average assumed when a mark
// record carries no avg_internal value. It is also the avg_internal feature
// when a student has no marks at all.
const DefaultAvgInternal = 25.0

// Feature vector indices.
const (
	ftGPA = iota
	ftAttendance
	ftAvgInternal
	ftUPCDays
	ftHasUPC
	numFeatures
)

// FeatureVector is the fixed model input:
// [gpa, attendance, avg_internal, upc_days, has_upc].
type FeatureVector [numFeatures]float64

// ExtractFeatures engineers the model features from a student's raw records.
// It is total: missing mark fields fall back to defaults and the result never
// contains NaN, however sparse the marks are.
func ExtractFeatures(gpa, attendance float64, marks []student.Mark) FeatureVector {
	fv := FeatureVector{
		ftGPA:         gpa,
		ftAttendance:  attendance,
		ftAvgInternal: DefaultAvgInternal,
	}
	if len(marks) == 0 {
		return fv
	}

	var internalSum float64
	var upcSum float64
	var upcCount int
	for _, m := range marks {
		if m.AvgInternal.Valid {
			internalSum += m.AvgInternal.Float64
		} else {
			internalSum += DefaultAvgInternal
		}
		if m.HasUPC {
			upcCount++
			if m.UPCDays.Valid {
				upcSum += m.UPCDays.Float64
			}
		}
	}
	fv[ftAvgInternal] = internalSum / float64(len(marks))
	if upcCount > 0 {
		fv[ftHasUPC] = 1
		fv[ftUPCDays] = upcSum / float64(upcCount)
	}
	return fv
}
