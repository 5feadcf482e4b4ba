package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnpulse/backend/core/student"
)

func mark(avgInternal *float64, hasUPC bool, upcDays *float64) student.Mark {
	m := student.Mark{Subject: "Math", Marks: 30, MaxMarks: student.DefaultMaxMarks, HasUPC: hasUPC}
	if avgInternal != nil {
		m.AvgInternal.SetValid(*avgInternal)
	}
	if upcDays != nil {
		m.UPCDays.SetValid(*upcDays)
	}
	return m
}

func fPtr(f float64) *float64 { return &f }

func TestExtractFeatures(t *testing.T) {
	tests := []struct {
		name       string
		gpa        float64
		attendance float64
		marks      []student.Mark
		want       FeatureVector
	}{
		{
			name: "no marks falls back to defaults",
			gpa:  3.5, attendance: 40,
			want: FeatureVector{3.5, 40, 25.0, 0, 0},
		},
		{
			name: "avg internal over all marks",
			gpa:  7, attendance: 90,
			marks: []student.Mark{
				mark(fPtr(40), false, nil),
				mark(fPtr(20), false, nil),
			},
			want: FeatureVector{7, 90, 30, 0, 0},
		},
		{
			name: "missing avg internal defaults per mark",
			gpa:  7, attendance: 90,
			marks: []student.Mark{
				mark(fPtr(35), false, nil),
				mark(nil, false, nil),
			},
			want: FeatureVector{7, 90, 30, 0, 0},
		},
		{
			name: "upc days averaged over flagged marks only",
			gpa:  5, attendance: 60,
			marks: []student.Mark{
				mark(fPtr(25), true, fPtr(4)),
				mark(fPtr(25), true, fPtr(2)),
				mark(fPtr(25), false, fPtr(9)), // not flagged: days ignored
			},
			want: FeatureVector{5, 60, 25, 3, 1},
		},
		{
			name: "unflagged upc days never leak",
			gpa:  5, attendance: 60,
			marks: []student.Mark{
				mark(fPtr(25), false, fPtr(7)),
			},
			want: FeatureVector{5, 60, 25, 0, 0},
		},
		{
			name: "flagged mark without day count counts as zero days",
			gpa:  5, attendance: 60,
			marks: []student.Mark{
				mark(fPtr(25), true, nil),
				mark(fPtr(25), true, fPtr(6)),
			},
			want: FeatureVector{5, 60, 25, 3, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFeatures(tt.gpa, tt.attendance, tt.marks)
			assert.Equal(t, tt.want, got)
		})
	}
}
