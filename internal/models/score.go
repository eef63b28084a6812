package models

// Grade buckets for the total score.
type Grade string

const (
	GradeExcellent Grade = "excellent" // >= 90
	GradeGood      Grade = "good"      // >= 80
	GradePass      Grade = "pass"      // >= 60
	GradeFail      Grade = "fail"      // < 60
)

// ScoreDimension is one of the five scored workflow dimensions, capped at 20.
type ScoreDimension struct {
	Score    int      `json:"score"`
	MaxScore int      `json:"maxScore"`
	Details  []string `json:"details,omitempty"`
}

// ScoreDimensions groups the five dimensions by name.
type ScoreDimensions struct {
	DataEntry      ScoreDimension `json:"dataEntry"`
	DataReview     ScoreDimension `json:"dataReview"`
	Statistics     ScoreDimension `json:"statistics"`
	QualityControl ScoreDimension `json:"qualityControl"`
	Report         ScoreDimension `json:"report"`
}

// Score is the five-dimension performance score, derived fresh from session
// state on every computation.
type Score struct {
	TotalScore  int             `json:"totalScore"`
	Dimensions  ScoreDimensions `json:"dimensions"`
	Grade       Grade           `json:"grade"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// GradeFor maps a total score to its grade bucket.
func GradeFor(total int) Grade {
	switch {
	case total >= 90:
		return GradeExcellent
	case total >= 80:
		return GradeGood
	case total >= 60:
		return GradePass
	default:
		return GradeFail
	}
}
