package grade

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

type (
	// Grade is a board program (e.g. "7th"), optionally split into subdivisions.
	Grade struct {
		ID             string        `json:"id"`
		GradeName      string        `json:"gradeName"`
		HasSubdivision bool          `json:"hasSubdivision"`
		Subdivisions   []Subdivision `json:"subdivisions,omitempty"`
		CreatedAt      time.Time     `json:"createdAt"` // UTC
	}

	Subdivision struct {
		ID            string      `json:"id"`
		GradeID       string      `json:"gradeId"`
		DivisionName  string      `json:"divisionName"`
		IsLive        bool        `json:"isLive"`
		LiveMeetingID null.String `json:"liveMeetingId"`
	}

	NewGrade struct {
		GradeName string   `json:"gradeName" validate:"required"`
		Divisions []string `json:"divisions"`
	}

	NewSubdivision struct {
		DivisionName string `json:"divisionName" validate:"required"`
	}
)

func (ng *NewGrade) clean() {
	ng.GradeName = core.CleanString(ng.GradeName)
	divisions := make([]string, 0, len(ng.Divisions))
	for _, d := range ng.Divisions {
		if d = core.CleanString(d); d != "" {
			divisions = append(divisions, d)
		}
	}
	ng.Divisions = divisions
}

func gradeFromRow(r store.Row) Grade {
	return Grade{
		ID:             r.String("id"),
		GradeName:      r.String("grade_name"),
		HasSubdivision: r.Bool("has_subdivision"),
		CreatedAt:      r.Time("created_at"),
	}
}

func subdivisionFromRow(r store.Row) Subdivision {
	return Subdivision{
		ID:            r.String("id"),
		GradeID:       r.String("grade_id"),
		DivisionName:  r.String("division_name"),
		IsLive:        r.Bool("is_live"),
		LiveMeetingID: r.NullString("live_meeting_id"),
	}
}

func subdivisionsFromRows(rows []store.Row) []Subdivision {
	subs := make([]Subdivision, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, subdivisionFromRow(r))
	}
	return subs
}

func newSubdivisionRow(gradeID, name string) store.Row {
	return store.Row{
		"grade_id":      gradeID,
		"division_name": name,
		"is_live":       false,
		"created_at":    core.NowFunc(),
	}
}
