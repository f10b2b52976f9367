package grade

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

var ErrNotLive = errors.New("no live class is running for this division")

type Service struct {
	store    store.Store
	validate *validator.Validate
	live     core.LiveConfig
}

func NewService(st store.Store, validate *validator.Validate, live core.LiveConfig) *Service {
	return &Service{store: st, validate: validate, live: live}
}

// CreateGrade inserts the grade then its subdivisions. The two inserts are not atomic:
// on a failure of the second, the grade exists without its subdivisions.
func (svc *Service) CreateGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	ng.clean()
	if err := svc.validate.Struct(ng); err != nil {
		return Grade{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Grades, store.Row{
		"grade_name":      ng.GradeName,
		"has_subdivision": len(ng.Divisions) > 0,
		"created_at":      core.NowFunc(),
	})
	if err != nil {
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	grd := gradeFromRow(row)

	if len(ng.Divisions) > 0 {
		subRows := make([]store.Row, 0, len(ng.Divisions))
		for _, d := range ng.Divisions {
			subRows = append(subRows, newSubdivisionRow(grd.ID, d))
		}
		inserted, err := svc.store.Insert(ctx, store.Subdivisions, subRows...)
		if err != nil {
			return grd, errors.Wrapf(err, "creating subdivisions of grade %s", grd.ID)
		}
		grd.Subdivisions = subdivisionsFromRows(inserted)
	}
	return grd, nil
}

// ListGrades returns the grades by name, with their subdivisions when withSubdivisions is set.
func (svc *Service) ListGrades(ctx context.Context, withSubdivisions bool) ([]Grade, error) {
	rows, err := svc.store.Select(ctx, store.Grades, store.Filter{OrderBy: []core.DBOrdering{core.Asc("grade_name")}})
	if err != nil {
		return nil, errors.Wrap(err, "listing grades")
	}
	grades := make([]Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, gradeFromRow(r))
	}
	if !withSubdivisions || len(grades) == 0 {
		return grades, nil
	}

	subs, err := svc.ListSubdivisions(ctx, "")
	if err != nil {
		return nil, err
	}
	byGrade := make(map[string][]Subdivision)
	for _, s := range subs {
		byGrade[s.GradeID] = append(byGrade[s.GradeID], s)
	}
	for i := range grades {
		grades[i].Subdivisions = byGrade[grades[i].ID]
	}
	return grades, nil
}

func (svc *Service) GetGrade(ctx context.Context, id string) (Grade, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Grades, id)
	if err != nil || !found {
		return Grade{}, false, errors.Wrap(err, "getting grade")
	}
	grd := gradeFromRow(row)
	if grd.Subdivisions, err = svc.ListSubdivisions(ctx, id); err != nil {
		return Grade{}, false, err
	}
	return grd, true, nil
}

// DeleteGrade deletes a grade; the store cascades the deletion to its subdivisions.
func (svc *Service) DeleteGrade(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Grades, id), "deleting grade")
}

// AddSubdivision appends a subdivision to an existing grade, which then has subdivisions.
func (svc *Service) AddSubdivision(ctx context.Context, gradeID string, ns NewSubdivision) (Subdivision, bool, error) {
	ns.DivisionName = core.CleanString(ns.DivisionName)
	if err := svc.validate.Struct(ns); err != nil {
		return Subdivision{}, false, err
	}
	grd, found, err := store.SelectByID(ctx, svc.store, store.Grades, gradeID)
	if err != nil || !found {
		return Subdivision{}, false, errors.Wrap(err, "getting grade")
	}

	row, err := store.InsertOne(ctx, svc.store, store.Subdivisions, newSubdivisionRow(gradeID, ns.DivisionName))
	if err != nil {
		return Subdivision{}, false, errors.Wrap(err, "creating subdivision")
	}
	if !grd.Bool("has_subdivision") {
		if _, err = svc.store.Update(ctx, store.Grades, gradeID, store.Row{"has_subdivision": true}); err != nil {
			return subdivisionFromRow(row), true, errors.Wrap(err, "flagging grade subdivisions")
		}
	}
	return subdivisionFromRow(row), true, nil
}

// ListSubdivisions returns the subdivisions of a grade, or of all grades when gradeID is empty.
func (svc *Service) ListSubdivisions(ctx context.Context, gradeID string) ([]Subdivision, error) {
	f := store.Filter{OrderBy: []core.DBOrdering{core.Asc("division_name")}}
	if gradeID != "" {
		f.Where = []store.Cond{store.Eq("grade_id", gradeID)}
	}
	rows, err := svc.store.Select(ctx, store.Subdivisions, f)
	if err != nil {
		return nil, errors.Wrap(err, "listing subdivisions")
	}
	return subdivisionsFromRows(rows), nil
}

func (svc *Service) GetSubdivision(ctx context.Context, id string) (Subdivision, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Subdivisions, id)
	if err != nil || !found {
		return Subdivision{}, false, errors.Wrap(err, "getting subdivision")
	}
	return subdivisionFromRow(row), true, nil
}

func (svc *Service) DeleteSubdivision(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Subdivisions, id), "deleting subdivision")
}

// StartBroadcast marks a subdivision live with its room id, in a single write.
func (svc *Service) StartBroadcast(ctx context.Context, subdivisionID string) (Subdivision, bool, error) {
	return svc.setLive(ctx, subdivisionID, store.Row{
		"is_live":         true,
		"live_meeting_id": RoomID(svc.live.RoomPrefix, subdivisionID),
	})
}

// StopBroadcast ends the live class; the meeting id is kept.
func (svc *Service) StopBroadcast(ctx context.Context, subdivisionID string) (Subdivision, bool, error) {
	return svc.setLive(ctx, subdivisionID, store.Row{"is_live": false})
}

func (svc *Service) setLive(ctx context.Context, subdivisionID string, changes store.Row) (Subdivision, bool, error) {
	row, err := svc.store.Update(ctx, store.Subdivisions, subdivisionID, changes)
	if err != nil {
		return Subdivision{}, false, errors.Wrap(err, "updating live status")
	}
	if row == nil {
		return Subdivision{}, false, nil
	}
	return subdivisionFromRow(row), true, nil
}

func (svc *Service) LiveStatus(ctx context.Context, subdivisionID string) (LiveStatus, bool, error) {
	sub, found, err := svc.GetSubdivision(ctx, subdivisionID)
	if err != nil || !found {
		return LiveStatus{}, false, err
	}
	return LiveStatus{SubdivisionID: sub.ID, IsLive: sub.IsLive, MeetingID: sub.LiveMeetingID}, true, nil
}

// JoinInfo returns what the video embed needs to join the live class of a subdivision.
func (svc *Service) JoinInfo(ctx context.Context, subdivisionID, displayName string) (JoinInfo, bool, error) {
	sub, found, err := svc.GetSubdivision(ctx, subdivisionID)
	if err != nil || !found {
		return JoinInfo{}, false, err
	}
	if !sub.IsLive || !sub.LiveMeetingID.Valid {
		return JoinInfo{}, true, core.NewFieldError("subdivisionId", ErrNotLive.Error())
	}
	room := sub.LiveMeetingID.String
	return JoinInfo{
		RoomID:      room,
		DisplayName: displayName,
		URL:         joinURL(svc.live.BaseURL, room, displayName),
	}, true, nil
}
