// Package academy assembles the services of the back office over a single store.
package academy

import (
	"context"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/attendance"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/classwork"
	"github.com/trezcool/academia/core/enquiry"
	"github.com/trezcool/academia/core/fee"
	"github.com/trezcool/academia/core/grade"
	"github.com/trezcool/academia/core/notice"
	"github.com/trezcool/academia/core/query"
	"github.com/trezcool/academia/core/settings"
	"github.com/trezcool/academia/core/shop"
	"github.com/trezcool/academia/core/store"
	"github.com/trezcool/academia/core/student"
	"github.com/trezcool/academia/core/teacher"
)

type Deps struct {
	Conf   *core.Config
	Store  store.Store
	Feed   store.Feed
	Logger core.Logger
	Mailer core.EmailService
}

type Academy struct {
	Validate   *validator.Validate
	Translator ut.Translator
	Feed       store.Feed

	Auth       *auth.Authenticator
	Students   *student.Service
	Teachers   *teacher.Service
	Grades     *grade.Service
	Fees       *fee.Service
	Shop       *shop.Service
	Notices    *notice.Service
	Classwork  *classwork.Service
	Queries    *query.Service
	Attendance *attendance.Service
	Settings   *settings.Service
	Enquiries  *enquiry.Service
}

// Stats is the admin dashboard summary.
type Stats struct {
	Students            int     `json:"students"`
	ActiveStudents      int     `json:"activeStudents"`
	StudentsWithDues    int     `json:"studentsWithDues"`
	ExpectedMonthlyFees float64 `json:"expectedMonthlyFees"`
	Teachers            int     `json:"teachers"`
	Grades              int     `json:"grades"`
	PendingFees         int     `json:"pendingFees"`
	ApprovedRevenue     float64 `json:"approvedRevenue"`
	OpenQueries         int     `json:"openQueries"`
	OpenOrders          int     `json:"openOrders"`
	Enquiries           int     `json:"enquiries"`
}

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	return translator
}

func New(deps Deps) (*Academy, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Store, "Store"),
		vala.IsNotNil(deps.Feed, "Feed"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Mailer, "Mailer"),
	).Check(); err != nil {
		return nil, err
	}

	translator := NewTranslator()
	validate := core.NewValidator(translator)
	account.InitValidators(validate, translator)

	a := &Academy{
		Validate:   validate,
		Translator: translator,
		Feed:       deps.Feed,
		Students:   student.NewService(deps.Store, validate),
		Teachers:   teacher.NewService(deps.Store, validate),
		Grades:     grade.NewService(deps.Store, validate, deps.Conf.Live),
		Fees:       fee.NewService(deps.Store, validate, deps.Logger),
		Shop:       shop.NewService(deps.Store, validate),
		Notices:    notice.NewService(deps.Store, validate),
		Classwork:  classwork.NewService(deps.Store, validate),
		Queries:    query.NewService(deps.Store, validate),
		Attendance: attendance.NewService(deps.Store, validate),
		Settings:   settings.NewService(deps.Store, deps.Conf.Currency),
		Enquiries:  enquiry.NewService(deps.Store, validate, deps.Mailer, deps.Conf.ContactEmail),
	}
	authenticator, err := auth.NewAuthenticator(deps.Conf.Admin, a.Teachers, a.Students)
	if err != nil {
		return nil, errors.Wrap(err, "creating authenticator")
	}
	a.Auth = authenticator
	return a, nil
}

// Stats reads every counted collection; the counts are not taken at a single point in time.
func (a *Academy) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	students, err := a.Students.List(ctx, student.Filter{})
	if err != nil {
		return Stats{}, err
	}
	st.Students = len(students)
	for _, s := range students {
		if !s.IsActive() {
			continue
		}
		st.ActiveStudents++
		st.ExpectedMonthlyFees += s.MonthlyFees
		if s.FeesStatus != student.FeesPaid {
			st.StudentsWithDues++
		}
	}

	teachers, err := a.Teachers.List(ctx, teacher.Filter{})
	if err != nil {
		return Stats{}, err
	}
	st.Teachers = len(teachers)

	grades, err := a.Grades.ListGrades(ctx, false)
	if err != nil {
		return Stats{}, err
	}
	st.Grades = len(grades)

	pending, err := a.Fees.List(ctx, fee.Filter{Status: fee.StatusPending})
	if err != nil {
		return Stats{}, err
	}
	st.PendingFees = len(pending)

	if st.ApprovedRevenue, err = a.Fees.ApprovedRevenue(ctx); err != nil {
		return Stats{}, err
	}

	open, err := a.Queries.ListAll(ctx, query.StatusOpen)
	if err != nil {
		return Stats{}, err
	}
	st.OpenQueries = len(open)

	orders, err := a.Shop.ListOrders(ctx, shop.OrderFilter{})
	if err != nil {
		return Stats{}, err
	}
	for _, o := range orders {
		if shop.IsOpen(o.Status) {
			st.OpenOrders++
		}
	}

	enquiries, err := a.Enquiries.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st.Enquiries = len(enquiries)
	return st, nil
}
