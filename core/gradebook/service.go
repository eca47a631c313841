package gradebook

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var nowFunc = time.Now // mockable

type (
	// Store holds the single Document.
	Store interface {
		// Load returns a snapshot of the document. It never fails: unusable content is replaced by a default document.
		Load(ctx context.Context) Document
		Save(ctx context.Context, doc Document) error
		// Update runs fn against a freshly loaded snapshot and saves it if fn succeeds.
		// Concurrent updates are serialised.
		Update(ctx context.Context, fn func(doc *Document) error) error
	}

	Service interface {
		Meta() Meta
		Dashboard(ctx context.Context, filter DashboardFilter) Dashboard
		Students(ctx context.Context) []StudentView
		Search(ctx context.Context, query string) []StudentView
		StudentDetail(ctx context.Context, id string) (StudentDetail, error)
		StudentReport(ctx context.Context, id string) (StudentReport, error)
		Class(ctx context.Context, id string) (ClassView, error)
		Assignments(ctx context.Context) []AssignmentView
		Gradebook(ctx context.Context, assignmentID, classID string) GradebookView

		SetOverallGrade(ctx context.Context, in SetOverallGrade) (Student, error)
		SetAssignmentScore(ctx context.Context, in SetAssignmentScore) error
		AddAssignment(ctx context.Context, in NewAssignment) (Assignment, error)
		AddStudent(ctx context.Context, in NewStudent) (Student, error)
		EditStudent(ctx context.Context, id string, in UpdateStudent) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
		DeleteAssignment(ctx context.Context, id string) error
		ImportStudents(ctx context.Context, classID string, rows []NewStudent) (ImportResult, error)
		Reset(ctx context.Context) error
	}

	service struct {
		store  Store
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(store Store, logger core.Logger) Service {
	return &service{store: store, logger: logger}
}

func (svc *service) Meta() Meta {
	return NewMeta()
}

func (svc *service) Dashboard(ctx context.Context, filter DashboardFilter) Dashboard {
	return BuildDashboard(svc.store.Load(ctx), filter)
}

func (svc *service) Students(ctx context.Context) []StudentView {
	return BuildStudentList(svc.store.Load(ctx))
}

func (svc *service) Search(ctx context.Context, query string) []StudentView {
	return SearchStudents(svc.store.Load(ctx), query)
}

func (svc *service) StudentDetail(ctx context.Context, id string) (StudentDetail, error) {
	detail, ok := BuildStudentDetail(svc.store.Load(ctx), id)
	if !ok {
		return StudentDetail{}, core.NewNotFoundError("student", id)
	}
	return detail, nil
}

func (svc *service) StudentReport(ctx context.Context, id string) (StudentReport, error) {
	report, ok := BuildStudentReport(svc.store.Load(ctx), id, nowFunc())
	if !ok {
		return StudentReport{}, core.NewNotFoundError("student", id)
	}
	return report, nil
}

func (svc *service) Class(ctx context.Context, id string) (ClassView, error) {
	view, ok := BuildClassView(svc.store.Load(ctx), id)
	if !ok {
		return ClassView{}, core.NewNotFoundError("class", id)
	}
	return view, nil
}

func (svc *service) Assignments(ctx context.Context) []AssignmentView {
	return BuildAssignmentList(svc.store.Load(ctx))
}

func (svc *service) Gradebook(ctx context.Context, assignmentID, classID string) GradebookView {
	return BuildGradebook(svc.store.Load(ctx), core.CleanString(assignmentID), core.CleanString(classID))
}

func (svc *service) SetOverallGrade(ctx context.Context, in SetOverallGrade) (Student, error) {
	var st Student
	err := svc.store.Update(ctx, func(doc *Document) (err error) {
		st, err = doc.SetOverallGrade(in)
		return err
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "setting overall grade")
	}
	svc.logger.Info("overall grade updated", core.Fields{"student": st.ID, "status": st.Status})
	return st, nil
}

func (svc *service) SetAssignmentScore(ctx context.Context, in SetAssignmentScore) error {
	err := svc.store.Update(ctx, func(doc *Document) error {
		return doc.SetAssignmentScore(in)
	})
	if err != nil {
		return errors.Wrap(err, "setting assignment score")
	}
	svc.logger.Info("assignment score updated", core.Fields{"assignment": in.AssignmentID, "student": in.StudentID})
	return nil
}

func (svc *service) AddAssignment(ctx context.Context, in NewAssignment) (Assignment, error) {
	var a Assignment
	err := svc.store.Update(ctx, func(doc *Document) (err error) {
		a, err = doc.AddAssignment(in)
		return err
	})
	if err != nil {
		return Assignment{}, errors.Wrap(err, "adding assignment")
	}
	svc.logger.Info("assignment added", core.Fields{"assignment": a.ID, "class": a.ClassID})
	return a, nil
}

func (svc *service) AddStudent(ctx context.Context, in NewStudent) (Student, error) {
	var st Student
	err := svc.store.Update(ctx, func(doc *Document) (err error) {
		st, err = doc.AddStudent(in, nowFunc())
		return err
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "adding student")
	}
	svc.logger.Info("student added", core.Fields{"student": st.ID, "class": st.ClassID})
	return st, nil
}

func (svc *service) EditStudent(ctx context.Context, id string, in UpdateStudent) (Student, error) {
	var st Student
	err := svc.store.Update(ctx, func(doc *Document) (err error) {
		st, err = doc.EditStudent(id, in)
		return err
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "editing student")
	}
	svc.logger.Info("student updated", core.Fields{"student": st.ID})
	return st, nil
}

func (svc *service) DeleteStudent(ctx context.Context, id string) error {
	err := svc.store.Update(ctx, func(doc *Document) error {
		_, err := doc.DeleteStudent(id)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	svc.logger.Info("student deleted", core.Fields{"student": id})
	return nil
}

func (svc *service) DeleteAssignment(ctx context.Context, id string) error {
	err := svc.store.Update(ctx, func(doc *Document) error {
		_, err := doc.DeleteAssignment(id)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	svc.logger.Info("assignment deleted", core.Fields{"assignment": id})
	return nil
}

func (svc *service) ImportStudents(ctx context.Context, classID string, rows []NewStudent) (ImportResult, error) {
	var res ImportResult
	err := svc.store.Update(ctx, func(doc *Document) (err error) {
		res, err = doc.ImportStudents(classID, rows, nowFunc())
		return err
	})
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "importing students")
	}
	svc.logger.Info("students imported", core.Fields{"class": classID, "added": len(res.Added), "failed": len(res.Failed)})
	return res, nil
}

func (svc *service) Reset(ctx context.Context) error {
	err := svc.store.Update(ctx, func(doc *Document) error {
		*doc = DefaultDocument(nowFunc())
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "resetting data")
	}
	svc.logger.Warn("data reset to default")
	return nil
}
