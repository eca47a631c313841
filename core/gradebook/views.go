package gradebook

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Views are built from one loaded Document and never modify it.

type (
	DashboardFilter struct {
		GradeLevel string `query:"grade"`
		Section    string `query:"section"`
	}

	AlertView struct {
		Alert
		StudentName string `json:"studentName"`
		ClassName   string `json:"className"`
	}

	Dashboard struct {
		Classes           []Class        `json:"classes"`
		AllClasses        []Class        `json:"allClasses"`
		Alerts            []AlertView    `json:"alerts"`
		TotalStudents     int            `json:"totalStudents"`
		AverageGrade      int            `json:"averageGrade"`
		StatusCounts      map[Status]int `json:"statusCounts"`
		SelectedGrade     string         `json:"selectedGrade"`
		SelectedSection   string         `json:"selectedSection"`
		AvailableGrades   []string       `json:"availableGrades"`
		AvailableSections []string       `json:"availableSections"`
	}

	StudentView struct {
		Student
		ClassName string `json:"className"`
	}

	AssignmentView struct {
		Assignment
		ClassName    string `json:"className"`
		ClassColor   string `json:"classColor"`
		AverageGrade *int   `json:"averageGrade"`
		GradedCount  int    `json:"gradedCount"`
	}

	GradebookRow struct {
		Student
		Score *Grade `json:"score"`
	}

	GradebookView struct {
		AssignmentOptions    []Assignment   `json:"assignmentOptions"`
		AllClasses           []Class        `json:"allClasses"`
		SelectedAssignmentID string         `json:"selectedAssignmentId"`
		SelectedClassID      string         `json:"selectedClassId"`
		SelectedAssignment   *Assignment    `json:"selectedAssignment"`
		SelectedClass        *Class         `json:"selectedClass"`
		Students             []GradebookRow `json:"students"`
	}

	StudentAssignment struct {
		Assignment
		Score   *Grade `json:"score"`
		Percent *int   `json:"percent"`
	}

	StudentDetail struct {
		Student     StudentView         `json:"student"`
		Class       *Class              `json:"class"`
		Assignments []StudentAssignment `json:"assignments"`
	}

	StudentReport struct {
		StudentDetail
		GeneratedDate string `json:"generatedDate"`
	}

	ClassView struct {
		Class    Class         `json:"class"`
		Students []StudentView `json:"students"`
	}

	Meta struct {
		GradeLevels     []string `json:"gradeLevels"`
		Sections        []string `json:"sections"`
		AssignmentTypes []string `json:"assignmentTypes"`
		AssessmentTypes []string `json:"assessmentTypes"`
	}
)

func NewMeta() Meta {
	return Meta{
		GradeLevels:     GradeLevels,
		Sections:        Sections,
		AssignmentTypes: AssignmentTypes,
		AssessmentTypes: AssessmentTypes,
	}
}

// BuildDashboard aggregates the whole document. Only the class list honours the filter;
// the student count, average and status histogram are global.
func BuildDashboard(doc Document, filter DashboardFilter) Dashboard {
	dash := Dashboard{
		Classes:           make([]Class, 0, len(doc.Classes)),
		AllClasses:        nonNilClasses(doc.Classes),
		Alerts:            make([]AlertView, 0, len(doc.Alerts)),
		TotalStudents:     len(doc.Students),
		StatusCounts:      make(map[Status]int, len(Statuses)),
		SelectedGrade:     filter.GradeLevel,
		SelectedSection:   filter.Section,
		AvailableGrades:   GradeLevels,
		AvailableSections: Sections,
	}

	for _, cls := range doc.Classes {
		if (filter.GradeLevel == "" || cls.GradeLevel == filter.GradeLevel) &&
			(filter.Section == "" || cls.Section == filter.Section) {
			dash.Classes = append(dash.Classes, cls)
		}
	}

	for _, st := range Statuses {
		dash.StatusCounts[st] = 0
	}
	var sum float64
	var graded int
	for _, s := range doc.Students {
		if s.OverallGrade != nil {
			if v, ok := s.OverallGrade.Float(); ok {
				sum += v
				graded++
			}
		}
		dash.StatusCounts[Classify(s.OverallGrade)]++
	}
	if graded > 0 {
		dash.AverageGrade = int(math.RoundToEven(sum / float64(graded)))
	}

	for _, alert := range doc.Alerts {
		st, ok := doc.Student(alert.StudentID)
		if !ok {
			continue
		}
		cls, ok := doc.Class(alert.ClassID)
		if !ok {
			continue
		}
		dash.Alerts = append(dash.Alerts, AlertView{Alert: alert, StudentName: st.Name, ClassName: cls.DisplayName()})
	}
	return dash
}

// BuildStudentList returns every student with its class name and a freshly computed status.
func BuildStudentList(doc Document) []StudentView {
	views := make([]StudentView, 0, len(doc.Students))
	for _, s := range doc.Students {
		views = append(views, newStudentView(doc, s))
	}
	return views
}

// BuildAssignmentList returns every assignment with its class and grading stats, earliest due first.
func BuildAssignmentList(doc Document) []AssignmentView {
	views := make([]AssignmentView, 0, len(doc.Assignments))
	for _, a := range doc.Assignments {
		av := AssignmentView{Assignment: a, ClassName: unknownClassName, ClassColor: defaultClassColor}
		if cls, ok := doc.Class(a.ClassID); ok {
			av.ClassName = cls.DisplayName()
			if cls.Color != "" {
				av.ClassColor = cls.Color
			}
		}

		var sum float64
		for _, g := range doc.Grades[a.ID] {
			if v, ok := g.Float(); ok {
				sum += v
				av.GradedCount++
			}
		}
		if av.GradedCount > 0 {
			avg := int(math.RoundToEven(sum / float64(av.GradedCount)))
			av.AverageGrade = &avg
		}
		views = append(views, av)
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].dueKey() < views[j].dueKey() })
	return views
}

// BuildGradebook returns the score matrix of one assignment for one class.
// When classID is empty the assignment's own class is used. Rows are only produced when the
// assignment belongs to the selected class.
func BuildGradebook(doc Document, assignmentID, classID string) GradebookView {
	view := GradebookView{
		AssignmentOptions:    make([]Assignment, len(doc.Assignments)),
		AllClasses:           nonNilClasses(doc.Classes),
		SelectedAssignmentID: assignmentID,
		SelectedClassID:      classID,
		Students:             []GradebookRow{},
	}
	copy(view.AssignmentOptions, doc.Assignments)
	sort.SliceStable(view.AssignmentOptions, func(i, j int) bool {
		return view.AssignmentOptions[i].dueKey() > view.AssignmentOptions[j].dueKey()
	})

	a, ok := doc.Assignment(assignmentID)
	if !ok {
		return view
	}
	view.SelectedAssignment = &a
	if view.SelectedClassID == "" {
		view.SelectedClassID = a.ClassID
	}
	cls, ok := doc.Class(view.SelectedClassID)
	if !ok {
		return view
	}
	view.SelectedClass = &cls
	if a.ClassID != cls.ID {
		return view
	}

	for _, s := range doc.Students {
		if s.ClassID == cls.ID {
			view.Students = append(view.Students, GradebookRow{Student: s, Score: doc.Score(a.ID, s.ID)})
		}
	}
	sort.SliceStable(view.Students, func(i, j int) bool { return view.Students[i].Name < view.Students[j].Name })
	return view
}

// BuildStudentDetail returns a student with the assignments of its class and its scores.
func BuildStudentDetail(doc Document, studentID string) (StudentDetail, bool) {
	s, ok := doc.Student(studentID)
	if !ok {
		return StudentDetail{}, false
	}
	detail := StudentDetail{
		Student:     newStudentView(doc, s),
		Assignments: []StudentAssignment{},
	}
	if cls, ok := doc.Class(s.ClassID); ok {
		detail.Class = &cls
	}

	for _, a := range doc.Assignments {
		if a.ClassID != s.ClassID {
			continue
		}
		sa := StudentAssignment{Assignment: a, Score: doc.Score(a.ID, s.ID)}
		if sa.Score != nil && a.TotalPoints > 0 {
			if v, ok := sa.Score.Float(); ok {
				pct := int(math.RoundToEven(v / float64(a.TotalPoints) * 100))
				sa.Percent = &pct
			}
		}
		detail.Assignments = append(detail.Assignments, sa)
	}
	sort.SliceStable(detail.Assignments, func(i, j int) bool {
		return detail.Assignments[i].dueKey() < detail.Assignments[j].dueKey()
	})
	return detail, true
}

// BuildStudentReport is BuildStudentDetail stamped with its generation time.
func BuildStudentReport(doc Document, studentID string, now time.Time) (StudentReport, bool) {
	detail, ok := BuildStudentDetail(doc, studentID)
	if !ok {
		return StudentReport{}, false
	}
	return StudentReport{StudentDetail: detail, GeneratedDate: now.Format("2006-01-02 15:04:05")}, true
}

// BuildClassView returns a class with its students.
func BuildClassView(doc Document, classID string) (ClassView, bool) {
	cls, ok := doc.Class(classID)
	if !ok {
		return ClassView{}, false
	}
	view := ClassView{Class: cls, Students: []StudentView{}}
	for _, s := range doc.Students {
		if s.ClassID == classID {
			view.Students = append(view.Students, newStudentView(doc, s))
		}
	}
	return view, true
}

// SearchStudents does a case-insensitive match of query on the name, email and uid of every student.
// An empty query matches nothing.
func SearchStudents(doc Document, query string) []StudentView {
	results := []StudentView{}
	q := strings.ToLower(query)
	if q == "" {
		return results
	}
	for _, s := range doc.Students {
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Email), q) ||
			strings.Contains(strings.ToLower(s.UID), q) {
			results = append(results, newStudentView(doc, s))
		}
	}
	return results
}

func newStudentView(doc Document, s Student) StudentView {
	s.Status = Classify(s.OverallGrade)
	if s.Skills == nil {
		s.Skills = []string{}
	}
	view := StudentView{Student: s, ClassName: missingClassName}
	if cls, ok := doc.Class(s.ClassID); ok {
		view.ClassName = cls.DisplayName()
	}
	return view
}

func nonNilClasses(classes []Class) []Class {
	if classes == nil {
		return []Class{}
	}
	return classes
}
