package gradebook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/gradebook/core"
)

// Every mutation validates all of its input against the document before touching it:
// a returned error means the document is unchanged.

// SetOverallGrade contains the information needed to change a student's overall grade.
type SetOverallGrade struct {
	StudentID string `json:"student_id" validate:"required"`
	Grade     *Value `json:"new_grade" validate:"required"`
}

func (in *SetOverallGrade) Validate() error {
	in.StudentID = core.CleanString(in.StudentID)
	return core.ValidateStruct(in)
}

// SetAssignmentScore records, replaces or (with an empty Score) removes a grade entry.
type SetAssignmentScore struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	StudentID    string `json:"student_id" validate:"required"`
	Score        *Value `json:"grade"`
}

func (in *SetAssignmentScore) Validate() error {
	in.AssignmentID = core.CleanString(in.AssignmentID)
	in.StudentID = core.CleanString(in.StudentID)
	return core.ValidateStruct(in)
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	ClassID     string `json:"class_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	TotalPoints *Value `json:"total_points" validate:"required"`
	Type        string `json:"type" validate:"required,assignment_type"`
}

func (in *NewAssignment) Validate() error {
	in.ClassID = core.CleanString(in.ClassID)
	in.Title = core.CleanString(in.Title)
	in.DueDate = core.CleanString(in.DueDate)
	return core.ValidateStruct(in)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	ClassID     string   `json:"classId" validate:"required"`
	ParentPhone string   `json:"parentPhone"`
	Skills      []string `json:"skills"`
}

func (in *NewStudent) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.ClassID = core.CleanString(in.ClassID)
	in.ParentPhone = core.CleanString(in.ParentPhone)
	return core.ValidateStruct(in)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// ParentPhone and Skills keep their current value when omitted.
type UpdateStudent struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	ClassID     string   `json:"classId" validate:"required"`
	ParentPhone *string  `json:"parentPhone"`
	Skills      []string `json:"skills"`
}

func (in *UpdateStudent) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.ClassID = core.CleanString(in.ClassID)
	if in.ParentPhone != nil {
		phone := core.CleanString(*in.ParentPhone)
		in.ParentPhone = &phone
	}
	return core.ValidateStruct(in)
}

// ImportFailure describes a row that ImportStudents could not add.
type ImportFailure struct {
	Row    int    `json:"row"` // 1-based position in the imported rows
	Name   string `json:"name"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Added  []Student       `json:"added"`
	Failed []ImportFailure `json:"failed"`
}

// SetOverallGrade updates the overall grade of a student and recomputes its status.
func (doc *Document) SetOverallGrade(in SetOverallGrade) (Student, error) {
	if err := in.Validate(); err != nil {
		return Student{}, err
	}
	grade, ok := in.Grade.Int()
	if !ok || grade < 0 || grade > 100 {
		return Student{}, core.InvalidValue("new_grade", "invalid grade (0-100 required)")
	}
	i := doc.studentIndex(in.StudentID)
	if i < 0 {
		return Student{}, core.NewNotFoundError("student", in.StudentID)
	}

	st := &doc.Students[i]
	st.OverallGrade = IntGrade(grade)
	st.Status = Classify(st.OverallGrade)
	return *st, nil
}

// SetAssignmentScore upserts the score of a student for an assignment; an empty score removes it.
func (doc *Document) SetAssignmentScore(in SetAssignmentScore) error {
	if err := in.Validate(); err != nil {
		return err
	}
	a, ok := doc.Assignment(in.AssignmentID)
	if !ok {
		return core.NewNotFoundError("assignment", in.AssignmentID)
	}
	st, ok := doc.Student(in.StudentID)
	if !ok {
		return core.NewNotFoundError("student", in.StudentID)
	}
	if st.ClassID != a.ClassID {
		return core.InvalidValue("student_id", "student is not enrolled in the assignment's class")
	}

	if in.Score.IsBlank() {
		if sheet, ok := doc.Grades[a.ID]; ok {
			delete(sheet, st.ID)
		}
		return nil
	}
	maxScore := a.MaxScore()
	score, ok := in.Score.Int()
	if !ok || score < 0 || score > maxScore {
		return core.InvalidValue("grade", fmt.Sprintf("invalid score. Must be 0-%d or empty", maxScore))
	}

	if doc.Grades == nil {
		doc.Grades = Grades{}
	}
	if doc.Grades[a.ID] == nil {
		doc.Grades[a.ID] = GradeSheet{}
	}
	doc.Grades[a.ID][st.ID] = NewGrade(float64(score))
	return nil
}

// AddAssignment appends a new assignment under the smallest free `as<N>` id.
func (doc *Document) AddAssignment(in NewAssignment) (Assignment, error) {
	if err := in.Validate(); err != nil {
		return Assignment{}, err
	}
	points, ok := in.TotalPoints.Int()
	if !ok || points <= 0 {
		return Assignment{}, core.InvalidValue("total_points", "total points must be a positive number")
	}
	if doc.classIndex(in.ClassID) < 0 {
		return Assignment{}, core.NewNotFoundError("class", in.ClassID)
	}

	a := Assignment{
		ID:          doc.nextAssignmentID(),
		ClassID:     in.ClassID,
		Title:       in.Title,
		DueDate:     in.DueDate,
		TotalPoints: points,
		Type:        in.Type,
	}
	doc.Assignments = append(doc.Assignments, a)
	return a, nil
}

// AddStudent creates a student in an existing class and bumps the class's student count.
func (doc *Document) AddStudent(in NewStudent, now time.Time) (Student, error) {
	if err := in.Validate(); err != nil {
		return Student{}, err
	}
	if err := doc.checkEmailUniqueness(in.Email, ""); err != nil {
		return Student{}, err
	}
	ci := doc.classIndex(in.ClassID)
	if ci < 0 {
		return Student{}, core.NewNotFoundError("class", in.ClassID)
	}

	n := doc.nextStudentNumber()
	grade := IntGrade(70)
	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	cls := &doc.Classes[ci]
	st := Student{
		ID:            fmt.Sprintf("s%d", n),
		ClassID:       cls.ID,
		Name:          in.Name,
		Email:         in.Email,
		OverallGrade:  grade,
		Status:        Classify(grade),
		LastMilestone: "Account Created",
		UID:           fmt.Sprintf("UID%d", 1000+n),
		RollNumber:    fmt.Sprintf("ROLL%03d", n),
		Campus:        defaultCampus,
		Photo:         avatar(n),
		ParentPhone:   in.ParentPhone,
		JoinDate:      now.Format(dateLayout),
		Team:          teamLabel(cls.Section),
		Skills:        skills,
	}
	cls.StudentCount++
	doc.Students = append(doc.Students, st)
	return st, nil
}

// EditStudent updates a student. Moving it to another class updates its team and both class counts.
func (doc *Document) EditStudent(id string, in UpdateStudent) (Student, error) {
	i := doc.studentIndex(id)
	if i < 0 {
		return Student{}, core.NewNotFoundError("student", id)
	}
	if err := in.Validate(); err != nil {
		return Student{}, err
	}
	if err := doc.checkEmailUniqueness(in.Email, id); err != nil {
		return Student{}, err
	}
	newCi := doc.classIndex(in.ClassID)
	if newCi < 0 {
		return Student{}, core.NewNotFoundError("class", in.ClassID)
	}

	st := &doc.Students[i]
	origClassID := st.ClassID
	st.Name = in.Name
	st.Email = in.Email
	st.ClassID = in.ClassID
	if in.ParentPhone != nil {
		st.ParentPhone = *in.ParentPhone
	}
	if in.Skills != nil {
		st.Skills = in.Skills
	}

	if origClassID != in.ClassID {
		st.Team = teamLabel(doc.Classes[newCi].Section)
		if oldCi := doc.classIndex(origClassID); oldCi >= 0 {
			doc.Classes[oldCi].decrementCount()
		}
		doc.Classes[newCi].StudentCount++
	}
	return *st, nil
}

// DeleteStudent removes a student, its scores on every assignment and decrements its class's count.
func (doc *Document) DeleteStudent(id string) (Student, error) {
	i := doc.studentIndex(id)
	if i < 0 {
		return Student{}, core.NewNotFoundError("student", id)
	}

	st := doc.Students[i]
	doc.Students = append(doc.Students[:i:i], doc.Students[i+1:]...)
	for _, sheet := range doc.Grades {
		delete(sheet, id)
	}
	if ci := doc.classIndex(st.ClassID); ci >= 0 && st.ClassID != "" {
		doc.Classes[ci].decrementCount()
	}
	return st, nil
}

// DeleteAssignment removes an assignment and its whole grade sheet.
func (doc *Document) DeleteAssignment(id string) (Assignment, error) {
	i := doc.assignmentIndex(id)
	if i < 0 {
		return Assignment{}, core.NewNotFoundError("assignment", id)
	}

	a := doc.Assignments[i]
	doc.Assignments = append(doc.Assignments[:i:i], doc.Assignments[i+1:]...)
	delete(doc.Grades, id)
	return a, nil
}

// ImportStudents adds rows as students of classID, in order. A failing row is reported and skipped.
func (doc *Document) ImportStudents(classID string, rows []NewStudent, now time.Time) (ImportResult, error) {
	classID = core.CleanString(classID)
	if doc.classIndex(classID) < 0 {
		return ImportResult{}, core.NewNotFoundError("class", classID)
	}

	res := ImportResult{Added: []Student{}, Failed: []ImportFailure{}}
	for i, row := range rows {
		row.ClassID = classID
		st, err := doc.AddStudent(row, now)
		if err != nil {
			res.Failed = append(res.Failed, ImportFailure{Row: i + 1, Name: row.Name, Email: row.Email, Reason: err.Error()})
			continue
		}
		res.Added = append(res.Added, st)
	}
	return res, nil
}

func (doc *Document) checkEmailUniqueness(email, excludedID string) error {
	for _, s := range doc.Students {
		if s.ID != excludedID && strings.ToLower(s.Email) == email {
			return core.Conflict("email", fmt.Sprintf("email %q already exists", email))
		}
	}
	return nil
}

// nextAssignmentID returns the smallest `as<N>` (N >= 1) not in use; gaps are reused.
func (doc *Document) nextAssignmentID() string {
	used := make(map[string]struct{}, len(doc.Assignments))
	for _, a := range doc.Assignments {
		used[a.ID] = struct{}{}
	}
	for n := 1; ; n++ {
		id := "as" + strconv.Itoa(n)
		if _, ok := used[id]; !ok {
			return id
		}
	}
}

// nextStudentNumber returns 1 + the highest numeric suffix of the `s<N>` ids; gaps are never reused.
func (doc *Document) nextStudentNumber() int {
	var highest int
	for _, s := range doc.Students {
		if !strings.HasPrefix(s.ID, "s") {
			continue
		}
		if n, err := strconv.Atoi(s.ID[1:]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func (c *Class) decrementCount() {
	if c.StudentCount > 0 {
		c.StudentCount--
	}
}
