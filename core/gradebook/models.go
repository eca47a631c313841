package gradebook

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Enumerations
var (
	GradeLevels     = []string{"6th", "7th", "8th", "9th"}
	Sections        = []string{"Tata", "Google", "Infosys", "Mahindra", "Intel", "Adobe", "Verizon"}
	AssignmentTypes = []string{"Project", "Quiz", "Lab", "Homework", "Exam", "Participation", "Assessment", "Test", "Other"}
	AssessmentTypes = []string{"Quiz", "Exam", "Assessment", "Test"}

	SectionColors = map[string]string{
		"Tata":     "bg-red-500",
		"Google":   "bg-blue-500",
		"Infosys":  "bg-purple-500",
		"Mahindra": "bg-green-500",
		"Intel":    "bg-sky-500",
		"Adobe":    "bg-red-600",
		"Verizon":  "bg-amber-500",
	}
)

const (
	// sorts undated assignments after every dated one
	sentinelDueDate = "9999-12-31"

	defaultCampus      = "Main Campus"
	defaultClassColor  = "bg-gray-500"
	defaultTotalPoints = 100
	unknownClassName   = "Unknown"
	missingClassName   = "N/A"
)

type Class struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Section      string `json:"section"`
	StudentCount int    `json:"studentCount"`
	Color        string `json:"color"`
	GradeLevel   string `json:"grade"`
	Campus       string `json:"campus"`
}

// DisplayName is the label used wherever a class is shown next to another record.
func (c Class) DisplayName() string {
	return c.Name + " - " + c.Section
}

type Student struct {
	ID            string   `json:"id"`
	ClassID       string   `json:"classId"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	OverallGrade  *Grade   `json:"overallGrade,omitempty"`
	Status        Status   `json:"status"`
	LastMilestone string   `json:"lastMilestone"`
	UID           string   `json:"uid"`
	RollNumber    string   `json:"rollNumber"`
	Campus        string   `json:"campus"`
	Photo         string   `json:"photo"`
	ParentPhone   string   `json:"parentPhone"`
	JoinDate      string   `json:"joinDate"`
	Team          string   `json:"roboticsTeam"`
	Skills        []string `json:"skills"`
}

type Assignment struct {
	ID          string `json:"id"`
	ClassID     string `json:"classId"`
	Title       string `json:"title"`
	DueDate     string `json:"dueDate"`
	TotalPoints int    `json:"totalPoints"`
	Type        string `json:"type"`
}

// MaxScore is the highest score that can be recorded for the assignment.
func (a Assignment) MaxScore() int {
	if a.TotalPoints <= 0 {
		return defaultTotalPoints
	}
	return a.TotalPoints
}

func (a Assignment) dueKey() string {
	if a.DueDate == "" {
		return sentinelDueDate
	}
	return a.DueDate
}

type Alert struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	ClassID   string `json:"classId"`
	Issue     string `json:"issue"`
	Type      string `json:"type"`
}

// Grade is a number as persisted in the document. Numeric payloads are exposed through Float;
// anything else (strings, booleans, null) is kept verbatim so that it survives a save.
type Grade struct {
	value float64
	raw   json.RawMessage
}

func NewGrade(v float64) Grade { return Grade{value: v} }

func IntGrade(v int) *Grade {
	g := NewGrade(float64(v))
	return &g
}

// Float returns the numeric value of g; ok is false when g does not hold a number.
func (g Grade) Float() (v float64, ok bool) {
	return g.value, g.raw == nil
}

// IsNull reports whether g was persisted as JSON null.
func (g Grade) IsNull() bool {
	return bytes.Equal(bytes.TrimSpace(g.raw), jsonNull)
}

func (g *Grade) UnmarshalJSON(b []byte) error {
	var f float64
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) || json.Unmarshal(b, &f) != nil {
		g.value = 0
		g.raw = append(json.RawMessage(nil), b...)
		return nil
	}
	g.value = f
	g.raw = nil
	return nil
}

func (g Grade) MarshalJSON() ([]byte, error) {
	if g.raw != nil {
		return g.raw, nil
	}
	return json.Marshal(g.value)
}

type (
	// GradeSheet maps a student id to the score of one assignment. A missing key means ungraded.
	GradeSheet map[string]Grade

	// Grades maps an assignment id to its GradeSheet.
	Grades map[string]GradeSheet
)

// Document is the single unit of load and save.
type Document struct {
	Classes     []Class      `json:"classes"`
	Students    []Student    `json:"students"`
	Alerts      []Alert      `json:"alerts"`
	Assignments []Assignment `json:"assignments"`
	Grades      Grades       `json:"grades"`
}

// Normalize replaces nil collections by empty ones so that they serialise as `[]` and `{}`.
func (doc *Document) Normalize() {
	if doc.Classes == nil {
		doc.Classes = []Class{}
	}
	if doc.Students == nil {
		doc.Students = []Student{}
	}
	for i := range doc.Students {
		if doc.Students[i].Skills == nil {
			doc.Students[i].Skills = []string{}
		}
	}
	if doc.Alerts == nil {
		doc.Alerts = []Alert{}
	}
	if doc.Assignments == nil {
		doc.Assignments = []Assignment{}
	}
	if doc.Grades == nil {
		doc.Grades = Grades{}
	}
	for id, sheet := range doc.Grades {
		if sheet == nil {
			doc.Grades[id] = GradeSheet{}
		}
	}
}

func (doc *Document) classIndex(id string) int {
	for i := range doc.Classes {
		if doc.Classes[i].ID == id {
			return i
		}
	}
	return -1
}

func (doc *Document) studentIndex(id string) int {
	for i := range doc.Students {
		if doc.Students[i].ID == id {
			return i
		}
	}
	return -1
}

func (doc *Document) assignmentIndex(id string) int {
	for i := range doc.Assignments {
		if doc.Assignments[i].ID == id {
			return i
		}
	}
	return -1
}

// Class returns the class with the given id.
func (doc Document) Class(id string) (Class, bool) {
	if i := doc.classIndex(id); i >= 0 {
		return doc.Classes[i], true
	}
	return Class{}, false
}

// Student returns the student with the given id.
func (doc Document) Student(id string) (Student, bool) {
	if i := doc.studentIndex(id); i >= 0 {
		return doc.Students[i], true
	}
	return Student{}, false
}

// Assignment returns the assignment with the given id.
func (doc Document) Assignment(id string) (Assignment, bool) {
	if i := doc.assignmentIndex(id); i >= 0 {
		return doc.Assignments[i], true
	}
	return Assignment{}, false
}

// Score returns the recorded score of a student for an assignment, nil when ungraded.
func (doc Document) Score(assignmentID, studentID string) *Grade {
	if g, ok := doc.Grades[assignmentID][studentID]; ok {
		return &g
	}
	return nil
}
