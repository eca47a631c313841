package gradebook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

func value(s string) *Value {
	v := Value(s)
	return &v
}

func TestValue(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Value
		wantInt int
		isInt   bool
		wantErr bool
	}{
		{name: "number", in: `85`, want: "85", wantInt: 85, isInt: true},
		{name: "integral decimal", in: `85.0`, want: "85.0", wantInt: 85, isInt: true},
		{name: "fraction", in: `85.5`, want: "85.5"},
		{name: "string", in: `" 42 "`, want: " 42 ", wantInt: 42, isInt: true},
		{name: "text", in: `"abc"`, want: "abc"},
		{name: "bool", in: `true`, wantErr: true},
		{name: "object", in: `{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			err := json.Unmarshal([]byte(tt.in), &v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			n, ok := v.Int()
			assert.Equal(t, tt.isInt, ok)
			assert.Equal(t, tt.wantInt, n)
		})
	}

	var blank *Value
	assert.True(t, blank.IsBlank())
	assert.True(t, value("  ").IsBlank())
	assert.False(t, value("0").IsBlank())
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "error %v is not of kind %v", err, kind)
}

func TestDocument_SetOverallGrade(t *testing.T) {
	tests := []struct {
		name     string
		in       SetOverallGrade
		wantKind error
		want     Status
	}{
		{name: "missing grade", in: SetOverallGrade{StudentID: "s1"}, wantKind: core.ErrMissingField},
		{name: "missing student", in: SetOverallGrade{Grade: value("50")}, wantKind: core.ErrMissingField},
		{name: "above 100", in: SetOverallGrade{StudentID: "s1", Grade: value("101")}, wantKind: core.ErrInvalidValue},
		{name: "negative", in: SetOverallGrade{StudentID: "s1", Grade: value("-1")}, wantKind: core.ErrInvalidValue},
		{name: "fraction", in: SetOverallGrade{StudentID: "s1", Grade: value("50.5")}, wantKind: core.ErrInvalidValue},
		{name: "unknown student", in: SetOverallGrade{StudentID: "s9", Grade: value("50")}, wantKind: core.ErrNotFound},
		{name: "at risk", in: SetOverallGrade{StudentID: " s1 ", Grade: value("59")}, want: StatusAtRisk},
		{name: "excellent", in: SetOverallGrade{StudentID: "s1", Grade: value("100")}, want: StatusExcellent},
		{name: "zero", in: SetOverallGrade{StudentID: "s1", Grade: value("0")}, want: StatusAtRisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument()
			st, err := doc.SetOverallGrade(tt.in)
			if tt.wantKind != nil {
				assertKind(t, err, tt.wantKind)
				assert.Equal(t, testDocument(), doc, "a rejected mutation must not change the document")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Status)
			stored, _ := doc.Student("s1")
			assert.Equal(t, st, stored)
		})
	}
}

func TestDocument_SetAssignmentScore(t *testing.T) {
	tests := []struct {
		name     string
		in       SetAssignmentScore
		wantKind error
		want     *float64
	}{
		{name: "missing ids", in: SetAssignmentScore{Score: value("1")}, wantKind: core.ErrMissingField},
		{name: "unknown assignment", in: SetAssignmentScore{AssignmentID: "as9", StudentID: "s1", Score: value("1")}, wantKind: core.ErrNotFound},
		{name: "unknown student", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s9", Score: value("1")}, wantKind: core.ErrNotFound},
		{name: "other class", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s3", Score: value("1")}, wantKind: core.ErrInvalidValue},
		{name: "above total points", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s2", Score: value("51")}, wantKind: core.ErrInvalidValue},
		{name: "not a number", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s2", Score: value("A")}, wantKind: core.ErrInvalidValue},
		{name: "total points", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s2", Score: value("50")}, want: floatPtr(50)},
		{name: "zero", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s2", Score: value("0")}, want: floatPtr(0)},
		{name: "first score of an assignment", in: SetAssignmentScore{AssignmentID: "as2", StudentID: "s1", Score: value("7")}, want: floatPtr(7)},
		{name: "no total points defaults to 100", in: SetAssignmentScore{AssignmentID: "as3", StudentID: "s2", Score: value("100")}, want: floatPtr(100)},
		{name: "clear", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s2", Score: value("")}},
		{name: "clear (absent)", in: SetAssignmentScore{AssignmentID: "as1", StudentID: "s2"}},
		{name: "clear ungraded", in: SetAssignmentScore{AssignmentID: "as2", StudentID: "s2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument()
			err := doc.SetAssignmentScore(tt.in)
			if tt.wantKind != nil {
				assertKind(t, err, tt.wantKind)
				assert.Equal(t, testDocument(), doc, "a rejected mutation must not change the document")
				return
			}
			require.NoError(t, err)
			got := doc.Score(tt.in.AssignmentID, tt.in.StudentID)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			v, ok := got.Float()
			assert.True(t, ok)
			assert.Equal(t, *tt.want, v)
		})
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestDocument_AddAssignment(t *testing.T) {
	valid := func() NewAssignment {
		return NewAssignment{ClassID: "c1", Title: " Lab 2 ", DueDate: "2024-06-01", TotalPoints: value("25"), Type: "Lab"}
	}

	tests := []struct {
		name     string
		mutate   func(in *NewAssignment)
		wantKind error
	}{
		{name: "missing title", mutate: func(in *NewAssignment) { in.Title = "  " }, wantKind: core.ErrMissingField},
		{name: "missing points", mutate: func(in *NewAssignment) { in.TotalPoints = nil }, wantKind: core.ErrMissingField},
		{name: "zero points", mutate: func(in *NewAssignment) { in.TotalPoints = value("0") }, wantKind: core.ErrInvalidValue},
		{name: "unknown type", mutate: func(in *NewAssignment) { in.Type = "Essay" }, wantKind: core.ErrInvalidValue},
		{name: "unknown class", mutate: func(in *NewAssignment) { in.ClassID = "c9" }, wantKind: core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument()
			in := valid()
			tt.mutate(&in)
			_, err := doc.AddAssignment(in)
			assertKind(t, err, tt.wantKind)
			assert.Equal(t, testDocument(), doc)
		})
	}

	doc := testDocument()
	a, err := doc.AddAssignment(valid())
	require.NoError(t, err)
	assert.Equal(t, Assignment{ID: "as5", ClassID: "c1", Title: "Lab 2", DueDate: "2024-06-01", TotalPoints: 25, Type: "Lab"}, a)

	// ids of deleted assignments are reused, smallest first
	_, err = doc.DeleteAssignment("as2")
	require.NoError(t, err)
	_, err = doc.DeleteAssignment("as1")
	require.NoError(t, err)
	a, err = doc.AddAssignment(valid())
	require.NoError(t, err)
	assert.Equal(t, "as1", a.ID)
	a, err = doc.AddAssignment(valid())
	require.NoError(t, err)
	assert.Equal(t, "as2", a.ID)
}

func TestDocument_AddStudent(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		in       NewStudent
		wantKind error
	}{
		{name: "missing fields", in: NewStudent{}, wantKind: core.ErrMissingField},
		{name: "invalid email", in: NewStudent{Name: "N", Email: "nope", ClassID: "c1"}, wantKind: core.ErrInvalidValue},
		{name: "email taken", in: NewStudent{Name: "N", Email: " ZOE@School.edu ", ClassID: "c2"}, wantKind: core.ErrConflict},
		{name: "unknown class", in: NewStudent{Name: "N", Email: "n@school.edu", ClassID: "c9"}, wantKind: core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument()
			_, err := doc.AddStudent(tt.in, now)
			assertKind(t, err, tt.wantKind)
			assert.Equal(t, testDocument(), doc)
		})
	}

	doc := testDocument()
	st, err := doc.AddStudent(NewStudent{Name: "Nia", Email: "Nia@School.edu", ClassID: "c2", ParentPhone: "+1 555"}, now)
	require.NoError(t, err)
	assert.Equal(t, Student{
		ID:            "s5",
		ClassID:       "c2",
		Name:          "Nia",
		Email:         "nia@school.edu",
		OverallGrade:  IntGrade(70),
		Status:        StatusGood,
		LastMilestone: "Account Created",
		UID:           "UID1005",
		RollNumber:    "ROLL005",
		Campus:        defaultCampus,
		Photo:         avatar(5),
		ParentPhone:   "+1 555",
		JoinDate:      "2024-03-01",
		Team:          "Team Google",
		Skills:        []string{},
	}, st)

	c1, _ := doc.Class("c1")
	c2, _ := doc.Class("c2")
	assert.Equal(t, 2, c1.StudentCount, "other classes are untouched")
	assert.Equal(t, 2, c2.StudentCount)

	// student numbers are never reused
	_, err = doc.DeleteStudent("s5")
	require.NoError(t, err)
	st, err = doc.AddStudent(NewStudent{Name: "Ola", Email: "ola@school.edu", ClassID: "c1"}, now)
	require.NoError(t, err)
	assert.Equal(t, "s5", st.ID, "s5 is free again, but s4 is still the highest")
	_, err = doc.DeleteStudent("s2")
	require.NoError(t, err)
	st, err = doc.AddStudent(NewStudent{Name: "Pam", Email: "pam@school.edu", ClassID: "c1"}, now)
	require.NoError(t, err)
	assert.Equal(t, "s6", st.ID)
}

func TestDocument_EditStudent(t *testing.T) {
	doc := testDocument()

	_, err := doc.EditStudent("s9", UpdateStudent{Name: "X", Email: "x@school.edu", ClassID: "c1"})
	assertKind(t, err, core.ErrNotFound)
	_, err = doc.EditStudent("s1", UpdateStudent{Name: "X", Email: "ABE@school.edu", ClassID: "c1"})
	assertKind(t, err, core.ErrConflict)
	_, err = doc.EditStudent("s1", UpdateStudent{Name: "X", Email: "x@school.edu", ClassID: "c9"})
	assertKind(t, err, core.ErrNotFound)
	assert.Equal(t, testDocument(), doc)

	// keeping its own email is fine
	phone := "+1 777"
	st, err := doc.EditStudent("s1", UpdateStudent{Name: "Zoey", Email: "zoe@school.edu", ClassID: "c2", ParentPhone: &phone, Skills: []string{"Go", "Go"}})
	require.NoError(t, err)
	assert.Equal(t, "Zoey", st.Name)
	assert.Equal(t, "c2", st.ClassID)
	assert.Equal(t, "Team Google", st.Team)
	assert.Equal(t, "+1 777", st.ParentPhone)
	assert.Equal(t, []string{"Go", "Go"}, st.Skills)

	c1, _ := doc.Class("c1")
	c2, _ := doc.Class("c2")
	assert.Equal(t, 1, c1.StudentCount)
	assert.Equal(t, 2, c2.StudentCount)
	// old scores are kept
	assert.NotNil(t, doc.Score("as1", "s1"))

	// omitted phone and skills are kept
	st, err = doc.EditStudent("s1", UpdateStudent{Name: "Zoey", Email: "zoe@school.edu", ClassID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, "+1 777", st.ParentPhone)
	assert.Equal(t, []string{"Go", "Go"}, st.Skills)
	c2, _ = doc.Class("c2")
	assert.Equal(t, 2, c2.StudentCount, "no count change without a class change")
}

func TestDocument_DeleteStudent(t *testing.T) {
	doc := testDocument()

	_, err := doc.DeleteStudent("s9")
	assertKind(t, err, core.ErrNotFound)

	_, err = doc.DeleteStudent("s1")
	require.NoError(t, err)
	_, ok := doc.Student("s1")
	assert.False(t, ok)
	for aid, sheet := range doc.Grades {
		_, ok := sheet["s1"]
		assert.False(t, ok, "score left in %s", aid)
	}
	c1, _ := doc.Class("c1")
	c2, _ := doc.Class("c2")
	assert.Equal(t, 1, c1.StudentCount)
	assert.Equal(t, 1, c2.StudentCount)

	// count never goes below zero
	doc.Classes[0].StudentCount = 0
	_, err = doc.DeleteStudent("s2")
	require.NoError(t, err)
	c1, _ = doc.Class("c1")
	assert.Equal(t, 0, c1.StudentCount)

	// orphans leave every count alone
	_, err = doc.DeleteStudent("s4")
	require.NoError(t, err)
	c2, _ = doc.Class("c2")
	assert.Equal(t, 1, c2.StudentCount)
}

func TestDocument_DeleteAssignment(t *testing.T) {
	doc := testDocument()

	_, err := doc.DeleteAssignment("as9")
	assertKind(t, err, core.ErrNotFound)

	a, err := doc.DeleteAssignment("as1")
	require.NoError(t, err)
	assert.Equal(t, "as1", a.ID)
	_, ok := doc.Grades["as1"]
	assert.False(t, ok)
	assert.Len(t, doc.Assignments, 3)
	assert.Empty(t, BuildGradebook(doc, "as1", "c1").Students)
}

func TestDocument_ImportStudents(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	doc := testDocument()

	_, err := doc.ImportStudents("c9", []NewStudent{{Name: "A", Email: "a@school.edu"}}, now)
	assertKind(t, err, core.ErrNotFound)

	res, err := doc.ImportStudents(" c2 ", []NewStudent{
		{Name: "Ann", Email: "ann@school.edu", ClassID: "c1"}, // the target class wins
		{Name: "Dup", Email: "ann@school.edu"},
		{Email: "nameless@school.edu"},
		{Name: "Ben", Email: "ben@school.edu"},
	}, now)
	require.NoError(t, err)
	require.Len(t, res.Added, 2)
	assert.Equal(t, "s5", res.Added[0].ID)
	assert.Equal(t, "c2", res.Added[0].ClassID)
	assert.Equal(t, "s6", res.Added[1].ID)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, ImportFailure{Row: 2, Name: "Dup", Email: "ann@school.edu", Reason: `email "ann@school.edu" already exists`}, res.Failed[0])
	assert.Equal(t, 3, res.Failed[1].Row)

	c2, _ := doc.Class("c2")
	assert.Equal(t, 3, c2.StudentCount)
}
