package gradebook

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DefaultDocument builds the seed document: 5 students in every (grade level, section) class,
// three assignments with a few scores and three alerts. Dates are relative to now.
func DefaultDocument(now time.Time) Document {
	doc := Document{
		Classes:  make([]Class, 0, len(GradeLevels)*len(Sections)),
		Students: make([]Student, 0, len(GradeLevels)*len(Sections)*5),
	}
	today := now.Format(dateLayout)

	classN, studentN := 1, 1
	for _, level := range GradeLevels {
		for _, section := range Sections {
			cls := Class{
				ID:           fmt.Sprintf("c%d", classN),
				Name:         "Grade " + level,
				Section:      section,
				StudentCount: 5,
				Color:        SectionColors[section],
				GradeLevel:   level,
				Campus:       defaultCampus,
			}
			doc.Classes = append(doc.Classes, cls)

			for i := 0; i < 5; i++ {
				grade := IntGrade(70 + studentN%30)
				doc.Students = append(doc.Students, Student{
					ID:            fmt.Sprintf("s%d", studentN),
					ClassID:       cls.ID,
					Name:          fmt.Sprintf("Student %d", studentN),
					Email:         fmt.Sprintf("student%d@school.edu", studentN),
					OverallGrade:  grade,
					Status:        Classify(grade),
					LastMilestone: "Initial Setup",
					UID:           fmt.Sprintf("UID%d", 1000+studentN),
					RollNumber:    fmt.Sprintf("ROLL%03d", studentN),
					Campus:        defaultCampus,
					Photo:         avatar(studentN),
					ParentPhone:   "+91 98765 43210",
					JoinDate:      today,
					Team:          teamLabel(section),
					Skills:        []string{"Programming", "Problem Solving"},
				})
				studentN++
			}
			classN++
		}
	}

	doc.Alerts = []Alert{
		{ID: "a1", StudentID: "s5", ClassID: "c1", Issue: "Low score on Quiz 1", Type: "grade"},
		{ID: "a2", StudentID: "s12", ClassID: "c3", Issue: "Overall grade dropped below 60%", Type: "grade"},
		{ID: "a3", StudentID: "s25", ClassID: "c5", Issue: "Project 'RoboDesign' overdue", Type: "assignment"},
	}

	inDays := func(n int) string { return now.AddDate(0, 0, n).Format(dateLayout) }
	doc.Assignments = []Assignment{
		{ID: "as1", ClassID: "c1", Title: "Intro Circuit Lab", DueDate: inDays(7), TotalPoints: 50, Type: "Lab"},
		{ID: "as2", ClassID: "c1", Title: "Unit 1 Test", DueDate: inDays(5), TotalPoints: 100, Type: "Test"},
		{ID: "as3", ClassID: "c2", Title: "Algorithm Quiz", DueDate: inDays(9), TotalPoints: 20, Type: "Quiz"},
	}
	doc.Grades = Grades{
		"as1": {"s1": NewGrade(40), "s2": NewGrade(45), "s3": NewGrade(35)},
		"as2": {"s1": NewGrade(78), "s2": NewGrade(85), "s4": NewGrade(91)},
		"as3": {"s6": NewGrade(15), "s7": NewGrade(18)},
	}
	return doc
}

func avatar(n int) string {
	return fmt.Sprintf("/static/avatars/student%d.jpg", n%5+1)
}

func teamLabel(section string) string {
	if section == "" {
		section = "Unknown"
	}
	return "Team " + section
}
