package gradebook

type Status string

const (
	StatusExcellent Status = "Excellent"
	StatusGood      Status = "Good"
	StatusNeedsHelp Status = "Needs Help"
	StatusAtRisk    Status = "At Risk"
	StatusNA        Status = "N/A"
	StatusInvalid   Status = "Invalid"
)

// Statuses lists every label Classify can return.
var Statuses = []Status{StatusExcellent, StatusGood, StatusNeedsHelp, StatusAtRisk, StatusNA, StatusInvalid}

// Classify maps an overall grade to its status label.
func Classify(grade *Grade) Status {
	if grade == nil || grade.IsNull() {
		return StatusNA
	}
	v, ok := grade.Float()
	if !ok {
		return StatusInvalid
	}
	switch {
	case v >= 90:
		return StatusExcellent
	case v >= 70:
		return StatusGood
	case v >= 60:
		return StatusNeedsHelp
	default:
		return StatusAtRisk
	}
}
