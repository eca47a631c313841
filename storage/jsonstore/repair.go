package jsonstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/gradebook"
)

var errNotObject = errors.New("document is not a JSON object")

var null = []byte("null")

// decode parses data into a Document and repairs its structure:
//   - a list collection that is missing or not a list becomes empty
//   - list elements that are not objects are dropped
//   - record fields of the wrong type are converted when possible (numbers and numeric strings swap,
//     integral decimals fit integers) and reset to their zero value otherwise
//   - grades missing or not an object becomes empty, and so does every grade sheet that is not an object
//
// repairs lists what was changed; it is empty for a well-formed document.
func decode(data []byte) (doc gradebook.Document, repairs []string, err error) {
	if !json.Valid(data) {
		return doc, nil, errors.New("invalid JSON")
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return doc, nil, errNotObject
	}

	r := &repairer{}
	r.records("classes", top["classes"], func(item json.RawMessage) []fieldRepair {
		var c gradebook.Class
		fixes := decodeRecord(item, &c)
		doc.Classes = append(doc.Classes, c)
		return fixes
	})
	r.records("students", top["students"], func(item json.RawMessage) []fieldRepair {
		var st gradebook.Student
		fixes := decodeRecord(item, &st)
		doc.Students = append(doc.Students, st)
		return fixes
	})
	r.records("alerts", top["alerts"], func(item json.RawMessage) []fieldRepair {
		var a gradebook.Alert
		fixes := decodeRecord(item, &a)
		doc.Alerts = append(doc.Alerts, a)
		return fixes
	})
	r.records("assignments", top["assignments"], func(item json.RawMessage) []fieldRepair {
		var a gradebook.Assignment
		fixes := decodeRecord(item, &a)
		doc.Assignments = append(doc.Assignments, a)
		return fixes
	})
	doc.Grades = r.grades(top["grades"])

	doc.Normalize()
	return doc, r.repairs, nil
}

type repairer struct {
	repairs []string
}

func (r *repairer) note(format string, args ...interface{}) {
	r.repairs = append(r.repairs, fmt.Sprintf(format, args...))
}

// records feeds every object element of the list `raw` to add, which reports the fields it had to fix.
func (r *repairer) records(key string, raw json.RawMessage, add func(item json.RawMessage) []fieldRepair) {
	if raw == nil || bytes.Equal(raw, null) {
		r.note("%s: missing", key)
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.note("%s: not a list", key)
		return
	}

	var dropped int
	for i, item := range items {
		if !isObject(item) {
			dropped++
			continue
		}
		for _, fix := range add(item) {
			r.note("%s[%d].%s: %s", key, i, fix.field, fix.action)
		}
	}
	if dropped > 0 {
		r.note("%s: dropped %d non-object record(s)", key, dropped)
	}
}

func (r *repairer) grades(raw json.RawMessage) gradebook.Grades {
	grades := gradebook.Grades{}
	if raw == nil || bytes.Equal(raw, null) {
		r.note("grades: missing")
		return grades
	}
	var sheets map[string]json.RawMessage
	if !isObject(raw) || json.Unmarshal(raw, &sheets) != nil {
		r.note("grades: not an object")
		return grades
	}

	for id, rawSheet := range sheets {
		sheet := gradebook.GradeSheet{}
		if !isObject(rawSheet) || json.Unmarshal(rawSheet, &sheet) != nil {
			r.note("grades.%s: not an object", id)
			sheet = gradebook.GradeSheet{}
		}
		grades[id] = sheet
	}
	return grades
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
