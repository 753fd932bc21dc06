package ports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docentlabs/docent/pkg/domain"
)

// Field suffixes of the flat record schema. Durable stores persist one
// entry per field, keyed "<tourName>.<field>", so records written by one
// backend remain readable by another.
const (
	FieldVisited        = "visited"
	FieldCompleted      = "completed"
	FieldSkipped        = "skipped"
	FieldVisitedAt      = "visitedAt"
	FieldCompletedAt    = "completedAt"
	FieldSkippedAt      = "skippedAt"
	FieldStepsCompleted = "stepsCompleted"
)

// RecordKey builds the flat key for one field of a tour's record.
func RecordKey(tourName, field string) string {
	return tourName + "." + field
}

// SplitRecordKey is the inverse of RecordKey. The tour name may itself
// contain dots, so the split happens at the last separator.
func SplitRecordKey(key string) (tourName, field string, ok bool) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// RecordFields flattens a record into the shared key/value schema.
// Booleans serialize as the literal strings "true"/"false"; timestamps
// as RFC 3339. Boolean fields are always present so a false is explicit;
// timestamp fields appear only when set.
func RecordFields(r *domain.Record) map[string]string {
	fields := map[string]string{
		RecordKey(r.TourName, FieldVisited):        strconv.FormatBool(r.Visited),
		RecordKey(r.TourName, FieldCompleted):      strconv.FormatBool(r.Completed),
		RecordKey(r.TourName, FieldSkipped):        strconv.FormatBool(r.Skipped),
		RecordKey(r.TourName, FieldStepsCompleted): strconv.Itoa(r.StepsCompletedAtExit),
	}
	putTime := func(field string, t *time.Time) {
		if t != nil {
			fields[RecordKey(r.TourName, field)] = t.UTC().Format(time.RFC3339)
		}
	}
	putTime(FieldVisitedAt, r.VisitedAt)
	putTime(FieldCompletedAt, r.CompletedAt)
	putTime(FieldSkippedAt, r.SkippedAt)
	return fields
}

// RecordFromFields rebuilds a record from its flat fields. Keys may be
// given with or without the "<tourName>." prefix; unknown fields are
// ignored so schema additions stay backward compatible.
func RecordFromFields(tourName string, fields map[string]string) (*domain.Record, error) {
	r := &domain.Record{TourName: tourName}
	prefix := tourName + "."
	for key, value := range fields {
		field := strings.TrimPrefix(key, prefix)
		switch field {
		case FieldVisited, FieldCompleted, FieldSkipped:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("record field %s: %w", field, err)
			}
			switch field {
			case FieldVisited:
				r.Visited = b
			case FieldCompleted:
				r.Completed = b
			case FieldSkipped:
				r.Skipped = b
			}
		case FieldStepsCompleted:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("record field %s: %w", field, err)
			}
			r.StepsCompletedAtExit = n
		case FieldVisitedAt, FieldCompletedAt, FieldSkippedAt:
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, fmt.Errorf("record field %s: %w", field, err)
			}
			switch field {
			case FieldVisitedAt:
				r.VisitedAt = &t
			case FieldCompletedAt:
				r.CompletedAt = &t
			case FieldSkippedAt:
				r.SkippedAt = &t
			}
		}
	}
	return r, nil
}
