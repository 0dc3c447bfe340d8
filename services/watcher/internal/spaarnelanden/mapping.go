package spaarnelanden

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

const (
	keyFillingDegreeStatus = "iFillingDegreeStatus"
	keyFillingDegree       = "dFillingDegree"
	keyLatitude            = "dLatitude"
	keyLongitude           = "dLongitude"
	keyRegistrationNumber  = "sRegistrationNumber"
	keyIsOutOfUse          = "bIsOutOfUse"
	keyIsSkipped           = "bIsSkipped"
	keyIsEmptiedToday      = "bIsEmptiedToday"
	keyDateLastEmptied     = "sDateLastEmptied"
	keyContainerProductID  = "iContainerProductId"
	keyProductName         = "sProductName"
	keyContainerKindName   = "sContainerKindName"

	// DateLayout is the day-month-year format of sDateLastEmptied. Single
	// digit days and months are accepted.
	DateLayout = "2-1-2006"

	UnknownStatus = "Unknown"
)

var fillingDegreeStatuses = map[int]string{
	1: "Niet ingepland vandaag",
	2: "Onbekend (2)",
	3: "Ingepland",
}

// StatusLabel resolves a filling degree status code. Unrecognized codes map to
// UnknownStatus.
func StatusLabel(code int) string {
	if label, ok := fillingDegreeStatuses[code]; ok {
		return label
	}
	return UnknownStatus
}

// MatchesRegistration reports whether raw carries target as its registration
// number. A null or non-string number never matches; only a missing key is an
// error.
func MatchesRegistration(raw models.RawContainer, target string) (bool, error) {
	v, err := field(raw, keyRegistrationNumber)
	if err != nil {
		return false, err
	}
	s, ok := v.(string)
	return ok && s == target, nil
}

// ToRecord maps a raw entry to a ContainerRecord stamped with checkedAt. Any
// missing or malformed field fails the whole mapping.
func ToRecord(raw models.RawContainer, checkedAt time.Time) (models.ContainerRecord, error) {
	var (
		rec  models.ContainerRecord
		errs []error
	)
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	status, err := field(raw, keyFillingDegreeStatus)
	collect(err)
	rec.FillingDegreeStatus = statusFromValue(status)

	rec.FillingDegree, err = floatField(raw, keyFillingDegree)
	collect(err)
	rec.Latitude, err = floatField(raw, keyLatitude)
	collect(err)
	rec.Longitude, err = floatField(raw, keyLongitude)
	collect(err)
	rec.RegistrationNumber, err = stringField(raw, keyRegistrationNumber)
	collect(err)
	rec.IsOutOfUse, err = boolField(raw, keyIsOutOfUse)
	collect(err)
	rec.IsSkipped, err = boolField(raw, keyIsSkipped)
	collect(err)
	rec.IsEmptiedToday, err = boolField(raw, keyIsEmptiedToday)
	collect(err)
	rec.ContainerProductID, err = intField(raw, keyContainerProductID)
	collect(err)
	rec.ProductName, err = nullableStringField(raw, keyProductName)
	collect(err)
	rec.ContainerKindName, err = stringField(raw, keyContainerKindName)
	collect(err)

	dateText, err := stringField(raw, keyDateLastEmptied)
	collect(err)
	if err == nil {
		rec.DateLastEmptied, err = time.Parse(DateLayout, dateText)
		if err != nil {
			collect(fmt.Errorf("%s: %q is not a dd-mm-yyyy date", keyDateLastEmptied, dateText))
		}
	}

	if len(errs) > 0 {
		return models.ContainerRecord{}, fmt.Errorf("%w: %w", ErrMapping, errors.Join(errs...))
	}

	rec.CheckedAt = checkedAt
	return rec, nil
}

func statusFromValue(v any) string {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return UnknownStatus
	}
	return StatusLabel(int(f))
}

func field(raw models.RawContainer, key string) (any, error) {
	v, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("%s: missing", key)
	}
	return v, nil
}

func floatField(raw models.RawContainer, key string) (float64, error) {
	v, err := field(raw, key)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s: want number, got %T", key, v)
	}
	return f, nil
}

func intField(raw models.RawContainer, key string) (int, error) {
	f, err := floatField(raw, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s: want integer, got %v", key, f)
	}
	return int(f), nil
}

func boolField(raw models.RawContainer, key string) (bool, error) {
	v, err := field(raw, key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: want bool, got %T", key, v)
	}
	return b, nil
}

func stringField(raw models.RawContainer, key string) (string, error) {
	v, err := field(raw, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %T", key, v)
	}
	return s, nil
}

// nullableStringField accepts JSON null as the empty string.
func nullableStringField(raw models.RawContainer, key string) (string, error) {
	v, err := field(raw, key)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %T", key, v)
	}
	return s, nil
}
