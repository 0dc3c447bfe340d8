package utils

import (
	"math"
	"time"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

// BuildReadingRow converts a container record into an archive row.
func BuildReadingRow(rec models.ContainerRecord) models.ReadingRow {
	return models.ReadingRow{
		RegistrationNumber:  rec.RegistrationNumber,
		CheckedAt:           rec.CheckedAt.UTC().Truncate(time.Second),
		FillingDegree:       rec.FillingDegree,
		FillingDegreeStatus: rec.FillingDegreeStatus,
		IsOutOfUse:          rec.IsOutOfUse,
		IsSkipped:           rec.IsSkipped,
		IsEmptiedToday:      rec.IsEmptiedToday,
		DateLastEmptied:     rec.DateLastEmptied,
		ProductName:         rec.ProductName,
		ContainerKindName:   rec.ContainerKindName,
		Latitude:            rec.Latitude,
		Longitude:           rec.Longitude,
		Metadata: map[string]any{
			"source":               "spaarnelanden",
			"container_product_id": rec.ContainerProductID,
		},
	}
}

// ShouldArchive reports whether row differs enough from the last stored
// reading to be inserted. Readings are always stored once minInterval has
// passed; before that only a changed filling degree or emptied date counts.
func ShouldArchive(row models.ReadingRow, last *models.LastReading, minInterval time.Duration, epsilon float64) bool {
	if last == nil {
		return true
	}
	if !row.CheckedAt.After(last.CheckedAt) {
		return false
	}
	if row.CheckedAt.Sub(last.CheckedAt) >= minInterval {
		return true
	}
	if !row.DateLastEmptied.Equal(last.DateLastEmptied) {
		return true
	}
	return math.Abs(row.FillingDegree-last.FillingDegree) > epsilon
}
