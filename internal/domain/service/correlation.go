package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonny/anomaly-insight/internal/domain/model"
)

// Change events are correlated with an anomaly only when they happened within
// this many hours before detection. Events closer than likelyCauseHours mark
// the migration as the likely cause.
const (
	correlationWindowHours = 24.0
	likelyCauseHours       = 6.0
)

// CorrelateChanges evaluates whether recorded change events explain an
// anomaly detected at detectedAt. An event is kept when it precedes the
// anomaly by less than the correlation window and carries at least one
// impact signal (user growth, functionality change, or resource requirement
// change). Events at exactly the window boundary are excluded.
func CorrelateChanges(detectedAt time.Time, events []model.ChangeEvent) model.MigrationImpact {
	if len(events) == 0 {
		return model.MigrationImpact{
			LikelyCause:   false,
			ImpactSummary: "No recent migrations detected",
		}
	}

	var related []model.RelatedChange
	var factors []string

	for _, event := range events {
		hoursBefore := detectedAt.Sub(event.Timestamp).Hours()
		if hoursBefore < 0 || hoursBefore >= correlationWindowHours {
			continue
		}

		var impacts []string

		if event.UserCountChange > 0 {
			impacts = append(impacts, fmt.Sprintf("Added %d users, increasing system load", event.UserCountChange))
			factors = append(factors, fmt.Sprintf("User migration added %d users %.1fh before anomaly", event.UserCountChange, hoursBefore))
		}

		eventType := strings.ToLower(event.Type)
		if strings.Contains(eventType, "functionality") || strings.Contains(eventType, "feature") {
			impacts = append(impacts, "New functionality may require additional resources")
			factors = append(factors, fmt.Sprintf("New functionality deployed %.1fh before anomaly", hoursBefore))
		}

		if len(event.ResourceRequirements) > 0 {
			if cpu := event.ResourceRequirements[model.ResourceCPUIncrease]; cpu != 0 {
				impacts = append(impacts, fmt.Sprintf("Requires %g%% more CPU", cpu))
			}
			if mem := event.ResourceRequirements[model.ResourceMemoryIncrease]; mem != 0 {
				impacts = append(impacts, fmt.Sprintf("Requires %g%% more memory", mem))
			}
			factors = append(factors, fmt.Sprintf("Resource requirements changed %.1fh before anomaly", hoursBefore))
		}

		if len(impacts) > 0 {
			related = append(related, model.RelatedChange{
				Event:              event,
				HoursBeforeAnomaly: hoursBefore,
				PotentialImpact:    impacts,
			})
		}
	}

	likelyCause := false
	for _, rc := range related {
		if rc.HoursBeforeAnomaly < likelyCauseHours {
			likelyCause = true
			break
		}
	}

	var summary string
	switch {
	case len(related) == 0:
		summary = "No migrations found that correlate with the anomaly timing."
	case likelyCause:
		top := factors
		if len(top) > 3 {
			top = top[:3]
		}
		summary = fmt.Sprintf(
			"Found %d recent migration(s) that likely contributed to this anomaly. "+
				"The migration(s) occurred shortly before the anomaly was detected and involved changes that "+
				"could explain the observed behavior: %s",
			len(related), strings.Join(top, "; "))
	default:
		summary = fmt.Sprintf(
			"Found %d migration(s) in the time window, but timing suggests "+
				"they may not be the primary cause. However, they should be considered as potential "+
				"contributing factors.",
			len(related))
	}

	return model.MigrationImpact{
		LikelyCause:    likelyCause,
		RelatedChanges: related,
		ImpactSummary:  summary,
		ImpactFactors:  factors,
	}
}
