package kubernetes

import (
	"context"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8s "k8s.io/client-go/kubernetes"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// EventReader implements outbound.ChangeEventReader against the Kubernetes
// event stream. Deployment-scoped events stand in for a change log when no
// migration tooling writes one: each rollout event becomes a ChangeEvent with
// type "deployment". User-count and resource-requirement fields have no
// Kubernetes equivalent and are left absent.
type EventReader struct {
	clientset k8s.Interface
	namespace string
}

// NewEventReader creates an EventReader scoped to the given namespace. An
// empty namespace reads events cluster-wide.
func NewEventReader(clientset k8s.Interface, namespace string) *EventReader {
	return &EventReader{clientset: clientset, namespace: namespace}
}

var _ outbound.ChangeEventReader = (*EventReader)(nil)

// FetchChangeEvents lists Deployment events with a timestamp in [start, end],
// oldest first.
func (r *EventReader) FetchChangeEvents(ctx context.Context, start, end time.Time) ([]model.ChangeEvent, error) {
	list, err := r.clientset.CoreV1().Events(r.namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "involvedObject.kind=Deployment",
	})
	if err != nil {
		return nil, fmt.Errorf("listing deployment events: %w", err)
	}

	var events []model.ChangeEvent
	for i := range list.Items {
		item := &list.Items[i]
		if item.InvolvedObject.Kind != "Deployment" {
			continue
		}
		ts := eventTimestamp(item)
		if ts.Before(start) || ts.After(end) {
			continue
		}
		events = append(events, model.ChangeEvent{
			ID:           string(item.UID),
			Type:         "deployment",
			Timestamp:    ts,
			SourceSystem: item.Namespace,
			TargetSystem: item.InvolvedObject.Name,
			Description:  fmt.Sprintf("%s: %s", item.Reason, item.Message),
			Status:       eventStatus(item),
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func eventTimestamp(e *corev1.Event) time.Time {
	if !e.LastTimestamp.IsZero() {
		return e.LastTimestamp.Time.UTC()
	}
	if !e.EventTime.IsZero() {
		return e.EventTime.Time.UTC()
	}
	return e.CreationTimestamp.Time.UTC()
}

func eventStatus(e *corev1.Event) string {
	if e.Type == corev1.EventTypeWarning {
		return "failed"
	}
	return "completed"
}
