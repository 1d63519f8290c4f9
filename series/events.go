package series

import "time"

// EventKind is a timer transition.
type EventKind uint8

const (
	EventStart EventKind = iota
	EventStop
)

func (k EventKind) String() string {
	if k == EventStart {
		return "start"
	}
	return "stop"
}

// Trigger records where an event came from. Device events are recorded by
// the head unit; detected events come from speed-threshold detection.
type Trigger uint8

const (
	TriggerDevice Trigger = iota
	TriggerDetected
)

func (t Trigger) String() string {
	if t == TriggerDevice {
		return "device"
	}
	return "detected"
}

// Event is a single timer transition on an activity timeline.
type Event struct {
	Timestamp time.Time
	Kind      EventKind
	Trigger   Trigger
}

// DefaultStoppedThreshold is the speed in m/s at or below which a sample
// counts as stopped.
const DefaultStoppedThreshold = 0.3

// DetectEvents derives start and stop events from the speed channel.
// The first sample always opens with a start, whether or not it carries a
// speed. After that, only samples with a speed participate: crossing down
// to the threshold emits a stop, crossing back up emits a start. Samples
// must be ordered by timestamp.
func DetectEvents(samples []Sample, threshold float64) []Event {
	if len(samples) == 0 {
		return nil
	}
	events := []Event{{
		Timestamp: samples[0].Timestamp,
		Kind:      EventStart,
		Trigger:   TriggerDetected,
	}}
	stopped := false
	for _, s := range samples[1:] {
		if s.Speed == nil {
			continue
		}
		if *s.Speed <= threshold {
			if !stopped {
				events = append(events, Event{
					Timestamp: s.Timestamp,
					Kind:      EventStop,
					Trigger:   TriggerDetected,
				})
			}
			stopped = true
		} else if stopped {
			events = append(events, Event{
				Timestamp: s.Timestamp,
				Kind:      EventStart,
				Trigger:   TriggerDetected,
			})
			stopped = false
		}
	}
	return events
}

// MergeTimelines interleaves device and detected events into one timeline
// with at most one event per timestamp. On a tie the device event wins.
// Within a single stream the first event at a timestamp wins. Both inputs
// must already be ordered by timestamp.
func MergeTimelines(device, detected []Event) []Event {
	merged := make([]Event, 0, len(device)+len(detected))
	push := func(e Event) {
		if n := len(merged); n > 0 && merged[n-1].Timestamp.Equal(e.Timestamp) {
			return
		}
		merged = append(merged, e)
	}

	i, j := 0, 0
	for i < len(device) && j < len(detected) {
		d, t := device[i], detected[j]
		switch {
		case d.Timestamp.Before(t.Timestamp):
			push(d)
			i++
		case t.Timestamp.Before(d.Timestamp):
			push(t)
			j++
		default:
			push(d)
			i++
			j++
		}
	}
	for ; i < len(device); i++ {
		push(device[i])
	}
	for ; j < len(detected); j++ {
		push(detected[j])
	}
	return merged
}
