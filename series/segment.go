package series

// Assignment is the segmentation result for one sample.
type Assignment struct {
	// Block counts completed start events. Samples seen before the first
	// start belong to block -1.
	Block int
	// Excised marks samples recorded inside a detected stopped period.
	Excised bool
}

// Segment walks samples and timeline once, in timestamp order, and assigns
// every sample a block number and an excised flag. Before each sample it
// applies all events at or before that sample's timestamp: a start from
// either trigger opens a new block and ends any excision, while only a
// detected stop begins one. Device stops mark timer state, not movement,
// so they never excise anything on their own.
func Segment(samples []Sample, timeline []Event) ([]Assignment, error) {
	if len(samples) == 0 {
		return nil, newError(KindEmptyInput, "no samples to segment")
	}
	if len(timeline) == 0 {
		return nil, newError(KindEmptyInput, "no timer events to segment against")
	}

	out := make([]Assignment, len(samples))
	block := -1
	excising := false
	cursor := 0
	for i := range samples {
		ts := samples[i].Timestamp
		for cursor < len(timeline) && !timeline[cursor].Timestamp.After(ts) {
			ev := timeline[cursor]
			switch ev.Kind {
			case EventStart:
				block++
				excising = false
			case EventStop:
				if ev.Trigger == TriggerDetected {
					excising = true
				}
			}
			cursor++
		}
		out[i] = Assignment{Block: block, Excised: excising}
	}
	return out, nil
}
