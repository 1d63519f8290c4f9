package decode

import (
	"encoding/xml"
	"fmt"
	"time"

	"paceline/series"
)

// The XML mappings below match on local element names only, which keeps
// them valid across the namespace variants emitted by different head units
// and export services.

type tcxDatabase struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	StartTime        string      `xml:"StartTime,attr"`
	TotalTimeSeconds float64     `xml:"TotalTimeSeconds"`
	DistanceMeters   *float64    `xml:"DistanceMeters"`
	MaximumSpeed     *float64    `xml:"MaximumSpeed"`
	Calories         *float64    `xml:"Calories"`
	AvgHeartRate     *tcxHRValue `xml:"AverageHeartRateBpm"`
	MaxHeartRate     *tcxHRValue `xml:"MaximumHeartRateBpm"`
	Cadence          *float64    `xml:"Cadence"`
	Tracks           []tcxTrack  `xml:"Track"`
	Extensions       *tcxLapExt  `xml:"Extensions"`
}

type tcxLapExt struct {
	LX *tcxLX `xml:"LX"`
}

type tcxLX struct {
	AvgSpeed *float64 `xml:"AvgSpeed"`
	AvgWatts *float64 `xml:"Watts"`
	MaxWatts *float64 `xml:"MaxWatts"`
}

type tcxTrack struct {
	Points []tcxTrackpoint `xml:"Trackpoint"`
}

type tcxTrackpoint struct {
	Time           string       `xml:"Time"`
	Position       *tcxPosition `xml:"Position"`
	AltitudeMeters *float64     `xml:"AltitudeMeters"`
	DistanceMeters *float64     `xml:"DistanceMeters"`
	HeartRateBpm   *tcxHRValue  `xml:"HeartRateBpm"`
	Cadence        *float64     `xml:"Cadence"`
	Extensions     *tcxPointExt `xml:"Extensions"`
}

type tcxPosition struct {
	Lat float64 `xml:"LatitudeDegrees"`
	Lon float64 `xml:"LongitudeDegrees"`
}

type tcxHRValue struct {
	Value float64 `xml:"Value"`
}

type tcxPointExt struct {
	TPX *tcxTPX `xml:"TPX"`
}

type tcxTPX struct {
	Speed      *float64 `xml:"Speed"`
	RunCadence *float64 `xml:"RunCadence"`
	Watts      *float64 `xml:"Watts"`
}

// decodeTCX reads trackpoints from every activity in the file. Each Track
// element marks a resumed recording, so the first point of every track
// contributes a device start event; stops are left to threshold detection.
func decodeTCX(data []byte, out *Recording) error {
	var db tcxDatabase
	if err := xml.Unmarshal(data, &db); err != nil {
		return fmt.Errorf("decode tcx: %w", err)
	}

	var samples []series.Sample
	var events []series.Event
	var lastTS time.Time
	for _, act := range db.Activities {
		for _, lap := range act.Laps {
			for _, track := range lap.Tracks {
				trackOpened := false
				for _, pt := range track.Points {
					ts, err := parseXMLTime(pt.Time)
					if err != nil {
						return fmt.Errorf("decode tcx: trackpoint time %q: %w", pt.Time, err)
					}
					// Exporters repeat the boundary point when a track
					// resumes; keep the first occurrence.
					if !lastTS.IsZero() && ts.Equal(lastTS) {
						continue
					}
					s := series.Sample{Timestamp: ts}
					if pt.Position != nil {
						s.Lat = series.Float(pt.Position.Lat)
						s.Lon = series.Float(pt.Position.Lon)
					}
					if pt.AltitudeMeters != nil {
						s.Elevation = series.Float(*pt.AltitudeMeters)
					}
					if pt.DistanceMeters != nil {
						s.Distance = series.Float(*pt.DistanceMeters)
					}
					if pt.HeartRateBpm != nil {
						s.HeartRate = series.Float(pt.HeartRateBpm.Value)
					}
					if pt.Cadence != nil {
						s.Cadence = series.Float(*pt.Cadence)
					} else if pt.Extensions != nil && pt.Extensions.TPX != nil && pt.Extensions.TPX.RunCadence != nil {
						s.Cadence = series.Float(*pt.Extensions.TPX.RunCadence)
					}
					if pt.Extensions != nil && pt.Extensions.TPX != nil {
						if pt.Extensions.TPX.Speed != nil {
							s.Speed = series.Float(*pt.Extensions.TPX.Speed)
						}
						if pt.Extensions.TPX.Watts != nil {
							s.Power = series.Float(*pt.Extensions.TPX.Watts)
						}
					}
					samples = append(samples, s)
					lastTS = ts
					if !trackOpened {
						events = append(events, series.Event{
							Timestamp: ts,
							Kind:      series.EventStart,
							Trigger:   series.TriggerDevice,
						})
						trackOpened = true
					}
				}
			}
		}
	}
	if len(samples) == 0 {
		return &series.Error{Kind: series.KindEmptyInput, Message: "tcx file has no trackpoints"}
	}

	out.Samples = series.Samples{Records: samples}
	out.Events = events
	out.Summary = tcxSummary(db.Activities, samples[0].Timestamp)
	for _, act := range db.Activities {
		for _, lap := range act.Laps {
			out.Laps = append(out.Laps, tcxLapSummary(lap))
		}
	}
	return nil
}

func tcxSummary(activities []tcxActivity, firstSample time.Time) *Summary {
	sum := &Summary{StartTime: firstSample}
	if len(activities) > 0 {
		sum.Sport = activities[0].Sport
	}
	var timer, distance, calories float64
	var haveDistance, haveCalories bool
	for _, act := range activities {
		for _, lap := range act.Laps {
			timer += lap.TotalTimeSeconds
			if lap.DistanceMeters != nil {
				distance += *lap.DistanceMeters
				haveDistance = true
			}
			if lap.Calories != nil {
				calories += *lap.Calories
				haveCalories = true
			}
		}
	}
	if timer > 0 {
		sum.TotalTimer = time.Duration(timer * float64(time.Second))
	}
	if haveDistance {
		sum.TotalDistance = series.Float(distance)
	}
	if haveCalories {
		sum.Calories = series.Float(calories)
	}
	return sum
}

func tcxLapSummary(lap tcxLap) Lap {
	out := Lap{Timer: time.Duration(lap.TotalTimeSeconds * float64(time.Second))}
	if ts, err := parseXMLTime(lap.StartTime); err == nil {
		out.StartTime = ts
	}
	out.Distance = lap.DistanceMeters
	out.MaxSpeed = lap.MaximumSpeed
	if lap.AvgHeartRate != nil {
		out.AvgHeartRate = series.Float(lap.AvgHeartRate.Value)
	}
	if lap.MaxHeartRate != nil {
		out.MaxHeartRate = series.Float(lap.MaxHeartRate.Value)
	}
	out.AvgCadence = lap.Cadence
	if lap.Extensions != nil && lap.Extensions.LX != nil {
		lx := lap.Extensions.LX
		if out.AvgSpeed == nil {
			out.AvgSpeed = lx.AvgSpeed
		}
		out.AvgPower = lx.AvgWatts
		out.MaxPower = lx.MaxWatts
	}
	return out
}

// parseXMLTime accepts the timestamp shapes seen in TCX and GPX exports:
// RFC 3339 with or without fractional seconds, and naive timestamps
// without a zone, which are taken as UTC.
func parseXMLTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
