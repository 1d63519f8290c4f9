package decode

import (
	"encoding/xml"
	"fmt"
	"time"

	"paceline/series"
)

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Type     string       `xml:"type"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat        float64  `xml:"lat,attr"`
	Lon        float64  `xml:"lon,attr"`
	Elevation  *float64 `xml:"ele"`
	Time       string   `xml:"time"`
	Extensions *gpxExt  `xml:"extensions"`
}

type gpxExt struct {
	Power *float64 `xml:"power"`
	TPE   *gpxTPE  `xml:"TrackPointExtension"`
}

type gpxTPE struct {
	HeartRate *float64 `xml:"hr"`
	Cadence   *float64 `xml:"cad"`
	Speed     *float64 `xml:"speed"`
	Temp      *float64 `xml:"atemp"`
}

// decodeGPX reads every track segment in the file. A new segment means the
// recording resumed after a gap, so each segment's first point contributes
// a device start event.
func decodeGPX(data []byte, out *Recording) error {
	var g gpxFile
	if err := xml.Unmarshal(data, &g); err != nil {
		return fmt.Errorf("decode gpx: %w", err)
	}

	var samples []series.Sample
	var events []series.Event
	var lastTS time.Time
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			segmentOpened := false
			for _, pt := range seg.Points {
				ts, err := parseXMLTime(pt.Time)
				if err != nil {
					return fmt.Errorf("decode gpx: trackpoint time %q: %w", pt.Time, err)
				}
				if !lastTS.IsZero() && ts.Equal(lastTS) {
					continue
				}
				s := series.Sample{
					Timestamp: ts,
					Lat:       series.Float(pt.Lat),
					Lon:       series.Float(pt.Lon),
				}
				if pt.Elevation != nil {
					s.Elevation = series.Float(*pt.Elevation)
				}
				if pt.Extensions != nil {
					if pt.Extensions.Power != nil {
						s.Power = series.Float(*pt.Extensions.Power)
					}
					if tpe := pt.Extensions.TPE; tpe != nil {
						if tpe.HeartRate != nil {
							s.HeartRate = series.Float(*tpe.HeartRate)
						}
						if tpe.Cadence != nil {
							s.Cadence = series.Float(*tpe.Cadence)
						}
						if tpe.Speed != nil {
							s.Speed = series.Float(*tpe.Speed)
						}
						if tpe.Temp != nil {
							s.Temperature = series.Float(*tpe.Temp)
						}
					}
				}
				samples = append(samples, s)
				lastTS = ts
				if !segmentOpened {
					events = append(events, series.Event{
						Timestamp: ts,
						Kind:      series.EventStart,
						Trigger:   series.TriggerDevice,
					})
					segmentOpened = true
				}
			}
		}
	}
	if len(samples) == 0 {
		return &series.Error{Kind: series.KindEmptyInput, Message: "gpx file has no trackpoints"}
	}

	out.Samples = series.Samples{Records: samples}
	out.Events = events
	sum := &Summary{StartTime: samples[0].Timestamp}
	if len(g.Tracks) > 0 {
		sum.Sport = g.Tracks[0].Type
	}
	out.Summary = sum
	return nil
}
