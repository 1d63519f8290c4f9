package series

import "time"

// Field names one optional channel of a recording.
type Field string

const (
	FieldSpeed       Field = "speed"
	FieldHeartRate   Field = "heart_rate"
	FieldPower       Field = "power"
	FieldCadence     Field = "cadence"
	FieldElevation   Field = "elevation"
	FieldDistance    Field = "distance"
	FieldLat         Field = "lat"
	FieldLon         Field = "lon"
	FieldTemperature Field = "temperature"

	// Derived channels, attached after construction.
	FieldGrade    Field = "grade"
	FieldRunPower Field = "run_power"
)

// Fields lists every decodable channel in canonical column order.
var Fields = []Field{
	FieldSpeed,
	FieldHeartRate,
	FieldPower,
	FieldCadence,
	FieldElevation,
	FieldDistance,
	FieldLat,
	FieldLon,
	FieldTemperature,
}

// Unit identifies the measurement unit a source declared for a channel.
type Unit string

const (
	UnitMetersPerSecond      Unit = "m/s"
	UnitMillimetersPerSecond Unit = "mm/s"
	UnitDegrees              Unit = "deg"
	UnitSemicircles          Unit = "semicircles"
	UnitMeters               Unit = "m"
	UnitWatts                Unit = "W"
	UnitWattsPerKilogram     Unit = "W/kg"
	UnitBPM                  Unit = "bpm"
	UnitRPM                  Unit = "rpm"
	UnitCelsius              Unit = "degC"
	UnitRatio                Unit = "ratio"
)

// canonicalUnits maps each channel to the unit its table column carries
// after normalization.
var canonicalUnits = map[Field]Unit{
	FieldSpeed:       UnitMetersPerSecond,
	FieldHeartRate:   UnitBPM,
	FieldPower:       UnitWatts,
	FieldCadence:     UnitRPM,
	FieldElevation:   UnitMeters,
	FieldDistance:    UnitMeters,
	FieldLat:         UnitDegrees,
	FieldLon:         UnitDegrees,
	FieldTemperature: UnitCelsius,
	FieldGrade:       UnitRatio,
	FieldRunPower:    UnitWattsPerKilogram,
}

// CanonicalUnit returns the unit a channel is normalized to.
func CanonicalUnit(f Field) Unit {
	return canonicalUnits[f]
}

// Sample is one device reading. Nil fields were not reported by the source.
type Sample struct {
	Timestamp   time.Time
	Speed       *float64
	HeartRate   *float64
	Power       *float64
	Cadence     *float64
	Elevation   *float64
	Distance    *float64
	Lat         *float64
	Lon         *float64
	Temperature *float64
}

func (s *Sample) value(f Field) *float64 {
	switch f {
	case FieldSpeed:
		return s.Speed
	case FieldHeartRate:
		return s.HeartRate
	case FieldPower:
		return s.Power
	case FieldCadence:
		return s.Cadence
	case FieldElevation:
		return s.Elevation
	case FieldDistance:
		return s.Distance
	case FieldLat:
		return s.Lat
	case FieldLon:
		return s.Lon
	case FieldTemperature:
		return s.Temperature
	}
	return nil
}

// Set assigns the reading for channel f. Decoders use it when the channel
// is picked at runtime from a column header.
func (s *Sample) Set(f Field, v float64) {
	s.setValue(f, &v)
}

func (s *Sample) setValue(f Field, v *float64) {
	switch f {
	case FieldSpeed:
		s.Speed = v
	case FieldHeartRate:
		s.HeartRate = v
	case FieldPower:
		s.Power = v
	case FieldCadence:
		s.Cadence = v
	case FieldElevation:
		s.Elevation = v
	case FieldDistance:
		s.Distance = v
	case FieldLat:
		s.Lat = v
	case FieldLon:
		s.Lon = v
	case FieldTemperature:
		s.Temperature = v
	}
}

// Samples pairs raw readings with the units their source declared.
// Channels absent from Units are assumed to already be canonical.
type Samples struct {
	Records []Sample
	Units   map[Field]Unit
}

var unitConversions = map[Field]map[Unit]func(float64) float64{
	FieldSpeed: {
		UnitMillimetersPerSecond: func(v float64) float64 { return v / 1000.0 },
	},
	FieldLat: {
		UnitSemicircles: semicirclesToDegrees,
	},
	FieldLon: {
		UnitSemicircles: semicirclesToDegrees,
	},
}

func semicirclesToDegrees(v float64) float64 {
	return v * (180.0 / 2147483648.0)
}

// NormalizeSamples rewrites every reading into its channel's canonical unit.
// Readings already canonical pass through untouched, so applying it twice is
// the same as applying it once. A declared unit with no known conversion is
// a unit-ambiguity error: guessing would corrupt every downstream number.
// The input is not mutated.
func NormalizeSamples(in Samples) (Samples, error) {
	out := Samples{Records: in.Records, Units: make(map[Field]Unit, len(in.Units))}
	pending := make(map[Field]func(float64) float64)
	for f, u := range in.Units {
		want := CanonicalUnit(f)
		out.Units[f] = want
		if u == "" || u == want {
			continue
		}
		convert := unitConversions[f][u]
		if convert == nil {
			return Samples{}, newError(KindUnitAmbiguity, "channel %s: no conversion from unit %q", f, u)
		}
		pending[f] = convert
	}
	if len(pending) == 0 {
		return out, nil
	}

	recs := make([]Sample, len(in.Records))
	copy(recs, in.Records)
	for i := range recs {
		for f, convert := range pending {
			if v := recs[i].value(f); v != nil {
				nv := convert(*v)
				recs[i].setValue(f, &nv)
			}
		}
	}
	out.Records = recs
	return out, nil
}

// Float is a convenience for building optional sample fields.
func Float(v float64) *float64 { return &v }
