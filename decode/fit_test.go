package decode

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/tormoder/fit"

	"paceline/series"
)

var fitStart = time.Date(2026, 4, 18, 8, 30, 0, 0, time.UTC)

func buildFIT(t *testing.T, build func(act *fit.ActivityFile)) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}
	build(activity)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func addTimerEvent(act *fit.ActivityFile, ts time.Time, eventType fit.EventType) {
	ev := fit.NewEventMsg()
	ev.Timestamp = ts
	ev.Event = fit.EventTimer
	ev.EventType = eventType
	act.Events = append(act.Events, ev)
}

func addSpeedRecord(act *fit.ActivityFile, ts time.Time, speedMMPS uint16) {
	rec := fit.NewRecordMsg()
	rec.Timestamp = ts
	rec.Speed = speedMMPS
	act.Records = append(act.Records, rec)
}

func TestDecodeFITRecordsAndEvents(t *testing.T) {
	data := buildFIT(t, func(act *fit.ActivityFile) {
		addTimerEvent(act, fitStart, fit.EventTypeStart)
		addTimerEvent(act, fitStart.Add(5*time.Second), fit.EventTypeStopAll)
		for i := 0; i < 5; i++ {
			rec := fit.NewRecordMsg()
			rec.Timestamp = fitStart.Add(time.Duration(i) * time.Second)
			rec.Speed = 2500
			rec.HeartRate = uint8(140 + i)
			rec.Power = 250
			rec.Cadence = 90
			act.Records = append(act.Records, rec)
		}
	})

	rec, err := Decode(data, FormatFIT)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if rec.Format != FormatFIT || rec.Size != int64(len(data)) || len(rec.SHA256) != 64 {
		t.Fatalf("unexpected recording metadata: %+v", rec)
	}
	if len(rec.Samples.Records) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(rec.Samples.Records))
	}

	s0 := rec.Samples.Records[0]
	if s0.Speed == nil || *s0.Speed != 2500 {
		t.Fatalf("expected raw speed 2500 mm/s, got %v", s0.Speed)
	}
	if rec.Samples.Units[series.FieldSpeed] != series.UnitMillimetersPerSecond {
		t.Fatalf("expected mm/s unit declaration, got %q", rec.Samples.Units[series.FieldSpeed])
	}
	if s0.HeartRate == nil || *s0.HeartRate != 140 {
		t.Fatalf("expected heart rate 140, got %v", s0.HeartRate)
	}
	if s0.Power == nil || *s0.Power != 250 {
		t.Fatalf("expected power 250, got %v", s0.Power)
	}
	if s0.Distance != nil || s0.Elevation != nil || s0.Lat != nil {
		t.Fatalf("expected unset channels to stay nil, got %+v", s0)
	}

	if len(rec.Events) != 2 {
		t.Fatalf("expected 2 timer events, got %d", len(rec.Events))
	}
	if rec.Events[0].Kind != series.EventStart || rec.Events[0].Trigger != series.TriggerDevice {
		t.Fatalf("unexpected first event: %+v", rec.Events[0])
	}
	if rec.Events[1].Kind != series.EventStop || !rec.Events[1].Timestamp.Equal(fitStart.Add(5*time.Second)) {
		t.Fatalf("unexpected second event: %+v", rec.Events[1])
	}
}

func TestDecodeFITFeedsTableBuilder(t *testing.T) {
	speeds := []uint16{2500, 2500, 2500, 2500, 2500, 100, 100, 100, 2500, 2500}
	data := buildFIT(t, func(act *fit.ActivityFile) {
		addTimerEvent(act, fitStart, fit.EventTypeStart)
		for i, v := range speeds {
			addSpeedRecord(act, fitStart.Add(time.Duration(i)*time.Second), v)
		}
	})

	rec, err := Decode(data, FormatFIT)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	tab, err := series.BuildTable(rec.Samples, rec.Events, series.BuildOptions{RemoveStoppedPeriods: true})
	if err != nil {
		t.Fatalf("BuildTable() error: %v", err)
	}
	if tab.Len() != 7 {
		t.Fatalf("expected 7 retained rows, got %d", tab.Len())
	}
	if got := tab.Column(series.FieldSpeed)[0]; got != 2.5 {
		t.Fatalf("expected normalized speed 2.5 m/s, got %v", got)
	}
	if tab.BlockCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", tab.BlockCount())
	}
}

func TestDecodeFITSessionAndLaps(t *testing.T) {
	data := buildFIT(t, func(act *fit.ActivityFile) {
		addTimerEvent(act, fitStart, fit.EventTypeStart)
		addSpeedRecord(act, fitStart, 2500)
		addSpeedRecord(act, fitStart.Add(time.Second), 2500)

		session := fit.NewSessionMsg()
		session.StartTime = fitStart
		session.Sport = fit.SportRunning
		session.TotalTimerTime = 600000
		session.TotalDistance = 250000
		session.AvgHeartRate = 150
		act.Sessions = append(act.Sessions, session)

		lap := fit.NewLapMsg()
		lap.StartTime = fitStart
		lap.TotalTimerTime = 300000
		lap.AvgHeartRate = 148
		act.Laps = append(act.Laps, lap)
	})

	rec, err := Decode(data, FormatFIT)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	sum := rec.Summary
	if sum == nil {
		t.Fatal("expected session summary")
	}
	if !sum.StartTime.Equal(fitStart) {
		t.Fatalf("unexpected start time %s", sum.StartTime)
	}
	if sum.TotalTimer != 10*time.Minute {
		t.Fatalf("expected 10m timer, got %s", sum.TotalTimer)
	}
	if sum.TotalDistance == nil || *sum.TotalDistance != 2500 {
		t.Fatalf("expected 2500 m, got %v", sum.TotalDistance)
	}
	if sum.AvgHeartRate == nil || *sum.AvgHeartRate != 150 {
		t.Fatalf("expected avg hr 150, got %v", sum.AvgHeartRate)
	}
	if len(rec.Laps) != 1 {
		t.Fatalf("expected 1 lap, got %d", len(rec.Laps))
	}
	if rec.Laps[0].Timer != 5*time.Minute {
		t.Fatalf("expected 5m lap, got %s", rec.Laps[0].Timer)
	}
	if rec.Laps[0].AvgHeartRate == nil || *rec.Laps[0].AvgHeartRate != 148 {
		t.Fatalf("expected lap avg hr 148, got %v", rec.Laps[0].AvgHeartRate)
	}
}

func TestDecodeFITNoRecords(t *testing.T) {
	data := buildFIT(t, func(act *fit.ActivityFile) {
		addTimerEvent(act, fitStart, fit.EventTypeStart)
	})
	_, err := Decode(data, FormatFIT)
	if !series.IsEmptyInput(err) {
		t.Fatalf("expected empty-input error, got %v", err)
	}
}

func TestDecodeFITGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a fit file"), FormatFIT); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestIdentifyFIT(t *testing.T) {
	data := buildFIT(t, func(act *fit.ActivityFile) {
		addSpeedRecord(act, fitStart, 2500)
	})
	info := Identify("morning_run.fit", data)
	if info.Format != FormatFIT {
		t.Fatalf("expected fit format, got %q", info.Format)
	}
	if len(info.SHA256) != 64 || info.Size != int64(len(data)) {
		t.Fatalf("unexpected fingerprint: %+v", info)
	}
	if info.Device == nil {
		t.Fatal("expected device info from file_id message")
	}

	unknown := Identify("notes.txt", []byte("hello"))
	if unknown.Format != "" {
		t.Fatalf("expected empty format, got %q", unknown.Format)
	}
	if unknown.Device != nil {
		t.Fatal("expected nil device for non-fit input")
	}
}
