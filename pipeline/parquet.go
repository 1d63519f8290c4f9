package pipeline

import (
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type tableParquetRow struct {
	Block        int64   `parquet:"name=block, type=INT64"`
	OffsetS      float64 `parquet:"name=offset_s, type=DOUBLE"`
	Timestamp    string  `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	ElevationM   float64 `parquet:"name=elevation_m, type=DOUBLE"`
	LatDeg       float64 `parquet:"name=lat_deg, type=DOUBLE"`
	LonDeg       float64 `parquet:"name=lon_deg, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=heart_rate_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	PowerW       float64 `parquet:"name=power_w, type=DOUBLE"`
	RunPowerWKG  float64 `parquet:"name=run_power_wkg, type=DOUBLE"`
	Grade        float64 `parquet:"name=grade, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	Excised      bool    `parquet:"name=excised, type=BOOLEAN"`
}

// writeTableParquet writes rows as snappy-compressed parquet. Missing
// readings stay NaN; the schema is fixed, so the excised column is present
// in every bundle and false outside debug runs.
func writeTableParquet(path string, rows []exportRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(tableParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := tableParquetRow{
			Block:        int64(r.Block),
			OffsetS:      r.OffsetS,
			Timestamp:    r.Timestamp.Format(time.RFC3339),
			SpeedMPS:     r.SpeedMPS,
			DistanceM:    r.DistanceM,
			ElevationM:   r.ElevationM,
			LatDeg:       r.LatDeg,
			LonDeg:       r.LonDeg,
			HRBPM:        r.HRBPM,
			CadenceRPM:   r.CadenceRPM,
			PowerW:       r.PowerW,
			RunPowerWKG:  r.RunPowerWKG,
			Grade:        r.Grade,
			TemperatureC: r.TemperatureC,
			Excised:      r.Excised,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
