package decode

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tormoder/fit"
)

// FileInfo describes a recording file without fully decoding it.
type FileInfo struct {
	Name   string
	Format Format
	SHA256 string
	Size   int64
	// Device is populated for FIT files whose header and file_id message
	// parse cleanly; nil otherwise.
	Device *DeviceInfo
}

// DeviceInfo is the recording device identity from a FIT file_id message.
type DeviceInfo struct {
	Manufacturer string
	Product      string
	SerialNumber uint32
	TimeCreated  time.Time
}

// Identify fingerprints a recording: format, content hash, and, for FIT
// files, the recording device. It never fails; unknown inputs simply come
// back with an empty format.
func Identify(name string, data []byte) FileInfo {
	sum := sha256.Sum256(data)
	info := FileInfo{
		Name:   name,
		Format: Sniff(name, data),
		SHA256: hex.EncodeToString(sum[:]),
		Size:   int64(len(data)),
	}
	if info.Format == FormatFIT {
		info.Device = fitDevice(data)
	}
	return info
}

func fitDevice(data []byte) *DeviceInfo {
	_, id, err := fit.DecodeHeaderAndFileID(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	dev := &DeviceInfo{
		Manufacturer: fmt.Sprint(id.Manufacturer),
		Product:      fmt.Sprint(id.GetProduct()),
		SerialNumber: id.SerialNumber,
	}
	if !id.TimeCreated.IsZero() {
		dev.TimeCreated = id.TimeCreated.UTC()
	}
	return dev
}
