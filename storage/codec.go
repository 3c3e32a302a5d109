package storage

import (
	"errors"

	"github.com/sugawarayuuta/sonnet"
)

// ErrVersionMismatch reports a persisted payload with an unsupported schema
// or codec version.
var ErrVersionMismatch = errors.New("record version mismatch")

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// EncodeRun serializes a run record.
func EncodeRun(r RunRecord) ([]byte, error) {
	return sonnet.Marshal(r)
}

// DecodeRun deserializes and version-checks a run record.
func DecodeRun(data []byte) (RunRecord, error) {
	var run RunRecord
	if err := sonnet.Unmarshal(data, &run); err != nil {
		return RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

// EncodeFrame serializes a frame.
func EncodeFrame(f Frame) ([]byte, error) {
	return sonnet.Marshal(f)
}

// DecodeFrame deserializes and version-checks a frame.
func DecodeFrame(data []byte) (Frame, error) {
	var frame Frame
	if err := sonnet.Unmarshal(data, &frame); err != nil {
		return Frame{}, err
	}
	if err := checkVersion(frame.VersionedRecord); err != nil {
		return Frame{}, err
	}
	return frame, nil
}
