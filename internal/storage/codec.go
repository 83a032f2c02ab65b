package storage

import (
	"encoding/json"
	"errors"

	"lymphos/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeAntibodyRecord(r model.AntibodyRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeAntibodyRecord(data []byte) (model.AntibodyRecord, error) {
	var record model.AntibodyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.AntibodyRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.AntibodyRecord{}, err
	}
	return record, nil
}

func EncodeSession(s model.SessionRecord) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSession(data []byte) (model.SessionRecord, error) {
	var session model.SessionRecord
	if err := json.Unmarshal(data, &session); err != nil {
		return model.SessionRecord{}, err
	}
	if err := checkVersion(session.VersionedRecord); err != nil {
		return model.SessionRecord{}, err
	}
	return session, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
