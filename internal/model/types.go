package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Antigen identifies a stimulus by its integer value.
type Antigen struct {
	Value int `json:"value"`
}

// Antibody pairs an antigen with the effort spent producing the response.
// Effort 0 marks a response recalled from the store rather than produced.
type Antibody struct {
	Antigen Antigen `json:"antigen"`
	Effort  int     `json:"effort"`
}

func (a Antibody) Recalled() bool {
	return a.Effort == 0
}

// AntibodyRecord is the persisted form of a produced antibody. Effort holds the
// first-stored value; later saves for the same antigen never overwrite it.
type AntibodyRecord struct {
	VersionedRecord
	Value         int    `json:"value"`
	Effort        int    `json:"effort"`
	RecordedAtUTC string `json:"recorded_at_utc"`
}

// SessionRecord summarizes one driving-adapter session.
type SessionRecord struct {
	VersionedRecord
	ID           string `json:"id"`
	Source       string `json:"source"`
	Responses    int    `json:"responses"`
	Produced     int    `json:"produced"`
	Recalled     int    `json:"recalled"`
	Invalid      int    `json:"invalid"`
	TotalEffort  int    `json:"total_effort"`
	StartedAtUTC string `json:"started_at_utc"`
}
