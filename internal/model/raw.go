package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CareerKind tags which upstream career field a raw record carried.
type CareerKind int

const (
	CareerUnset  CareerKind = iota // neither "career" nor "careers"
	CareerSingle                   // singular "career"
	CareerList                     // plural "careers"
)

// CareerSpec is the decoded career field of a raw record. Upstream sends
// either a single level, a list of levels, or nothing at all; if both fields
// are present the list wins.
type CareerSpec struct {
	Kind   CareerKind
	Levels []CareerLevel
}

// SingleCareer builds the CareerSpec for a record that carried "career".
func SingleCareer(level CareerLevel) CareerSpec {
	return CareerSpec{Kind: CareerSingle, Levels: []CareerLevel{level}}
}

// CareerListOf builds the CareerSpec for a record that carried "careers".
func CareerListOf(levels ...CareerLevel) CareerSpec {
	return CareerSpec{Kind: CareerList, Levels: levels}
}

// TimeKind tags the shape of an upstream timestamp.
type TimeKind int

const (
	TimeAbsent TimeKind = iota
	TimeText            // date-time string
	TimeEpoch           // structured {seconds, nanoseconds}
)

// RawTime is an upstream date that is absent, a date-time string, or a
// structured epoch pair. Both the {seconds, nanoseconds} and the Firestore
// admin {_seconds, _nanoseconds} spellings decode to TimeEpoch.
type RawTime struct {
	Kind        TimeKind
	Text        string
	Seconds     int64
	Nanoseconds int64
}

// TextTime builds a string-shaped RawTime.
func TextTime(s string) RawTime {
	return RawTime{Kind: TimeText, Text: s}
}

// EpochTime builds a structured RawTime.
func EpochTime(seconds, nanoseconds int64) RawTime {
	return RawTime{Kind: TimeEpoch, Seconds: seconds, Nanoseconds: nanoseconds}
}

// UnmarshalJSON never fails: shapes it does not recognise decode as TimeAbsent.
func (t *RawTime) UnmarshalJSON(data []byte) error {
	*t = RawTime{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		*t = TextTime(s)
	case '{':
		var ts struct {
			Seconds          *int64 `json:"seconds"`
			Nanoseconds      int64  `json:"nanoseconds"`
			AdminSeconds     *int64 `json:"_seconds"`
			AdminNanoseconds int64  `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(data, &ts); err != nil {
			return nil
		}
		switch {
		case ts.Seconds != nil:
			*t = EpochTime(*ts.Seconds, ts.Nanoseconds)
		case ts.AdminSeconds != nil:
			*t = EpochTime(*ts.AdminSeconds, ts.AdminNanoseconds)
		}
	}
	return nil
}

// RawJobRecord is one job as the upstream API sends it. Its shape varies by
// the crawler that produced it; see CareerSpec and RawTime.
type RawJobRecord struct {
	ID             string `validate:"required"`
	Title          string `validate:"required"`
	Company        string `validate:"required"`
	Career         CareerSpec
	EmploymentType EmploymentKind
	StartDate      RawTime
	EndDate        RawTime
	Period         string
	URL            string
}

// UnmarshalJSON decodes any of the known upstream shapes, including records
// that are already in canonical Job form.
func (r *RawJobRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID             json.RawMessage `json:"id"`
		Title          string          `json:"title"`
		Company        string          `json:"company"`
		Career         json.RawMessage `json:"career"`
		Careers        json.RawMessage `json:"careers"`
		EmploymentType EmploymentKind  `json:"employmentType"`
		StartDate      RawTime         `json:"startDate"`
		EndDate        RawTime         `json:"endDate"`
		Period         string          `json:"period"`
		URL            string          `json:"url"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = RawJobRecord{
		ID:             decodeID(wire.ID),
		Title:          wire.Title,
		Company:        wire.Company,
		EmploymentType: wire.EmploymentType,
		StartDate:      wire.StartDate,
		EndDate:        wire.EndDate,
		Period:         wire.Period,
		URL:            wire.URL,
	}

	if levels := decodeLevels(wire.Careers); len(levels) > 0 {
		r.Career = CareerSpec{Kind: CareerList, Levels: levels}
	} else if levels := decodeLevels(wire.Career); len(levels) > 0 {
		r.Career = CareerSpec{Kind: CareerSingle, Levels: levels}
	}
	return nil
}

// decodeID accepts string and numeric IDs.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeLevels accepts a single level or a list of levels. Empty values are dropped.
func decodeLevels(raw json.RawMessage) []CareerLevel {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var one string
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		list = []string{one}
	}

	levels := make([]CareerLevel, 0, len(list))
	for _, l := range list {
		if l = strings.TrimSpace(l); l != "" {
			levels = append(levels, CareerLevel(l))
		}
	}
	return levels
}
