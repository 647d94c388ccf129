package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRawTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  RawTime
	}{
		{"null", `null`, RawTime{}},
		{"empty string", `""`, RawTime{}},
		{"iso string", `"2025-04-01T00:00:00Z"`, TextTime("2025-04-01T00:00:00Z")},
		{"structured", `{"seconds": 1700000000, "nanoseconds": 5}`, EpochTime(1700000000, 5)},
		{"firestore admin spelling", `{"_seconds": 1747008000, "_nanoseconds": 0}`, EpochTime(1747008000, 0)},
		{"object without seconds", `{"foo": 1}`, RawTime{}},
		{"number", `1700000000`, RawTime{}},
		{"array", `[1, 2]`, RawTime{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RawTime
			if err := got.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRawJobRecord_CareerVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  CareerSpec
	}{
		{"plural", `{"careers": ["신입", "경력"]}`, CareerListOf(CareerNewGrad, CareerExperienced)},
		{"singular", `{"career": "인턴"}`, SingleCareer(CareerIntern)},
		{"both prefers plural", `{"career": "인턴", "careers": ["경력"]}`, CareerListOf(CareerExperienced)},
		{"empty plural falls to singular", `{"career": "인턴", "careers": []}`, SingleCareer(CareerIntern)},
		{"plural given as string", `{"careers": "신입"}`, CareerListOf(CareerNewGrad)},
		{"neither", `{}`, CareerSpec{}},
		{"blank values dropped", `{"careers": ["", " "]}`, CareerSpec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RawJobRecord
			if err := json.Unmarshal([]byte(tt.input), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(r.Career, tt.want) {
				t.Errorf("Career = %+v, want %+v", r.Career, tt.want)
			}
		})
	}
}

func TestRawJobRecord_IDForms(t *testing.T) {
	for input, want := range map[string]string{
		`{"id": "abc"}`: "abc",
		`{"id": 12345}`: "12345",
		`{"id": null}`:  "",
		`{}`:            "",
	} {
		var r RawJobRecord
		if err := json.Unmarshal([]byte(input), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		if r.ID != want {
			t.Errorf("%s: ID = %q, want %q", input, r.ID, want)
		}
	}
}

func TestJob_HasCareerAndTimes(t *testing.T) {
	j := Job{
		Careers:   []CareerLevel{CareerNewGrad},
		StartDate: "2025-04-01T00:00:00.000Z",
	}
	if !j.HasCareer(CareerNewGrad) || j.HasCareer(CareerIntern) {
		t.Errorf("HasCareer mismatch for %v", j.Careers)
	}
	if _, ok := j.StartTime(); !ok {
		t.Error("expected StartTime to parse")
	}
	if _, ok := j.EndTime(); ok {
		t.Error("expected EndTime to be absent")
	}
}
