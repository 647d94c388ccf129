package upstream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"github.com/amishk599/oneofjob/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient points a Client at a test server that replies with body for every path.
func newTestClient(t *testing.T, status int, body string) (*Client, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client(), discardLogger()), &paths
}

func TestFetchJobs_Success(t *testing.T) {
	payload := `[
		{"id": "1", "title": "프론트엔드 개발자", "company": "NAVER", "careers": ["경력"],
		 "employmentType": "정규직", "startDate": "2025-04-01T00:00:00Z", "endDate": "2025-04-30T23:59:59Z",
		 "url": "https://recruit.navercorp.com/naver/job/detail/developer"},
		{"id": "8", "title": "DevOps 엔지니어", "company": "KAKAO", "career": "경력",
		 "employmentType": "정규직", "period": "상시채용", "url": "https://careers.kakao.com/jobs"}
	]`
	c, paths := newTestClient(t, http.StatusOK, payload)

	jobs, err := c.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if (*paths)[0] != "/jobs" {
		t.Errorf("unexpected request path %q", (*paths)[0])
	}

	j := jobs[0]
	if j.ID != "1" || j.Company != "NAVER" || j.Title != "프론트엔드 개발자" {
		t.Errorf("unexpected job: %+v", j)
	}
	if j.StartDate != "2025-04-01T00:00:00.000Z" {
		t.Errorf("expected normalized start date, got %q", j.StartDate)
	}
	if !reflect.DeepEqual(jobs[1].Careers, []model.CareerLevel{model.CareerExperienced}) {
		t.Errorf("expected singular career to be wrapped, got %v", jobs[1].Careers)
	}
	if jobs[1].Period != "상시채용" {
		t.Errorf("expected period passthrough, got %q", jobs[1].Period)
	}
}

func TestFetchJobs_Envelope(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success": true, "data": [{"id": "1", "title": "t", "company": "LINE"}]}`)

	jobs, err := c.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Company != "LINE" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestFetchJobs_SkipsBadAndDuplicateRecords(t *testing.T) {
	payload := `[
		{"id": "1", "title": "a", "company": "NAVER"},
		{"id": "1", "title": "dup", "company": "NAVER"},
		{"title": "no id", "company": "NAVER"},
		{"id": "2", "title": 5, "company": "NAVER"},
		{"id": "3", "title": "c", "company": "KAKAO"}
	]`
	c, _ := newTestClient(t, http.StatusOK, payload)

	jobs, err := c.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	if !reflect.DeepEqual(ids, []string{"1", "3"}) {
		t.Errorf("kept ids = %v, want [1 3]", ids)
	}
	if jobs[0].Title != "a" {
		t.Errorf("expected first occurrence to win, got title %q", jobs[0].Title)
	}
}

func TestFetchJobsWhere_PassesQuery(t *testing.T) {
	c, paths := newTestClient(t, http.StatusOK, `[]`)

	q := url.Values{"company": {"KAKAO"}, "career": {""}}
	if _, err := c.FetchJobsWhere(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*paths)[0] != "/jobs?company=KAKAO" {
		t.Errorf("unexpected request %q", (*paths)[0])
	}
}

func TestFetchJobs_MalformedJSON(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{not valid json`)

	if _, err := c.FetchJobs(context.Background()); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestFetchJobs_HTTPError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, `boom`)

	_, err := c.FetchJobs(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", httpErr.StatusCode)
	}
}

func TestFetchJob_Success(t *testing.T) {
	payload := `{"id": "7", "title": "인턴 프로그래머", "company": "NAVER", "careers": ["인턴"],
		"startDate": {"_seconds": 1747008000, "_nanoseconds": 0}}`
	c, paths := newTestClient(t, http.StatusOK, payload)

	job, err := c.FetchJob(context.Background(), "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*paths)[0] != "/jobs/7" {
		t.Errorf("unexpected path %q", (*paths)[0])
	}
	if job.StartDate != "2025-05-12T00:00:00.000Z" {
		t.Errorf("expected structured start date to be normalized, got %q", job.StartDate)
	}
}

func TestFetchJob_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, ``)

	_, err := c.FetchJob(context.Background(), "999")
	if !errors.Is(err, model.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestFetchCompanies(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"bare list", `["NAVER", "KAKAO", "LINE"]`, []string{"NAVER", "KAKAO", "LINE"}},
		{"envelope", `{"companies": ["NAVER"]}`, []string{"NAVER"}},
		{"objects", `[{"name": "KAKAO"}, {"name": ""}]`, []string{"KAKAO"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.StatusOK, tt.payload)
			got, err := c.FetchCompanies(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
