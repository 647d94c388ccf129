package server

import (
	"net/http"

	"github.com/amishk599/oneofjob/internal/display"
	"github.com/amishk599/oneofjob/internal/filter"
	"github.com/amishk599/oneofjob/internal/model"
)

type filterEcho struct {
	Companies []string            `json:"companies"`
	Careers   []model.CareerLevel `json:"careers"`
	Keyword   string              `json:"keyword"`
}

type jobListResponse struct {
	Items    []display.JobView `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	HasMore  bool              `json:"hasMore"`
	Sort     filter.SortOption `json:"sort"`
	Filters  filterEcho        `json:"filters"`
}

// handleListJobs serves the filtered, sorted and paginated listing.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.cache.Jobs(r.Context())
	if err != nil {
		s.upstreamError(w, r, "jobs", err)
		return
	}

	q := r.URL.Query()
	criteria := filter.ParseQuery(q)
	sortBy := filter.ParseSort(q.Get(filter.ParamSort))
	size := filter.ParsePage(q.Get(filter.ParamSize))
	if size == 0 {
		size = s.cfg.PageSize
	}

	matched := filter.Sort(filter.Apply(jobs, criteria), sortBy)
	page := filter.Paginate(matched, filter.ParsePage(q.Get(filter.ParamPage)), size)

	s.jsonResponse(w, http.StatusOK, jobListResponse{
		Items:    display.Views(page.Items, s.now()),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		HasMore:  page.HasMore,
		Sort:     sortBy,
		Filters: filterEcho{
			Companies: nonNil(criteria.Companies),
			Careers:   nonNil(criteria.Careers),
			Keyword:   criteria.Keyword,
		},
	})
}

// handleLatestJobs serves the most recently started jobs for the landing page.
func (s *Server) handleLatestJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.cache.Jobs(r.Context())
	if err != nil {
		s.upstreamError(w, r, "jobs", err)
		return
	}
	latest := filter.Sort(jobs, filter.SortRecent)
	if len(latest) > s.cfg.LatestCount {
		latest = latest[:s.cfg.LatestCount]
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"items": display.Views(latest, s.now()),
		"total": len(jobs),
	})
}

// handleGetJob serves one job, from the cached listing when possible.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.errorResponse(w, http.StatusBadRequest, "job id is required")
		return
	}

	jobs, err := s.cache.Jobs(r.Context())
	if err != nil {
		s.log(r).Warn("job listing unavailable, asking upstream directly", "id", id, "error", err)
	}
	for _, j := range jobs {
		if j.ID == id {
			s.jsonResponse(w, http.StatusOK, display.NewJobView(j, s.now()))
			return
		}
	}

	if s.details == nil {
		s.errorResponse(w, http.StatusNotFound, "job not found")
		return
	}
	job, err := s.details.FetchJob(r.Context(), id)
	if err != nil {
		s.upstreamError(w, r, "job", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, display.NewJobView(job, s.now()))
}

// handleListCompanies serves the company names for the filter panel.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string][]string{
		"companies": nonNil(s.cache.Companies(r.Context())),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
