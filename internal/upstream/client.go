// Package upstream is the HTTP client for the backend job-data API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/oneofjob/internal/model"
	"github.com/amishk599/oneofjob/internal/normalize"
)

var (
	_ model.JobFetcher       = (*Client)(nil)
	_ model.JobDetailFetcher = (*Client)(nil)
	_ model.CompanyFetcher   = (*Client)(nil)
)

// Client fetches job records from the upstream API and normalizes them.
type Client struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, client *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		validate: validator.New(),
		logger:   logger,
	}
}

// FetchJobs retrieves every job posting.
func (c *Client) FetchJobs(ctx context.Context) ([]model.Job, error) {
	return c.FetchJobsWhere(ctx, nil)
}

// FetchJobsWhere retrieves job postings, passing query through to the API
// (company, career, employmentType, title). Empty values are not sent.
func (c *Client) FetchJobsWhere(ctx context.Context, query url.Values) ([]model.Job, error) {
	body, err := c.get(ctx, "/jobs", compact(query))
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}

	items, err := unwrapList(body, "jobs")
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}

	raws := make([]model.RawJobRecord, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		var raw model.RawJobRecord
		if err := json.Unmarshal(item, &raw); err != nil {
			c.logger.Warn("skipping undecodable job record", "index", i, "error", err)
			continue
		}
		if err := c.validate.Struct(raw); err != nil {
			c.logger.Warn("skipping incomplete job record", "index", i, "id", raw.ID, "error", err)
			continue
		}
		if seen[raw.ID] {
			c.logger.Warn("skipping duplicate job id", "id", raw.ID)
			continue
		}
		if raw.Career.Kind == model.CareerUnset {
			c.logger.Debug("job record has no career level, using default", "id", raw.ID, "careers", normalize.DefaultCareers)
		}
		seen[raw.ID] = true
		raws = append(raws, raw)
	}

	c.logger.Debug("fetched jobs", "received", len(items), "kept", len(raws))
	return normalize.Jobs(raws), nil
}

// FetchJob retrieves one job posting. A 404 from the API is reported as
// model.ErrJobNotFound.
func (c *Client) FetchJob(ctx context.Context, id string) (model.Job, error) {
	body, err := c.get(ctx, "/jobs/"+url.PathEscape(id), nil)
	if err != nil {
		var httpErr *model.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return model.Job{}, fmt.Errorf("fetch job %s: %w", id, model.ErrJobNotFound)
		}
		return model.Job{}, fmt.Errorf("fetch job %s: %w", id, err)
	}

	item, err := unwrapObject(body, "job")
	if err != nil {
		return model.Job{}, fmt.Errorf("fetch job %s: %w", id, err)
	}

	var raw model.RawJobRecord
	if err := json.Unmarshal(item, &raw); err != nil {
		return model.Job{}, fmt.Errorf("fetch job %s: %w", id, err)
	}
	if raw.ID == "" {
		raw.ID = id
	}
	return normalize.Job(raw), nil
}

// FetchCompanies retrieves the supported company names.
func (c *Client) FetchCompanies(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/companies", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch companies: %w", err)
	}

	items, err := unwrapList(body, "companies")
	if err != nil {
		return nil, fmt.Errorf("fetch companies: %w", err)
	}

	companies := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			// Some deployments send {"name": "..."} objects.
			var obj struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(item, &obj); err != nil {
				continue
			}
			name = obj.Name
		}
		if name = strings.TrimSpace(name); name != "" {
			companies = append(companies, name)
		}
	}
	return companies, nil
}

// unwrapList accepts a bare JSON array or an object carrying the array under
// "data" or the given key.
func unwrapList(body []byte, key string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	for _, k := range []string{"data", key} {
		if inner, ok := envelope[k]; ok {
			var items []json.RawMessage
			if err := json.Unmarshal(inner, &items); err != nil {
				return nil, fmt.Errorf("decode %s: %w", k, err)
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("response has no list under \"data\" or %q", key)
}

// unwrapObject accepts a bare record or one wrapped under "data" or key.
func unwrapObject(body []byte, key string) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	for _, k := range []string{"data", key} {
		if inner, ok := envelope[k]; ok && len(inner) > 0 && inner[0] == '{' {
			return inner, nil
		}
	}
	return body, nil
}

func compact(query url.Values) url.Values {
	if len(query) == 0 {
		return nil
	}
	out := make(url.Values, len(query))
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				out.Add(k, v)
			}
		}
	}
	return out
}
