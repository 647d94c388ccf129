package filter

import (
	"net/url"
	"slices"
	"strings"

	"github.com/amishk599/oneofjob/internal/model"
)

// Query parameter names. Filter state lives only in the URL.
const (
	ParamCompany = "company"
	ParamCareer  = "career"
	ParamKeyword = "keyword"
	ParamSort    = "sort"
	ParamPage    = "page"
	ParamSize    = "pageSize"
)

// ParseQuery reads the filter criteria from URL query values. company and
// career may repeat; blank values are ignored.
func ParseQuery(q url.Values) Criteria {
	var c Criteria
	for _, v := range q[ParamCompany] {
		if v = strings.TrimSpace(v); v != "" {
			c.Companies = append(c.Companies, v)
		}
	}
	for _, v := range q[ParamCareer] {
		if v = strings.TrimSpace(v); v != "" {
			c.Careers = append(c.Careers, model.CareerLevel(v))
		}
	}
	c.Keyword = strings.TrimSpace(q.Get(ParamKeyword))
	return c
}

// Values encodes c as query values; ParseQuery(c.Values()) yields c again.
func (c Criteria) Values() url.Values {
	q := url.Values{}
	for _, v := range c.Companies {
		q.Add(ParamCompany, v)
	}
	for _, v := range c.Careers {
		q.Add(ParamCareer, string(v))
	}
	if c.Keyword != "" {
		q.Set(ParamKeyword, c.Keyword)
	}
	return q
}

// Toggle adds value to the repeatable parameter key, or removes it if it is
// already selected. Other parameters are kept. q is not modified.
func Toggle(q url.Values, key, value string) url.Values {
	out := cloneValues(q)
	current := out[key]
	if slices.Contains(current, value) {
		current = slices.DeleteFunc(slices.Clone(current), func(v string) bool { return v == value })
	} else {
		current = append(slices.Clone(current), value)
	}
	if len(current) == 0 {
		out.Del(key)
	} else {
		out[key] = current
	}
	out.Del(ParamPage)
	return out
}

// SetKeyword sets the keyword parameter, or removes it when keyword is blank.
func SetKeyword(q url.Values, keyword string) url.Values {
	out := cloneValues(q)
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		out.Set(ParamKeyword, keyword)
	} else {
		out.Del(ParamKeyword)
	}
	out.Del(ParamPage)
	return out
}

// ClearAll drops every filter, sort and paging parameter.
func ClearAll() url.Values {
	return url.Values{}
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = slices.Clone(v)
	}
	return out
}
