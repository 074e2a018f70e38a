package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

const hhPayload = `{
	"pages": 2,
	"items": [
		{
			"name": "Junior Data Analyst",
			"alternate_url": "https://hh.ru/vacancy/101",
			"published_at": "2026-03-09T10:15:00+0300",
			"employer": {"name": "Acme"},
			"area": {"name": "Moscow"},
			"salary": {"from": 120000, "to": null, "currency": "RUR"},
			"snippet": {"requirement": "Knowledge of <highlighttext>SQL</highlighttext>", "responsibility": "Build reports"},
			"experience": {"id": "noExperience"}
		}
	]
}`

func TestHHFetch(t *testing.T) {
	var calls atomic.Int32
	var lastQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lastQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hhPayload))
	}))
	defer srv.Close()

	src := NewHHSource("hh", "Data Analyst", HHSearch{AreaID: "1"}, srv.URL, srv.Client())
	since := time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)

	jobs, err := src.Fetch(context.Background(), &since)
	require.NoError(t, err)
	require.Len(t, jobs, 2, "two pages of one item each")
	assert.EqualValues(t, 2, calls.Load())

	q := lastQuery.Load().(url.Values)
	assert.Equal(t, "Data Analyst", q.Get("text"))
	assert.Equal(t, "1", q.Get("area"))
	assert.Equal(t, "publication_time", q.Get("order_by"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "2026-03-09T06:00:00+0000", q.Get("date_from"))

	j := jobs[0]
	assert.Equal(t, "Junior Data Analyst", j.Title)
	assert.Equal(t, "Acme", j.Company)
	assert.Equal(t, "Moscow", j.Location)
	assert.Equal(t, "120000-120000 RUR", j.SalaryText)
	assert.Equal(t, "No experience required, freshers welcome. Knowledge of SQL. Build reports", j.Description)
	assert.Equal(t, "2026-03-09T10:15:00+0300", j.PostedText)
	assert.True(t, model.SupportsSince(src))
}

func TestHHFetch_NoSinceOmitsDateFrom(t *testing.T) {
	var lastQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"pages": 1, "items": []}`))
	}))
	defer srv.Close()

	src := NewHHSource("hh", "Data Analyst", HHSearch{}, srv.URL, srv.Client())
	jobs, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Empty(t, lastQuery.Load().(url.Values).Get("date_from"))
}

func TestHHSalary_INR(t *testing.T) {
	from, to := 1500000.0, 2000000.0
	v := hhVacancy{}
	v.Salary = &struct {
		From     *float64 `json:"from"`
		To       *float64 `json:"to"`
		Currency string   `json:"currency"`
	}{From: &from, To: &to, Currency: "INR"}
	assert.Equal(t, "15-20 LPA", hhSalary(v))
}
