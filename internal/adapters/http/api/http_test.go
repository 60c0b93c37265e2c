package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	api "github.com/okian/vitae/internal/adapters/http/api"
	"github.com/okian/vitae/internal/adapters/repository"
	"github.com/okian/vitae/internal/domain/analytics"
	"github.com/okian/vitae/internal/domain/jobs"
	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/internal/domain/report"
	"github.com/okian/vitae/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

// mockDeps scripts every dependency the handlers reach for.
type mockDeps struct {
	submitRecord *model.AnalysisRecord
	submitErr    error

	enqueueOK      bool
	enqueueAccepts int
	enqueueJobs    []jobs.Job

	deleteErr error

	job   jobs.Job
	jobOK bool

	getRecord *model.AnalysisRecord
	getErr    error

	listRecords []*model.AnalysisRecord
	listLimit   int
	listOffset  int

	metrics analytics.Metrics

	best map[model.Area]*model.AnalysisRecord

	reportData    []byte
	reportFilters report.Filters
	reportFormat  report.Format
	reportOneID   string
}

func (m *mockDeps) Submit(_ context.Context, _, _ string) (*model.AnalysisRecord, error) {
	return m.submitRecord, m.submitErr
}

func (m *mockDeps) EnqueueSubmission(_ context.Context, _, filename string) (jobs.Job, bool) {
	ok := m.enqueueOK
	if m.enqueueAccepts > 0 && len(m.enqueueJobs) >= m.enqueueAccepts {
		ok = false
	}
	job := jobs.Job{ID: "job-" + filename, Filename: filename, Status: jobs.StatusQueued}
	if !ok {
		job.Status = jobs.StatusFailed
		job.Error = "submission queue is full"
	}
	m.enqueueJobs = append(m.enqueueJobs, job)
	return job, ok
}

func (m *mockDeps) Delete(_ context.Context, _ string) error { return m.deleteErr }

func (m *mockDeps) Job(_ context.Context, _ string) (jobs.Job, bool) { return m.job, m.jobOK }

func (m *mockDeps) Get(_ context.Context, _ string) (*model.AnalysisRecord, error) {
	return m.getRecord, m.getErr
}

func (m *mockDeps) List(_ context.Context, limit, offset int) ([]*model.AnalysisRecord, error) {
	m.listLimit = limit
	m.listOffset = offset
	return m.listRecords, nil
}

func (m *mockDeps) Metrics(_ context.Context) (analytics.Metrics, error) {
	return m.metrics, nil
}

func (m *mockDeps) BestCandidates(_ context.Context) (map[model.Area]*model.AnalysisRecord, error) {
	return m.best, nil
}

func (m *mockDeps) Report(_ context.Context, f report.Filters, format report.Format) ([]byte, error) {
	m.reportFilters = f
	m.reportFormat = format
	return m.reportData, nil
}

func (m *mockDeps) ReportOne(_ context.Context, id string, format report.Format) ([]byte, error) {
	m.reportOneID = id
	m.reportFormat = format
	return m.reportData, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "workerCount": 4}
}

func newTestServer(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	srv := api.NewServer(deps, mockStats{}, 100, 10)
	srv.Register(context.Background(), mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestSubmitEndpoint(t *testing.T) {
	convey.Convey("Given the analyses endpoint", t, func() {
		deps := &mockDeps{
			submitRecord: &model.AnalysisRecord{ID: "rec-1", Filename: "cv.pdf"},
		}
		mux := newTestServer(deps)

		convey.Convey("A valid submission returns 201 with the record", func() {
			rr := doRequest(mux, http.MethodPost, "/analyses", `{"cv_text":"text","filename":"cv.pdf"}`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusCreated)

			var rec model.AnalysisRecord
			convey.So(json.Unmarshal(rr.Body.Bytes(), &rec), convey.ShouldBeNil)
			convey.So(rec.ID, convey.ShouldEqual, "rec-1")
		})

		convey.Convey("A missing cv_text returns 400", func() {
			rr := doRequest(mux, http.MethodPost, "/analyses", `{"filename":"cv.pdf"}`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A malformed body returns 400", func() {
			rr := doRequest(mux, http.MethodPost, "/analyses", `{"cv_text":`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("An empty analysis error maps to 400", func() {
			deps.submitRecord = nil
			deps.submitErr = scoring.ErrEmptyCV
			rr := doRequest(mux, http.MethodPost, "/analyses", `{"cv_text":"   x","filename":"cv.pdf"}`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("An exhausted upstream maps to 502", func() {
			deps.submitRecord = nil
			deps.submitErr = scoring.ErrAllAreasFailed
			rr := doRequest(mux, http.MethodPost, "/analyses", `{"cv_text":"text"}`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadGateway)

			var resp map[string]string
			convey.So(json.Unmarshal(rr.Body.Bytes(), &resp), convey.ShouldBeNil)
			convey.So(resp["code"], convey.ShouldEqual, "upstream_exhausted")
		})
	})
}

func TestListEndpoint(t *testing.T) {
	convey.Convey("Given stored analyses", t, func() {
		deps := &mockDeps{
			listRecords: []*model.AnalysisRecord{{ID: "rec-1"}, {ID: "rec-2"}},
		}
		mux := newTestServer(deps)

		convey.Convey("Listing without a limit uses the default", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.listLimit, convey.ShouldEqual, 50)
		})

		convey.Convey("An explicit limit is passed through", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?limit=7", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.listLimit, convey.ShouldEqual, 7)
		})

		convey.Convey("A limit above the cap is clamped", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?limit=5000", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.listLimit, convey.ShouldEqual, 100)
		})

		convey.Convey("A non-numeric limit returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?limit=abc", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A negative limit returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?limit=-3", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("An explicit offset is passed through", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?limit=5&offset=20", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.listLimit, convey.ShouldEqual, 5)
			convey.So(deps.listOffset, convey.ShouldEqual, 20)
		})

		convey.Convey("An omitted offset defaults to zero", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.listOffset, convey.ShouldEqual, 0)
		})

		convey.Convey("A negative offset returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?offset=-1", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A non-numeric offset returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses?offset=abc", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAnalysisByIDEndpoint(t *testing.T) {
	convey.Convey("Given the single analysis endpoint", t, func() {
		deps := &mockDeps{
			getRecord: &model.AnalysisRecord{ID: "rec-1", Filename: "cv.pdf"},
		}
		mux := newTestServer(deps)

		convey.Convey("Fetching an existing record returns 200", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses/rec-1", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Fetching a missing record returns 404", func() {
			deps.getRecord = nil
			deps.getErr = repository.ErrNotFound
			rr := doRequest(mux, http.MethodGet, "/analyses/nope", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Deleting returns 204", func() {
			rr := doRequest(mux, http.MethodDelete, "/analyses/rec-1", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusNoContent)
		})

		convey.Convey("Deleting a missing record returns 404", func() {
			deps.deleteErr = repository.ErrNotFound
			rr := doRequest(mux, http.MethodDelete, "/analyses/nope", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("A nested path returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses/rec-1/extra", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	convey.Convey("Given the batch endpoint", t, func() {
		deps := &mockDeps{enqueueOK: true}
		mux := newTestServer(deps)

		convey.Convey("A valid batch returns 202 with one job per item", func() {
			body := `{"items":[{"cv_text":"a","filename":"a.pdf"},{"cv_text":"b","filename":"b.pdf"}]}`
			rr := doRequest(mux, http.MethodPost, "/analyses/batch", body)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusAccepted)

			var resp struct {
				Jobs []jobs.Job `json:"jobs"`
			}
			convey.So(json.Unmarshal(rr.Body.Bytes(), &resp), convey.ShouldBeNil)
			convey.So(len(resp.Jobs), convey.ShouldEqual, 2)
			convey.So(resp.Jobs[0].Status, convey.ShouldEqual, jobs.StatusQueued)
		})

		convey.Convey("An empty batch returns 400", func() {
			rr := doRequest(mux, http.MethodPost, "/analyses/batch", `{"items":[]}`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A batch over the size cap returns 400", func() {
			items := make([]string, 11)
			for i := range items {
				items[i] = `{"cv_text":"x"}`
			}
			body := `{"items":[` + strings.Join(items, ",") + `]}`
			rr := doRequest(mux, http.MethodPost, "/analyses/batch", body)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("An item without cv_text returns 400", func() {
			body := `{"items":[{"cv_text":"a"},{"filename":"b.pdf"}]}`
			rr := doRequest(mux, http.MethodPost, "/analyses/batch", body)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A full queue returns 429", func() {
			deps.enqueueOK = false
			rr := doRequest(mux, http.MethodPost, "/analyses/batch", `{"items":[{"cv_text":"a"}]}`)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusTooManyRequests)
		})

		convey.Convey("Backpressure partway through a batch keeps accepted job ids", func() {
			deps.enqueueAccepts = 1
			body := `{"items":[{"cv_text":"a","filename":"a.pdf"},{"cv_text":"b","filename":"b.pdf"}]}`
			rr := doRequest(mux, http.MethodPost, "/analyses/batch", body)
			convey.So(rr.Code, convey.ShouldEqual, http.StatusTooManyRequests)

			var resp struct {
				Code string     `json:"code"`
				Jobs []jobs.Job `json:"jobs"`
			}
			convey.So(json.Unmarshal(rr.Body.Bytes(), &resp), convey.ShouldBeNil)
			convey.So(resp.Code, convey.ShouldEqual, "backpressure")

			convey.Convey("The accepted item's job id is still pollable", func() {
				convey.So(len(resp.Jobs), convey.ShouldEqual, 2)
				convey.So(resp.Jobs[0].ID, convey.ShouldEqual, "job-a.pdf")
				convey.So(resp.Jobs[0].Status, convey.ShouldEqual, jobs.StatusQueued)
			})

			convey.Convey("The rejected item's job is marked failed", func() {
				convey.So(resp.Jobs[1].Status, convey.ShouldEqual, jobs.StatusFailed)
				convey.So(resp.Jobs[1].Error, convey.ShouldContainSubstring, "queue is full")
			})
		})

		convey.Convey("GET is not allowed", func() {
			rr := doRequest(mux, http.MethodGet, "/analyses/batch", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestJobsEndpoint(t *testing.T) {
	convey.Convey("Given the jobs endpoint", t, func() {
		deps := &mockDeps{
			job:   jobs.Job{ID: "job-1", Status: jobs.StatusComplete, AnalysisID: "rec-1"},
			jobOK: true,
		}
		mux := newTestServer(deps)

		convey.Convey("Fetching a known job returns 200", func() {
			rr := doRequest(mux, http.MethodGet, "/jobs/job-1", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)

			var job jobs.Job
			convey.So(json.Unmarshal(rr.Body.Bytes(), &job), convey.ShouldBeNil)
			convey.So(job.AnalysisID, convey.ShouldEqual, "rec-1")
		})

		convey.Convey("Fetching an unknown job returns 404", func() {
			deps.jobOK = false
			rr := doRequest(mux, http.MethodGet, "/jobs/nope", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("An empty job id returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/jobs/", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestMetricsEndpoint(t *testing.T) {
	convey.Convey("Given the metrics endpoint", t, func() {
		deps := &mockDeps{
			metrics: analytics.Metrics{
				TotalAnalyses: 3,
				AreaCounts:    map[model.Area]int{model.AreaLegal: 2},
			},
		}
		mux := newTestServer(deps)

		convey.Convey("Aggregate metrics are returned as JSON", func() {
			rr := doRequest(mux, http.MethodGet, "/metrics", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)

			var m analytics.Metrics
			convey.So(json.Unmarshal(rr.Body.Bytes(), &m), convey.ShouldBeNil)
			convey.So(m.TotalAnalyses, convey.ShouldEqual, 3)
			convey.So(m.AreaCounts[model.AreaLegal], convey.ShouldEqual, 2)
		})
	})
}

func TestBestCandidatesEndpoint(t *testing.T) {
	convey.Convey("Given the best candidates endpoint", t, func() {
		deps := &mockDeps{
			best: map[model.Area]*model.AnalysisRecord{
				model.AreaTech: {ID: "rec-1", Filename: "cv.pdf"},
			},
		}
		mux := newTestServer(deps)

		convey.Convey("Every area appears in the response", func() {
			rr := doRequest(mux, http.MethodGet, "/best-candidates", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)

			var body map[string]json.RawMessage
			convey.So(json.Unmarshal(rr.Body.Bytes(), &body), convey.ShouldBeNil)
			convey.So(len(body), convey.ShouldEqual, len(model.Areas()))

			convey.Convey("And areas without candidates are null", func() {
				convey.So(string(body[string(model.AreaLegal)]), convey.ShouldEqual, "null")
				convey.So(string(body[string(model.AreaTech)]), convey.ShouldNotEqual, "null")
			})
		})
	})
}

func TestReportsEndpoint(t *testing.T) {
	convey.Convey("Given the reports endpoint", t, func() {
		deps := &mockDeps{reportData: []byte("report-bytes")}
		mux := newTestServer(deps)

		convey.Convey("The format defaults to xlsx", func() {
			rr := doRequest(mux, http.MethodGet, "/reports", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.reportFormat, convey.ShouldEqual, report.FormatXLSX)
			convey.So(rr.Header().Get("Content-Disposition"), convey.ShouldContainSubstring, "candidates.xlsx")
		})

		convey.Convey("A pdf report sets the matching content type", func() {
			rr := doRequest(mux, http.MethodGet, "/reports?format=pdf", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rr.Header().Get("Content-Type"), convey.ShouldEqual, "application/pdf")
		})

		convey.Convey("An unknown format returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/reports?format=csv", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("Area and date filters are parsed", func() {
			rr := doRequest(mux, http.MethodGet, "/reports?area=tech&from=2026-01-01&to=2026-01-31", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.reportFilters.Area, convey.ShouldNotBeNil)
			convey.So(*deps.reportFilters.Area, convey.ShouldEqual, model.AreaTech)
			convey.So(deps.reportFilters.From, convey.ShouldNotBeNil)
			convey.So(deps.reportFilters.To, convey.ShouldNotBeNil)

			convey.Convey("And the to date covers the full day", func() {
				end := *deps.reportFilters.To
				convey.So(end.Hour(), convey.ShouldEqual, 23)
				convey.So(end.Day(), convey.ShouldEqual, 31)
			})
		})

		convey.Convey("An unknown area filter returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/reports?area=astrology", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A from date after the to date returns 400", func() {
			rr := doRequest(mux, http.MethodGet, "/reports?from=2026-02-01&to=2026-01-01", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("A single record report resolves by id", func() {
			rr := doRequest(mux, http.MethodGet, "/reports/rec-9?format=pdf", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.reportOneID, convey.ShouldEqual, "rec-9")
			convey.So(rr.Header().Get("Content-Disposition"), convey.ShouldContainSubstring, "candidate-rec-9.pdf")
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	convey.Convey("Given the stats endpoint", t, func() {
		mux := newTestServer(&mockDeps{})

		convey.Convey("A snapshot is returned as JSON", func() {
			rr := doRequest(mux, http.MethodGet, "/stats", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)

			var stats map[string]interface{}
			convey.So(json.Unmarshal(rr.Body.Bytes(), &stats), convey.ShouldBeNil)
			convey.So(stats["started"], convey.ShouldEqual, true)
		})

		convey.Convey("POST is not allowed", func() {
			rr := doRequest(mux, http.MethodPost, "/stats", "")
			convey.So(rr.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}
