package handlers_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/api/handlers"
	"github.com/hugh/lead-hunter/internal/api/middleware"
	"github.com/hugh/lead-hunter/internal/database/models"
	"github.com/hugh/lead-hunter/internal/leads"
	"github.com/hugh/lead-hunter/internal/tasks"
	"github.com/hugh/lead-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	userID   uint
	filename string
	data     []byte
	err      error
}

func (q *fakeQueue) EnqueueImport(_ context.Context, userID uint, filename string, data []byte) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.userID, q.filename, q.data = userID, filename, data
	return "task-1", nil
}

type fakeStatus struct {
	statuses map[string]*tasks.ImportStatus
	owners   map[string]uint
}

func (s *fakeStatus) ImportStatus(userID uint, id string) (*tasks.ImportStatus, error) {
	st, ok := s.statuses[id]
	if !ok || s.owners[id] != userID {
		return nil, tasks.ErrTaskNotFound
	}
	return st, nil
}

func setupLeadTestRouter(t *testing.T, queue handlers.ImportQueue, status handlers.ImportStatusReader) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewLeadHandler(leads.NewGormStore(tc.DB), queue, status, discardLogger())

	r := chi.NewRouter()
	r.Route("/api/lead", func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Post("/bulk", handler.BulkCreate)
		r.Delete("/", handler.BulkDelete)
		r.Post("/import", handler.Import)
		r.Get("/import/{taskID}", handler.ImportStatus)
		r.Get("/export", handler.Export)
		r.Get("/{id}", handler.Get)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
	})

	return r, tc
}

func leadBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"phone":      "+44 20 7946 0000",
		"company":    "Analytical Engines",
		"city":       "London",
		"state":      "LDN",
		"source":     "referral",
	}
}

func TestLeadHandler_Create(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	t.Run("creates with defaults and caller as owner", func(t *testing.T) {
		body := leadBody(" ada@example.com ")
		body["user_id"] = 9999

		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var lead models.Lead
		testutil.ParseJSONResponse(t, rr, &lead)
		assert.NotZero(t, lead.ID)
		assert.Equal(t, tc.User.ID, lead.UserID)
		assert.Equal(t, "ada@example.com", lead.Email)
		assert.Equal(t, models.LeadStatusNew, lead.Status)
		assert.Equal(t, models.LeadSourceReferral, lead.Source)
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead", leadBody("ada@example.com"), tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Lead with this email already exists", resp.Message)
	})

	t.Run("email case is kept and filters match it exactly", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead", leadBody("Ada.Lovelace@Example.com"), tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var created models.Lead
		testutil.ParseJSONResponse(t, rr, &created)
		assert.Equal(t, "Ada.Lovelace@Example.com", created.Email)

		req = testutil.AuthenticatedRequest(t, "GET", fmt.Sprintf("/api/lead/%d", created.ID), nil, tc.Token)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var fetched models.Lead
		testutil.ParseJSONResponse(t, rr, &fetched)
		assert.Equal(t, "Ada.Lovelace@Example.com", fetched.Email)

		for query, want := range map[string]int64{
			"email=Ada.Lovelace%40Example.com": 1,
			"email=ada.lovelace%40example.com": 0,
		} {
			req = testutil.AuthenticatedRequest(t, "GET", "/api/lead?"+query, nil, tc.Token)
			rr = httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			require.Equal(t, http.StatusOK, rr.Code)
			var page leads.Result
			testutil.ParseJSONResponse(t, rr, &page)
			assert.Equal(t, want, page.Total, query)
		}
	})

	tests := []struct {
		name      string
		mutate    func(map[string]interface{})
		wantField string
	}{
		{"missing first name", func(b map[string]interface{}) { delete(b, "first_name") }, "first_name"},
		{"bad source", func(b map[string]interface{}) { b["source"] = "carrier_pigeon" }, "source"},
		{"bad status", func(b map[string]interface{}) { b["status"] = "maybe" }, "status"},
		{"score out of range", func(b map[string]interface{}) { b["score"] = 101 }, "score"},
		{"negative value", func(b map[string]interface{}) { b["lead_value"] = -1 }, "lead_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := leadBody("valid@example.com")
			tt.mutate(body)

			req := testutil.AuthenticatedRequest(t, "POST", "/api/lead", body, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var resp dto.ErrorResponse
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Contains(t, resp.Details, tt.wantField)
		})
	}

	t.Run("requires auth", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/lead", leadBody("x@example.com"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLeadHandler_BulkCreate(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	t.Run("creates all", func(t *testing.T) {
		body := map[string]interface{}{
			"leads": []interface{}{leadBody("one@example.com"), leadBody("two@example.com")},
		}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead/bulk", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var resp dto.BulkCreateLeadsResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "2 leads created successfully", resp.Message)
		require.Len(t, resp.Data, 2)
		for _, l := range resp.Data {
			assert.NotZero(t, l.ID)
			assert.Equal(t, tc.User.ID, l.UserID)
		}
	})

	t.Run("one invalid element rejects the batch", func(t *testing.T) {
		bad := leadBody("three@example.com")
		bad["source"] = "nowhere"
		body := map[string]interface{}{
			"leads": []interface{}{leadBody("four@example.com"), bad},
		}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead/bulk", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "leads[1].source")

		var count int64
		tc.DB.Model(&models.Lead{}).Where("email = ?", "four@example.com").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("duplicate rolls back the batch", func(t *testing.T) {
		body := map[string]interface{}{
			"leads": []interface{}{leadBody("five@example.com"), leadBody("one@example.com")},
		}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead/bulk", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		var count int64
		tc.DB.Model(&models.Lead{}).Where("email = ?", "five@example.com").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("empty list", func(t *testing.T) {
		body := map[string]interface{}{"leads": []interface{}{}}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/lead/bulk", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLeadHandler_List(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	for i := 0; i < 25; i++ {
		score := i * 4
		testutil.CreateTestLead(t, tc.DB, tc.User.ID, func(l *models.Lead) {
			l.Score = score
			if i%5 == 0 {
				l.Status = models.LeadStatusWon
				l.Company = "Initech"
			}
		})
	}
	other := testutil.CreateTestUser(t, tc.DB)
	testutil.CreateTestLead(t, tc.DB, other.ID, func(l *models.Lead) { l.Status = models.LeadStatusWon })

	tests := []struct {
		name       string
		query      string
		wantTotal  int64
		wantLen    int
		wantPage   int
		wantLimit  int
		wantPages  int
	}{
		{"defaults", "", 25, 20, 1, 20, 2},
		{"second page", "?page=2", 25, 5, 2, 20, 2},
		{"custom limit", "?limit=10&page=3", 25, 5, 3, 10, 3},
		{"limit capped", "?limit=500", 25, 25, 1, 100, 1},
		{"status filter", "?status=won", 5, 5, 1, 20, 1},
		{"status set", "?status_in=won,new", 25, 20, 1, 20, 2},
		{"score range", "?score_gt=50&score_lt=80", 7, 7, 1, 20, 1},
		{"search", "?q=initech", 5, 5, 1, 20, 1},
		{"page past the end", "?page=9", 25, 0, 9, 20, 2},
		{"unknown params ignored", "?color=blue", 25, 20, 1, 20, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/"+tt.query, nil, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var resp struct {
				Data       []models.Lead `json:"data"`
				Page       int           `json:"page"`
				Limit      int           `json:"limit"`
				Total      int64         `json:"total"`
				TotalPages int           `json:"totalPages"`
			}
			testutil.ParseJSONResponse(t, rr, &resp)

			assert.Equal(t, tt.wantTotal, resp.Total)
			assert.Len(t, resp.Data, tt.wantLen)
			assert.NotNil(t, resp.Data)
			assert.Equal(t, tt.wantPage, resp.Page)
			assert.Equal(t, tt.wantLimit, resp.Limit)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
			for _, l := range resp.Data {
				assert.Equal(t, tc.User.ID, l.UserID)
			}
		})
	}
}

func TestLeadHandler_GetUpdateDelete(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	own := testutil.CreateTestLead(t, tc.DB, tc.User.ID)
	other := testutil.CreateTestUser(t, tc.DB)
	foreign := testutil.CreateTestLead(t, tc.DB, other.ID)

	leadPath := func(id uint) string { return fmt.Sprintf("/api/lead/%d", id) }

	t.Run("get own", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", leadPath(own.ID), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var lead models.Lead
		testutil.ParseJSONResponse(t, rr, &lead)
		assert.Equal(t, own.Email, lead.Email)
	})

	t.Run("foreign lead is not found", func(t *testing.T) {
		for _, method := range []string{"GET", "PUT", "DELETE"} {
			var body interface{}
			if method == "PUT" {
				body = map[string]interface{}{"score": 1}
			}
			req := testutil.AuthenticatedRequest(t, method, leadPath(foreign.ID), body, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusNotFound, rr.Code, method)
		}

		var stored models.Lead
		require.NoError(t, tc.DB.First(&stored, foreign.ID).Error)
		assert.Equal(t, foreign.Score, stored.Score)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/abc", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		body := map[string]interface{}{"status": "contacted", "score": 88, "user_id": other.ID}

		req := testutil.AuthenticatedRequest(t, "PUT", leadPath(own.ID), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var lead models.Lead
		testutil.ParseJSONResponse(t, rr, &lead)
		assert.Equal(t, models.LeadStatusContacted, lead.Status)
		assert.Equal(t, 88, lead.Score)
		assert.Equal(t, own.FirstName, lead.FirstName)
		assert.Equal(t, tc.User.ID, lead.UserID)
	})

	t.Run("update rejects bad values", func(t *testing.T) {
		body := map[string]interface{}{"status": "unknown"}

		req := testutil.AuthenticatedRequest(t, "PUT", leadPath(own.ID), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update to taken email", func(t *testing.T) {
		body := map[string]interface{}{"email": foreign.Email}

		req := testutil.AuthenticatedRequest(t, "PUT", leadPath(own.ID), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("delete own", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "DELETE", leadPath(own.ID), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp dto.SuccessResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Lead deleted", resp.Message)

		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", leadPath(own.ID), nil, tc.Token))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestLeadHandler_BulkDelete(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	a := testutil.CreateTestLead(t, tc.DB, tc.User.ID)
	b := testutil.CreateTestLead(t, tc.DB, tc.User.ID)
	keep := testutil.CreateTestLead(t, tc.DB, tc.User.ID)
	other := testutil.CreateTestUser(t, tc.DB)
	foreign := testutil.CreateTestLead(t, tc.DB, other.ID)

	t.Run("invalid payloads", func(t *testing.T) {
		for _, body := range []interface{}{
			map[string]interface{}{},
			map[string]interface{}{"ids": []int{}},
			map[string]interface{}{"ids": "1,2"},
			map[string]interface{}{"ids": []interface{}{1, "x"}},
		} {
			req := testutil.AuthenticatedRequest(t, "DELETE", "/api/lead", body, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, "%v", body)
			var resp dto.ErrorResponse
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Equal(t, "Invalid request", resp.Message)
		}
	})

	t.Run("deletes only own leads", func(t *testing.T) {
		body := map[string]interface{}{
			"ids": []interface{}{a.ID, fmt.Sprint(b.ID), foreign.ID, a.ID},
		}

		req := testutil.AuthenticatedRequest(t, "DELETE", "/api/lead", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp dto.DeleteResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Leads deleted", resp.Message)
		assert.Equal(t, int64(2), resp.Deleted)

		var remaining []uint
		tc.DB.Model(&models.Lead{}).Order("id").Pluck("id", &remaining)
		assert.ElementsMatch(t, []uint{keep.ID, foreign.ID}, remaining)
	})
}

func multipartCSV(t *testing.T, token, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/lead/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token})
	return req
}

func TestLeadHandler_ImportInline(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	existing := testutil.CreateTestLead(t, tc.DB, tc.User.ID)

	content := strings.Join([]string{
		"First_Name,last_name,email,source,score",
		"Grace,Hopper,grace@example.com,website,90",
		"Alan,Turing,alan@example.com,,10",
		"Bad,Row,not-an-email,website,1",
		"Dup,Row," + existing.Email + ",referral,5",
		"Out,Ofrange,range@example.com,events,300",
	}, "\n")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, multipartCSV(t, tc.Token, "leads.csv", content))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp dto.ImportLeadsResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, 2, resp.Imported)
	require.Len(t, resp.Skipped, 3)
	assert.Equal(t, []int{4, 5, 6}, []int{resp.Skipped[0].Line, resp.Skipped[1].Line, resp.Skipped[2].Line})
	assert.Equal(t, "email already exists", resp.Skipped[1].Reason)

	var alan models.Lead
	require.NoError(t, tc.DB.Where("email = ?", "alan@example.com").First(&alan).Error)
	assert.Equal(t, models.LeadSourceOther, alan.Source)
	assert.Equal(t, tc.User.ID, alan.UserID)
}

func TestLeadHandler_ImportErrors(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	t.Run("missing required column", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartCSV(t, tc.Token, "leads.csv", "first_name,last_name\nA,B\n"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no file field", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest("POST", "/api/lead/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: tc.Token})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		big := "first_name,last_name,email\n" + strings.Repeat("x", leads.MaxImportSize)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartCSV(t, tc.Token, "big.csv", big))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLeadHandler_ImportQueued(t *testing.T) {
	queue := &fakeQueue{}
	router, tc := setupLeadTestRouter(t, queue, nil)
	defer tc.Cleanup()

	content := "first_name,last_name,email\nGrace,Hopper,grace@example.com\n"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, multipartCSV(t, tc.Token, "leads.csv", content))

	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var resp dto.ImportLeadsResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, tc.User.ID, queue.userID)
	assert.Equal(t, "leads.csv", queue.filename)
	assert.Equal(t, content, string(queue.data))

	var count int64
	tc.DB.Model(&models.Lead{}).Count(&count)
	assert.Zero(t, count, "queued imports are not applied inline")

	t.Run("bad header is rejected before queueing", func(t *testing.T) {
		queue.data = nil
		for _, content := range []string{
			"first_name,last_name\nA,B\n",
			"first_name,last_name,email\n",
			"first_name,last\"name,email\nA,B,a@example.com\n",
		} {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, multipartCSV(t, tc.Token, "leads.csv", content))

			assert.Equal(t, http.StatusBadRequest, rr.Code, content)
			var resp dto.ErrorResponse
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Equal(t, "Failed to parse CSV file", resp.Message)
		}
		assert.Nil(t, queue.data)
	})

	t.Run("queue failure", func(t *testing.T) {
		queue.err = errors.New("redis down")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, multipartCSV(t, tc.Token, "leads.csv", content))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestLeadHandler_ImportStatus(t *testing.T) {
	status := &fakeStatus{
		statuses: map[string]*tasks.ImportStatus{
			"t1": {ID: "t1", State: "completed", Result: &leads.ImportResult{Imported: 3, Skipped: []leads.RowError{}}},
		},
		owners: map[string]uint{},
	}
	router, tc := setupLeadTestRouter(t, nil, status)
	defer tc.Cleanup()
	status.owners["t1"] = tc.User.ID

	t.Run("own task", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/import/t1", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp tasks.ImportStatus
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "completed", resp.State)
		require.NotNil(t, resp.Result)
		assert.Equal(t, 3, resp.Result.Imported)
	})

	t.Run("unknown task", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/import/nope", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestLeadHandler_Export(t *testing.T) {
	router, tc := setupLeadTestRouter(t, nil, nil)
	defer tc.Cleanup()

	testutil.CreateTestLead(t, tc.DB, tc.User.ID, func(l *models.Lead) { l.Status = models.LeadStatusWon })
	testutil.CreateTestLead(t, tc.DB, tc.User.ID)
	other := testutil.CreateTestUser(t, tc.DB)
	testutil.CreateTestLead(t, tc.DB, other.ID, func(l *models.Lead) { l.Status = models.LeadStatusWon })

	t.Run("all own leads", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/export", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "leads_export_")

		records, err := csv.NewReader(rr.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, leads.CSVColumns, records[0])
	})

	t.Run("filtered", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/export?status=won", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		records, err := csv.NewReader(rr.Body).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("export round-trips through import", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/lead/export", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		parsed, err := leads.ParseCSV(rr.Body)
		require.NoError(t, err)
		assert.Len(t, parsed.Leads, 2)
		assert.Empty(t, parsed.Skipped)
	})
}
