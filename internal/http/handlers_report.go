package http

import (
	"net/http"
	"path/filepath"
	"time"

	"hearth/internal/auth"
	"hearth/internal/storage"
)

type exportRequest struct {
	Format string `json:"format"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
}

type digestRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	year, month, err := yearMonth(r, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := s.reports.MonthSummary(r.Context(), sess.FamilyID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewSummary(summary))
}

func (s *Server) handleEnqueueExport(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Year == 0 || req.Month == 0 {
		now := time.Now()
		req.Year, req.Month = now.Year(), int(now.Month())
	}

	jobID, err := s.reports.EnqueueExport(r.Context(), sess.FamilyID, req.Format, req.Year, req.Month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusAccepted, struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}{JobID: jobID, Status: storage.ExportPending})
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	jobs, err := s.reports.ListExportJobs(r.Context(), sess.FamilyID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]exportJobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, viewExportJob(job))
	}
	respond(w, http.StatusOK, views)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	job, err := s.reports.ExportJob(r.Context(), sess.FamilyID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewExportJob(job))
}

func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	job, err := s.reports.ExportJob(r.Context(), sess.FamilyID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if job.Status != storage.ExportDone || job.FilePath == "" {
		respond(w, http.StatusConflict, errorResponse{Error: "export not ready"})
		return
	}

	filename := filepath.Base(job.FilePath)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	switch job.Format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
	}
	http.ServeFile(w, r, job.FilePath)
}

func (s *Server) handleEnqueueDigest(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	var req digestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Year == 0 || req.Month == 0 {
		prev := time.Now().AddDate(0, -1, 0)
		req.Year, req.Month = prev.Year(), int(prev.Month())
	}

	if err := s.reports.EnqueueDigest(r.Context(), sess.FamilyID, req.Year, req.Month); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusAccepted, struct {
		Status string `json:"status"`
	}{Status: "enqueued"})
}
