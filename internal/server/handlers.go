package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/otmeal-dev/otmeal/internal/auditlog"
	"github.com/otmeal-dev/otmeal/internal/bills"
	"github.com/otmeal-dev/otmeal/internal/claims"
	"github.com/otmeal-dev/otmeal/internal/importer"
	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// StatusResponse describes the running service.
type StatusResponse struct {
	Version   string          `json:"version"`
	Today     string          `json:"today"`
	Threshold decimal.Decimal `json:"threshold"`
}

// SubmitRequest is the body of POST /api/claims.
type SubmitRequest struct {
	Date  string          `json:"date" binding:"required"`
	Bill  decimal.Decimal `json:"bill"`
	Names []string        `json:"names"`
}

// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Version:   s.opts.Version,
		Today:     otdate.Format(otdate.Today()),
		Threshold: s.opts.Claims.Threshold(),
	})
}

// GET /api/claims?date=YYYY-MM-DD
func (s *Server) getClaims(c *gin.Context) {
	date, err := dateParam(c, true)
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := s.opts.Claims.Status(date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GET /api/claims/required?bill=N&date=YYYY-MM-DD
func (s *Server) getRequired(c *gin.Context) {
	bill, err := decimal.NewFromString(strings.TrimSpace(c.Query("bill")))
	if err != nil {
		writeError(c, model.Invalid("bill", "%q is not a number", c.Query("bill")))
		return
	}
	date, err := dateParam(c, false)
	if err != nil {
		writeError(c, err)
		return
	}
	plan, err := s.opts.Claims.Plan(bill, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GET /api/claims/log
func (s *Server) getClaimLog(c *gin.Context) {
	entries, err := s.opts.Claims.Log()
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []auditlog.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

// POST /api/claims
func (s *Server) postClaims(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, model.Invalid("body", "%v", err))
		return
	}
	date, err := otdate.Parse(req.Date)
	if err != nil {
		writeError(c, model.Invalid("date", "%v", err))
		return
	}
	res, err := s.opts.Claims.Submit(claims.SubmitParams{Date: date, Bill: req.Bill, Names: req.Names})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/bills?name=U&date=YYYY-MM-DD
func (s *Server) listBills(c *gin.Context) {
	date, err := dateParam(c, false)
	if err != nil {
		writeError(c, err)
		return
	}
	recs, err := s.opts.Bills.Find(bills.Query{Name: c.Query("name"), Date: date})
	if err != nil {
		writeError(c, err)
		return
	}
	bills.SortNewestFirst(recs)
	c.JSON(http.StatusOK, recs)
}

// POST /api/bills (multipart: date, name, file)
func (s *Server) uploadBill(c *gin.Context) {
	date, err := otdate.Parse(c.PostForm("date"))
	if err != nil {
		writeError(c, model.Invalid("date", "%v", err))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, model.Invalid("file", "no file uploaded"))
		return
	}
	f, err := header.Open()
	if err != nil {
		writeError(c, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()
	payload, err := io.ReadAll(f)
	if err != nil {
		writeError(c, fmt.Errorf("reading upload: %w", err))
		return
	}

	rec, err := s.opts.Bills.Save(date, c.PostForm("name"), header.Filename, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GET /api/bills/download?path=P
func (s *Server) downloadBill(c *gin.Context) {
	stored := c.Query("path")
	f, err := s.opts.Bills.Open(stored)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(c, &model.IOError{Op: "reading bill", Path: stored, Err: err})
		return
	}
	if info.IsDir() {
		writeError(c, fmt.Errorf("bill %s: %w", stored, model.ErrNotFound))
		return
	}

	name := filepath.Base(f.Name())
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}

// POST /api/bills/import
func (s *Server) importInbox(c *gin.Context) {
	res, err := importer.ImportInbox(s.opts.Root, s.opts.Bills)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/ledger/check
func (s *Server) checkLedger(c *gin.Context) {
	issues, err := s.opts.Claims.Check()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": len(issues) == 0, "issues": issues})
}

// dateParam reads ?date=. An absent date is today when defaultToday is
// set, otherwise the zero time.
func dateParam(c *gin.Context, defaultToday bool) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		if defaultToday {
			return otdate.Today(), nil
		}
		return time.Time{}, nil
	}
	d, err := otdate.Parse(raw)
	if err != nil {
		return time.Time{}, model.Invalid("date", "%v", err)
	}
	return d, nil
}

// writeError maps err onto a status code and a {"error": ...} body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case model.IsValidation(err):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
