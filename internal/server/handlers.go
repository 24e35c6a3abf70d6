package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/engine"
	"github.com/daryltucker/llm-matrix/internal/model"
	"github.com/daryltucker/llm-matrix/internal/output"
)

// PreflightRequest carries entries either as JSON or as a providers.yaml body.
type PreflightRequest struct {
	Entries       []model.Entry `json:"entries"`
	ProvidersYAML string        `json:"providers_yaml"`
}

// MatrixRequest describes one matrix run.
type MatrixRequest struct {
	PreflightRequest
	Questions     []model.Question `json:"questions"`
	QuestionsYAML string           `json:"questions_yaml"`
	SystemPrompt  string           `json:"system_prompt"`
	ExperimentTag string           `json:"experiment_tag"`
	// QuestionIDs and EntryPositions narrow the matrix; empty selects everything.
	QuestionIDs    []string `json:"question_ids"`
	EntryPositions []int    `json:"entry_positions"`
}

// MatrixResponse reports a finished run.
type MatrixResponse struct {
	RunID     string `json:"run_id"`
	ExportDir string `json:"export_dir"`
	engine.Summary
}

type providerView struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Protocol    string `json:"protocol"`
	BaseURL     string `json:"base_url"`
	RequiresKey bool   `json:"requires_key"`
	Notes       string `json:"notes"`
}

func (r PreflightRequest) entries() ([]model.Entry, error) {
	entries := r.Entries
	if r.ProvidersYAML != "" {
		parsed, err := config.ParseEntries([]byte(r.ProvidersYAML))
		if err != nil {
			return nil, err
		}
		entries = append(entries, parsed...)
	}
	if len(entries) == 0 {
		return nil, errors.New("no provider entries supplied")
	}
	return entries, nil
}

func (r MatrixRequest) questions() ([]model.Question, error) {
	qs := make([]model.Question, 0, len(r.Questions))
	for _, q := range r.Questions {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		if q.ID != nil {
			id := strings.TrimSpace(*q.ID)
			q.ID = nil
			if id != "" {
				q.ID = &id
			}
		}
		qs = append(qs, q)
	}
	if r.QuestionsYAML != "" {
		parsed, err := config.ParseQuestions([]byte(r.QuestionsYAML))
		if err != nil {
			return nil, err
		}
		qs = append(qs, parsed...)
	}
	qs = config.DedupeQuestions(qs)
	if len(qs) == 0 {
		return nil, errors.New("no questions supplied")
	}
	return qs, nil
}

// detached keeps request values but not cancellation: a client that hangs
// up does not stop a preflight or a matrix run half way.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "run_id": s.writer.RunID()})
}

func (s *Server) providers(c *gin.Context) {
	all := s.engine.Registry.All()
	out := make([]providerView, 0, len(all))
	for _, p := range all {
		out = append(out, providerView{
			Name:        p.Name,
			Kind:        string(p.Kind),
			Protocol:    p.Protocol.String(),
			BaseURL:     p.BaseURL,
			RequiresKey: p.RequiresKey(),
			Notes:       p.Notes,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) runPreflight(c *gin.Context) ([]model.PreflightRow, bool) {
	var req PreflightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, false
	}
	entries, err := req.entries()
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return s.engine.Preflight(detached(c), entries), true
}

func (s *Server) preflight(c *gin.Context) {
	rows, ok := s.runPreflight(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func (s *Server) preflightCSV(c *gin.Context) {
	rows, ok := s.runPreflight(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := output.WritePreflightCSV(&buf, rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+output.PreflightCSVName+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) matrix(c *gin.Context) {
	var req MatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	entries, err := req.entries()
	if err != nil {
		badRequest(c, err)
		return
	}
	questions, err := req.questions()
	if err != nil {
		badRequest(c, err)
		return
	}
	if entries, err = config.SelectEntries(entries, req.EntryPositions); err != nil {
		badRequest(c, err)
		return
	}
	if questions, err = config.SelectQuestions(questions, req.QuestionIDs); err != nil {
		badRequest(c, err)
		return
	}

	if !s.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a matrix run is already in progress"})
		return
	}
	defer s.running.Unlock()

	sum := s.engine.RunMatrix(detached(c), engine.Matrix{
		Questions:     questions,
		Entries:       entries,
		SystemPrompt:  req.SystemPrompt,
		ExperimentTag: req.ExperimentTag,
	}, s.writer, nil)

	c.JSON(http.StatusOK, MatrixResponse{
		RunID:     s.writer.RunID(),
		ExportDir: s.writer.Dir(),
		Summary:   sum,
	})
}
