package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "lineupremote/internal/errors"
)

// rankingStatsRequest is the body of the ranking and group statistics endpoints
type rankingStatsRequest struct {
	Ranking json.RawMessage `json:"ranking"`
	Columns json.RawMessage `json:"columns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDesc(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Desc())
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.Count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.service.Rows(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleRowsByBody(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var ids []int64
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ids); err != nil {
			writeError(w, r, apperrors.ValidationError("body must be an array of row ids"))
			return
		}
	}
	rows, err := s.service.Rows(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleRow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, apperrors.ValidationError("row id must be an integer"))
		return
	}
	row, err := s.service.Row(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.service.Sort(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.service.Stats(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRankingStats(w http.ResponseWriter, r *http.Request) {
	req, err := readRankingStats(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.service.RankingStats(r.Context(), req.Ranking, req.Columns)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGroupStats(w http.ResponseWriter, r *http.Request) {
	req, err := readRankingStats(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	group, err := pathParam(r, "group")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.service.GroupStats(r.Context(), group, req.Ranking, req.Columns)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMappingSample(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := pathParam(r, "column")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.service.MappingSample(r.Context(), name, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	if q == "" {
		writeError(w, r, apperrors.ValidationError("query is required"))
		return
	}
	name, err := pathParam(r, "column")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := s.service.Search(r.Context(), name, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// pathParam decodes a route segment. chi matches on the escaped path, so
// labels containing a slash arrive percent-encoded.
func pathParam(r *http.Request, key string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, key))
	if err != nil {
		return "", apperrors.ValidationError(key + " is not a valid path segment")
	}
	return v, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.ValidationError("request body is too large or unreadable")
	}
	return body, nil
}

func readRankingStats(w http.ResponseWriter, r *http.Request) (*rankingStatsRequest, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	var req rankingStatsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.ValidationError("body must be an object with ranking and columns")
	}
	if len(req.Ranking) == 0 {
		req.Ranking = json.RawMessage(`{}`)
	}
	if len(req.Columns) == 0 {
		req.Columns = json.RawMessage(`[]`)
	}
	return &req, nil
}

// parseIDs reads a comma separated id list; empty means every row
func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, apperrors.ValidationError("ids must be comma separated integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
