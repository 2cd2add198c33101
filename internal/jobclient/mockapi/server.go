// Package mockapi is an in-process stand-in for the remote job API, used by tests.
package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server serves the create, upload, status and download routes
type Server struct {
	*httptest.Server

	// StatusFor returns the remote status reported for a job on its n-th poll (1-based).
	// Defaults to "completed".
	StatusFor func(fileName string, poll int) string
	// ResultFor returns the downloadable bytes. Defaults to "result:<file name>".
	ResultFor func(fileName string) []byte
	// ResultName, when set, is sent in Content-Disposition
	ResultName func(fileName string) string
	// APIKey, when set, is required as a bearer token on API calls
	APIKey string
	// NextCallInSeconds is returned with every status response
	NextCallInSeconds int
	// RateLimited makes every create call answer 429 RATE_LIMIT_EXCEEDED
	RateLimited bool

	mu      sync.Mutex
	nextID  int
	jobs    map[string]*job
	creates []map[string][]string
	calls   int
}

type job struct {
	fileName string
	polls    int
	data     []byte
}

// New starts a server. Callers must Close it.
func New() *Server {
	s := &Server{jobs: map[string]*job{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/create", s.handleCreate)
	mux.HandleFunc("/V5/job/upload/", s.handleUpload)
	mux.HandleFunc("/V5/job/status/", s.handleStatus)
	mux.HandleFunc("/download/", s.handleDownload)
	s.Server = httptest.NewServer(mux)
	return s
}

// CreateURL is the endpoint.url to configure
func (s *Server) CreateURL() string {
	return s.URL + "/create"
}

// Uploaded returns the names of all uploaded files
func (s *Server) Uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, j := range s.jobs {
		if j.fileName != "" {
			names = append(names, j.fileName)
		}
	}
	return names
}

// CreateCalls returns the number of create requests received, rejected ones included
func (s *Server) CreateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// CreateForms returns the form fields of every create call
func (s *Server) CreateForms() []map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string][]string(nil), s.creates...)
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.APIKey == "" || r.Header.Get("Authorization") == "Bearer "+s.APIKey {
		return true
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "error", "code": 401, "message": "invalid api key"})
	return false
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if !s.authorized(w, r) {
		return
	}
	if s.RateLimited {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"status": "error", "code": 429, "message": "RATE_LIMIT_EXCEEDED"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "code": 400, "message": err.Error()})
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("job%d", s.nextID)
	s.jobs[id] = &job{}
	s.creates = append(s.creates, r.PostForm)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                    "waiting4files",
		"job_id":                    id,
		"job_assigned_api_endpoint": s.URL,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/V5/job/upload/")
	file, header, err := r.FormFile("job_files_0")
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "code": 400, "message": "missing job_files_0"})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		j.fileName = header.Filename
		j.data = data
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "code": 404, "message": "unknown job"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "queued"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/V5/job/status/")

	s.mu.Lock()
	j, ok := s.jobs[id]
	var fileName string
	var poll int
	if ok {
		j.polls++
		fileName, poll = j.fileName, j.polls
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "code": 404, "message": "unknown job"})
		return
	}

	status := "completed"
	if s.StatusFor != nil {
		status = s.StatusFor(fileName, poll)
	}

	resp := map[string]any{"status": status, "next_call_in_seconds": s.NextCallInSeconds}
	switch status {
	case "completed":
		resp["downloadlink"] = s.URL + "/download/" + id
	case "error":
		resp["code"] = 429
		resp["message"] = "RATE_LIMIT_EXCEEDED"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/download/")

	s.mu.Lock()
	j, ok := s.jobs[id]
	var fileName string
	if ok {
		fileName = j.fileName
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if s.ResultName != nil {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.ResultName(fileName)))
	}
	body := []byte("result:" + fileName)
	if s.ResultFor != nil {
		body = s.ResultFor(fileName)
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
