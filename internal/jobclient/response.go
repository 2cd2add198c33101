package jobclient

import (
	"bytes"
	"encoding/json"
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// flexString accepts JSON strings and numbers ("code": 401 and "code": "401" both occur)
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// apiResponse is the union of the create, upload and status payloads
type apiResponse struct {
	Status            string     `json:"status"`
	JobID             flexString `json:"job_id"`
	AssignedEndpoint  string     `json:"job_assigned_api_endpoint"`
	Code              flexString `json:"code"`
	Message           string     `json:"message"`
	DownloadLink      string     `json:"downloadlink"`
	NextCallInSeconds flexString `json:"next_call_in_seconds"`
}

func decodeResponse(body []byte) (*apiResponse, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	resp.Status = strings.ToLower(strings.TrimSpace(resp.Status))
	return &resp, nil
}

func (r *apiResponse) isAuthFailure() bool {
	return r.Code == CodeUnauthorized || r.Code == CodeTierNotFound
}

func (r *apiResponse) isRateLimited() bool {
	return r.Code == CodeRateLimited || strings.Contains(r.Message, RateLimitMarker)
}

func (r *apiResponse) waitHint() time.Duration {
	secs, err := strconv.ParseFloat(string(r.NextCallInSeconds), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

var quotedFilename = regexp.MustCompile(`filename="(.+?)"`)

// filenameFromDisposition extracts the base name of the attachment, "" if none
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	name := ""
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := quotedFilename.FindStringSubmatch(header); len(m) == 2 {
			name = m[1]
		}
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func truncateBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
