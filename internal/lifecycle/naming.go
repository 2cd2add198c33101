package lifecycle

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/filemanager"
	"github.com/aleister1102/apifileprocessor/internal/config"
)

// OutputName derives the result file name from the source name.
//
//	job_id    <stem>.<job id><ext>       unique per job, the default
//	overwrite <server name or source>    last write wins
//	timestamp <YYYYMMDD-HHMMSSmmm>_<server name or source>
//
// ext is taken from the server supplied name when it has one, since the
// result format may differ from the upload (pdf in, txt out).
func OutputName(policy, sourceName, jobID, serverName string, now time.Time) string {
	base := serverName
	if base == "" {
		base = sourceName
	}

	switch policy {
	case config.OutputNamingOverwrite:
		return base
	case config.OutputNamingTimestamp:
		return filemanager.TimestampPrefix(now) + "_" + base
	default:
		ext := filepath.Ext(serverName)
		if ext == "" {
			ext = filepath.Ext(sourceName)
		}
		stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
		return stem + "." + sanitizeJobID(jobID) + ext
	}
}

func sanitizeJobID(id string) string {
	id = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, id)
	if id == "" {
		return "nojob"
	}
	return id
}
