package session

import (
	"path"
	"regexp"
	"strings"

	"github.com/doeshing/shellgate/internal/domain"
)

// importantPatterns are tried in order; earlier patterns rank higher.
var importantPatterns = compileAll(
	`README\.(md|txt|rst)$`,
	`CHANGELOG\.(md|txt|rst)$`,
	`CONTRIBUTING\.(md|txt|rst)$`,
	`LICENSE$`,
	`LICENSE\.(md|txt)$`,
	`package\.json$`,
	`requirements\.txt$`,
	`Cargo\.toml$`,
	`pom\.xml$`,
	`build\.gradle$`,
	`go\.mod$`,
	`Makefile$`,
	`Dockerfile$`,
	`docker-compose\.ya?ml$`,
	`main\.(py|js|ts|java|cpp|c|go|rs)$`,
	`index\.(py|js|ts|html)$`,
	`app\.(py|js|ts)$`,
	`server\.(py|js|ts)$`,
	`web\.(py|js|ts)$`,
	`setup\.py$`,
	`config\.(py|js|ts|json|yaml|yml)$`,
)

var sourceExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".java": true, ".cpp": true,
	".c": true, ".go": true, ".rs": true, ".php": true, ".html": true,
}

const (
	sourceScanLimit  = 20
	minImportant     = 5
	sourceFillTarget = 8
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// ImportantFiles ranks the files worth loading as context when the user has
// not picked any: documentation and manifests first, then entry points. When
// fewer than five match, source files among the first twenty paths top the
// list up. At most domain.MaxImportantFiles paths are returned.
func ImportantFiles(files []string) []string {
	var picked []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			picked = append(picked, p)
		}
	}

	for _, re := range importantPatterns {
		for _, p := range files {
			if re.MatchString(p) {
				add(p)
			}
		}
	}

	if len(picked) < minImportant {
		scan := files
		if len(scan) > sourceScanLimit {
			scan = scan[:sourceScanLimit]
		}
		for _, p := range scan {
			if len(picked) >= sourceFillTarget {
				break
			}
			if sourceExtensions[strings.ToLower(path.Ext(p))] {
				add(p)
			}
		}
	}

	if len(picked) > domain.MaxImportantFiles {
		picked = picked[:domain.MaxImportantFiles]
	}
	return picked
}
