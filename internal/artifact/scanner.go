package artifact

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mgorham/queryboard/internal/pathguard"
)

// Query scripts announce generated files only as free text on their
// stdout/stderr, so candidate paths are scraped with a pattern over the
// recognized extensions. False positives are expected and harmless: any
// candidate that fails resolution is silently dropped.
var filePattern = regexp.MustCompile(`(?i)[^\s"']+\.(?:png|jpg|jpeg|svg|csv|txt|tsv|json|parquet)`)

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".svg": {},
}

var dataExtensions = map[string]struct{}{
	".csv": {}, ".txt": {}, ".tsv": {}, ".json": {}, ".parquet": {},
}

// Result holds the artifacts recovered from one job's captured output.
type Result struct {
	ChartPath string
	DataFiles []string
}

type Scanner struct {
	resolver *pathguard.Resolver
}

func NewScanner(resolver *pathguard.Resolver) *Scanner {
	return &Scanner{resolver: resolver}
}

// Scan extracts path-like tokens from both captured streams, resolves each
// through the path guard and classifies the survivors by extension. Tokens
// from both streams are pooled into a set, so duplicates collapse and
// discovery order is not significant. At most one chart is kept: the first
// surviving image candidate wins, which is not deterministic across runs
// when a script emits several images. In practice scripts emit at most one.
func (s *Scanner) Scan(stdout, stderr string) Result {
	candidates := make(map[string]struct{})
	for _, m := range filePattern.FindAllString(stdout, -1) {
		candidates[m] = struct{}{}
	}
	for _, m := range filePattern.FindAllString(stderr, -1) {
		candidates[m] = struct{}{}
	}

	var result Result
	for candidate := range candidates {
		resolved, err := s.resolver.Resolve(candidate)
		if err != nil {
			continue
		}

		ext := strings.ToLower(filepath.Ext(resolved))
		if _, ok := imageExtensions[ext]; ok {
			if result.ChartPath == "" {
				result.ChartPath = resolved
			}
			continue
		}
		if _, ok := dataExtensions[ext]; ok {
			result.DataFiles = append(result.DataFiles, resolved)
		}
	}
	return result
}
