// # internal/ui/report/formats/sarif.go
package formats

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	uriBaseID    = "%SRCROOT%"
)

// Rule ids of the findings a generation run can report.
const (
	RuleSkippedFile      = "XREF001"
	RuleDuplicateType    = "XREF002"
	RuleAmbiguousRef     = "XREF003"
	RuleUnresolvedImport = "XREF004"
)

var ruleCatalog = map[string]sarifRule{
	RuleSkippedFile: {
		ID:               RuleSkippedFile,
		Name:             "SkippedSourceFile",
		ShortDescription: sarifMessage{Text: "A source file could not be read or rendered and has no page."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	RuleDuplicateType: {
		ID:               RuleDuplicateType,
		Name:             "DuplicateTypeDeclaration",
		ShortDescription: sarifMessage{Text: "A qualified type name is declared more than once; the first declaration is linked."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
	},
	RuleAmbiguousRef: {
		ID:               RuleAmbiguousRef,
		Name:             "AmbiguousReference",
		ShortDescription: sarifMessage{Text: "A simple name matches types in several wildcard-imported packages and is left unlinked."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
	},
	RuleUnresolvedImport: {
		ID:               RuleUnresolvedImport,
		Name:             "ImportOutsideTree",
		ShortDescription: sarifMessage{Text: "A single-type import names a type that is not part of the generated tree."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
	},
}

// Finding is one reportable result of a run.
type Finding struct {
	RuleID  string
	Path    string
	Line    int
	Message string
}

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from run findings. File
// URIs are made relative to the source root containing them so that
// reports are safe to share.
func GenerateSARIF(sourceRoots []string, toolVersion string, findings []Finding) ([]byte, error) {
	results := make([]sarifResult, 0, len(findings))
	used := make(map[string]bool)

	for _, f := range findings {
		rule, ok := ruleCatalog[f.RuleID]
		if !ok {
			return nil, fmt.Errorf("unknown finding rule %q", f.RuleID)
		}
		used[f.RuleID] = true

		result := sarifResult{
			RuleID:  f.RuleID,
			Level:   rule.DefaultConfig.Level,
			Message: sarifMessage{Text: f.Message},
		}
		if f.Path != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(sourceRoots, f.Path),
						URIBaseID: uriBaseID,
					},
				},
			}
			if f.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: f.Line}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "xref",
						Version: toolVersion,
						Rules:   buildSARIFRules(used),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(used map[string]bool) []sarifRule {
	ids := make([]string, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rules := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, ruleCatalog[id])
	}
	return rules
}

// relativeURI makes filePath relative to the deepest root containing it.
// Paths outside every root keep their original form, with forward slashes.
func relativeURI(roots []string, filePath string) string {
	if filepath.IsAbs(filePath) {
		best, bestRel := "", ""
		for _, root := range roots {
			rel, err := filepath.Rel(root, filePath)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			if len(root) > len(best) {
				best, bestRel = root, rel
			}
		}
		if best != "" {
			filePath = bestRel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
