// ABOUTME: Labeled retrieval cases for measuring search quality
// ABOUTME: Cases are read from YAML and name the subthreads a query should find
package eval

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harper/threadsearch/internal/models"
)

// Target identifies one subthread a case expects in the results.
type Target struct {
	ConversationID string `yaml:"conversation_id" json:"conversation_id"`
	RootPostNumber int    `yaml:"root_post_number" json:"root_post_number"`
}

// Key returns the subthread key for the target.
func (t Target) Key() string {
	return models.SubthreadKey(t.ConversationID, t.RootPostNumber)
}

// Case is a single query with its ground truth.
type Case struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
	// TopK overrides the suite default when positive.
	TopK int `yaml:"top_k"`

	Expected      []Target `yaml:"expected"`
	ExpectedText  []string `yaml:"expected_text"` // phrases that must appear in retrieved text
	ForbiddenText []string `yaml:"forbidden_text"`
}

// Suite is a named collection of cases.
type Suite struct {
	Name      string  `yaml:"name"`
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
	Cases     []Case  `yaml:"cases"`
}

// DefaultThreshold is the minimum recall for a case to pass.
const DefaultThreshold = 0.9

// ParseSuite decodes and validates a suite.
func ParseSuite(r io.Reader) (*Suite, error) {
	var s Suite
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("suite is empty")
		}
		return nil, fmt.Errorf("failed to decode suite: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSuite reads a suite from a YAML file.
func LoadSuite(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open suite: %w", err)
	}
	defer f.Close()
	return ParseSuite(f)
}

func (s *Suite) validate() error {
	if len(s.Cases) == 0 {
		return errors.New("suite has no cases")
	}
	if s.TopK < 0 {
		return fmt.Errorf("suite top_k must be non-negative, got %d", s.TopK)
	}
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("suite threshold must be between 0 and 1, got %g", s.Threshold)
	}
	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.ID == "" {
			return fmt.Errorf("case %d: id is required", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("case %s: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if c.Query == "" {
			return fmt.Errorf("case %s: query is required", c.ID)
		}
		if len(c.Expected) == 0 && len(c.ExpectedText) == 0 {
			return fmt.Errorf("case %s: needs expected subthreads or expected_text", c.ID)
		}
	}
	return nil
}

func (s *Suite) threshold() float64 {
	if s.Threshold == 0 {
		return DefaultThreshold
	}
	return s.Threshold
}

func (s *Suite) topK(c Case, fallback int) int {
	switch {
	case c.TopK > 0:
		return c.TopK
	case s.TopK > 0:
		return s.TopK
	default:
		return fallback
	}
}
