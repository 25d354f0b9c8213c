package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Study holds the parts of the study definition a researcher may want to tune
// without recompiling: the Likert bounds used for questionnaire validation,
// the topic pool scenarios are drawn from, and the fallback question shown
// when a generated scenario lacks one.
type Study struct {
	LikertMin        int      `yaml:"likert_min"`
	LikertMax        int      `yaml:"likert_max"`
	Topics           []string `yaml:"topics"`
	FallbackQuestion string   `yaml:"fallback_question"`
}

// DefaultStudy returns the built-in study definition.
func DefaultStudy() *Study {
	return &Study{
		LikertMin: 1,
		LikertMax: 5,
		Topics: []string{
			"ethics in AI",
			"privacy in social media",
			"accountability in healthcare",
			"justice in education",
			"transparency in government",
		},
		FallbackQuestion: "What are your initial thoughts?",
	}
}

// LoadStudy reads a YAML study definition, overlaying it on the defaults.
// An empty path returns the defaults unchanged.
func LoadStudy(path string) (*Study, error) {
	study := DefaultStudy()
	if path == "" {
		return study, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read study config: %w", err)
	}
	if err := yaml.Unmarshal(data, study); err != nil {
		return nil, fmt.Errorf("parse study config: %w", err)
	}

	if study.LikertMin >= study.LikertMax {
		return nil, fmt.Errorf("study config: likert_min (%d) must be below likert_max (%d)", study.LikertMin, study.LikertMax)
	}
	if len(study.Topics) == 0 {
		return nil, fmt.Errorf("study config: at least one topic is required")
	}

	return study, nil
}
