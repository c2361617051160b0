package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Problem types. The type selects the output-comparison policy and, for
// dynamic_ranking, the bonus scoring handled by the rank engine.
const (
	TypeStandard       = "standard"
	TypeStrict         = "strict"
	TypeSPJ            = "spj"
	TypeDynamicRanking = "dynamic_ranking"
)

type Server struct {
	BindAddress string `json:"bind_address" yaml:"bind_address"`
	BindPort    int    `json:"bind_port" yaml:"bind_port"`
}

// Case is one (input, answer, score, limits) tuple. TimeLimit is wall-clock
// microseconds; MemoryLimit is advisory and never enforced.
type Case struct {
	Score       float64 `json:"score" yaml:"score"`
	InputFile   string  `json:"input_file" yaml:"input_file"`
	AnswerFile  string  `json:"answer_file" yaml:"answer_file"`
	TimeLimit   int64   `json:"time_limit" yaml:"time_limit"`
	MemoryLimit int64   `json:"memory_limit" yaml:"memory_limit"`
}

type Misc struct {
	// Packing groups 1-based case indices into packs that score together.
	Packing [][]int `json:"packing,omitempty" yaml:"packing,omitempty"`
	// SpecialJudge is the adjudicator command with %OUTPUT% and %ANSWER%
	// markers, for problems of type spj.
	SpecialJudge []string `json:"special_judge,omitempty" yaml:"special_judge,omitempty"`
	// DynamicRankingRatio is the score fraction r reserved for the runtime
	// bonus of dynamic_ranking problems.
	DynamicRankingRatio float64 `json:"dynamic_ranking_ratio,omitempty" yaml:"dynamic_ranking_ratio,omitempty"`
}

type Problem struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Misc  Misc   `json:"misc" yaml:"misc"`
	Cases []Case `json:"cases" yaml:"cases"`
}

// Packs returns the packing groups, defaulting to a single pack holding all
// cases in order.
func (p *Problem) Packs() [][]int {
	if len(p.Misc.Packing) > 0 {
		return p.Misc.Packing
	}
	all := make([]int, len(p.Cases))
	for i := range p.Cases {
		all[i] = i + 1
	}
	return [][]int{all}
}

// Ratio returns the dynamic-ranking ratio, 0 for ordinary problems.
func (p *Problem) Ratio() float64 {
	if p.Type != TypeDynamicRanking {
		return 0
	}
	return p.Misc.DynamicRankingRatio
}

// Language describes how to compile a submission. Command carries the
// %INPUT% (source file) and %OUTPUT% (artifact) markers.
type Language struct {
	Name     string   `json:"name" yaml:"name"`
	FileName string   `json:"file_name" yaml:"file_name"`
	Command  []string `json:"command" yaml:"command"`
}

type Config struct {
	Server    Server     `json:"server" yaml:"server"`
	Problems  []Problem  `json:"problems" yaml:"problems"`
	Languages []Language `json:"languages" yaml:"languages"`
}

// Load reads the config file once at startup. The wire format is JSON;
// files ending in .yaml/.yml are accepted for convenience. The result is
// treated as immutable afterwards.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		Server: Server{BindAddress: "127.0.0.1", BindPort: 12345},
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = "127.0.0.1"
	}
	if cfg.Server.BindPort == 0 {
		cfg.Server.BindPort = 12345
	}
	return &cfg, nil
}

func (c *Config) LanguageByName(name string) (*Language, bool) {
	for i := range c.Languages {
		if c.Languages[i].Name == name {
			return &c.Languages[i], true
		}
	}
	return nil, false
}

func (c *Config) ProblemByID(id int) (*Problem, bool) {
	for i := range c.Problems {
		if c.Problems[i].ID == id {
			return &c.Problems[i], true
		}
	}
	return nil, false
}

// ProblemIDs enumerates the configured problems in declaration order.
func (c *Config) ProblemIDs() []int {
	ids := make([]int, len(c.Problems))
	for i := range c.Problems {
		ids[i] = c.Problems[i].ID
	}
	return ids
}
