package service

import (
	_ "embed"
	"fmt"
	"guidesphere_backend/internal/util"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed fixed_exam.yaml
var fixedExamYAML []byte

type FixedQuestion struct {
	Question string            `yaml:"question" json:"question"`
	Options  map[string]string `yaml:"options" json:"options"`
	Correct  string            `yaml:"correct" json:"-"`
}

// FixedExam 内置的固定试卷
type FixedExam struct {
	PassRatio float64         `yaml:"pass_ratio"`
	Questions []FixedQuestion `yaml:"questions"`
}

func LoadFixedExam(data []byte) (*FixedExam, error) {
	var exam FixedExam
	if err := yaml.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("parse fixed exam: %w", err)
	}
	if len(exam.Questions) == 0 {
		return nil, fmt.Errorf("fixed exam has no questions")
	}
	for i, q := range exam.Questions {
		if _, ok := q.Options[q.Correct]; !ok {
			return nil, fmt.Errorf("fixed exam question %d: correct answer %q is not an option", i+1, q.Correct)
		}
	}
	if exam.PassRatio <= 0 {
		exam.PassRatio = 0.6
	}
	return &exam, nil
}

// MustLoadDefaultFixedExam 读取内嵌试卷，格式错误直接 panic
func MustLoadDefaultFixedExam() *FixedExam {
	exam, err := LoadFixedExam(fixedExamYAML)
	if err != nil {
		panic(err)
	}
	return exam
}

type FixedExamQuestionView struct {
	Num      int               `json:"num"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

type FixedExamView struct {
	AttemptID string                  `json:"attempt_id"`
	Questions []FixedExamQuestionView `json:"questions"`
}

type FixedExamResult struct {
	Score    float64 `json:"score"`
	Passed   bool    `json:"passed"`
	Total    int     `json:"total"`
	Corrects int     `json:"corrects"`
}

// Build 每次返回新的作答 id
func (e *FixedExam) Build() *FixedExamView {
	view := &FixedExamView{AttemptID: uuid.NewString()}
	for i, q := range e.Questions {
		view.Questions = append(view.Questions, FixedExamQuestionView{
			Num:      i + 1,
			Question: q.Question,
			Options:  q.Options,
		})
	}
	return view
}

// Grade answers 的键是题号（从 1 开始），字母不区分大小写
func (e *FixedExam) Grade(answers map[string]string) FixedExamResult {
	total := len(e.Questions)
	corrects := 0
	for i, q := range e.Questions {
		if strings.EqualFold(strings.TrimSpace(answers[strconv.Itoa(i+1)]), q.Correct) {
			corrects++
		}
	}
	return FixedExamResult{
		Score:    util.Round2(100 * float64(corrects) / float64(total)),
		Passed:   float64(corrects)/float64(total) >= e.PassRatio,
		Total:    total,
		Corrects: corrects,
	}
}
