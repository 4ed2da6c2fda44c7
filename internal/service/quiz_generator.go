package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	minSentenceLen  = 60
	maxKeywords     = 8
	maxStatementLen = 140

	QuestionCloze     = "cloze"
	QuestionTrueFalse = "true_false"
	QuestionMultiple  = "multiple_choice"

	LabelTrue  = "True"
	LabelFalse = "False"
)

var (
	keywordPattern = regexp.MustCompile(`[\p{L}0-9\-]{4,}`)
	spacePattern   = regexp.MustCompile(`\s+`)

	stopwords = map[string]bool{
		// es
		"para": true, "como": true, "donde": true, "cuando": true, "entre": true, "sobre": true,
		"desde": true, "estos": true, "estas": true, "estar": true, "haber": true, "tener": true,
		"solo": true, "pero": true, "porque": true, "tambien": true, "también": true, "luego": true,
		"este": true, "esta": true, "todo": true, "cada": true, "puede": true, "pueden": true,
		"menos": true, "aqui": true, "aquí": true, "allí": true, "unos": true, "unas": true,
		"ellos": true, "ellas": true, "ante": true, "bajo": true,
		// en
		"that": true, "this": true, "with": true, "from": true, "have": true, "which": true,
		"there": true, "their": true, "were": true, "been": true, "into": true, "than": true,
		"they": true, "them": true, "then": true, "when": true, "what": true, "will": true,
		"would": true, "about": true, "these": true, "those": true, "also": true, "each": true,
		"only": true, "some": true, "such": true, "more": true, "most": true, "other": true,
	}
)

type GeneratedOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type GeneratedQuestion struct {
	Prompt  string            `json:"prompt"`
	Type    string            `json:"type,omitempty"`
	Options []GeneratedOption `json:"options"`
}

type GeneratedQuiz struct {
	Fingerprint string              `json:"fingerprint"`
	Source      string              `json:"-"`
	Questions   []GeneratedQuestion `json:"questions"`
}

// QuestionGenerator 由文本生成题目
type QuestionGenerator interface {
	Generate(ctx context.Context, text string, count int) (*GeneratedQuiz, error)
}

// Fingerprint md5(text) 加分钟桶，同一分钟内对同一文本结果稳定
func Fingerprint(text string, now time.Time) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("%s:%d", hex.EncodeToString(sum[:]), now.Unix()/60)
}

func seededRand(fingerprint string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(fingerprint))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// SplitSentences 在 .?! 加空白处断句，丢弃过短的句子
func SplitSentences(text string) []string {
	var out []string
	runes := []rune(strings.TrimSpace(text))
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".?!", runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = appendSentence(out, string(runes[start:i+1]))
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
		start = i + 1
	}
	if start < len(runes) {
		out = appendSentence(out, string(runes[start:]))
	}
	return out
}

func appendSentence(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) >= minSentenceLen {
		out = append(out, s)
	}
	return out
}

// ExtractKeywords 取前 8 个非停用词的长词
func ExtractKeywords(sentence string) []string {
	var out []string
	for _, tok := range keywordPattern.FindAllString(sentence, -1) {
		if stopwords[strings.ToLower(tok)] {
			continue
		}
		out = append(out, tok)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// LocalGenerator 不依赖外部服务的启发式出题器：优先填空题，不足时补判断题
type LocalGenerator struct {
	Now func() time.Time
}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{Now: time.Now}
}

func (g *LocalGenerator) Generate(_ context.Context, text string, count int) (*GeneratedQuiz, error) {
	fingerprint := Fingerprint(text, g.Now())
	rnd := seededRand(fingerprint)

	sentences := SplitSentences(text)
	rnd.Shuffle(len(sentences), func(i, j int) { sentences[i], sentences[j] = sentences[j], sentences[i] })

	questions := make([]GeneratedQuestion, 0, count)
	for _, s := range sentences {
		if len(questions) >= count {
			break
		}
		if q, ok := clozeQuestion(s, rnd); ok {
			questions = append(questions, q)
		}
	}

	var pool []string
	for _, s := range sentences {
		pool = append(pool, ExtractKeywords(s)...)
	}
	for _, s := range sentences {
		if len(questions) >= count {
			break
		}
		questions = append(questions, trueFalseQuestion(s, pool, rnd))
	}

	return &GeneratedQuiz{Fingerprint: fingerprint, Source: "local", Questions: questions}, nil
}

func clozeQuestion(sentence string, rnd *rand.Rand) (GeneratedQuestion, bool) {
	keywords := ExtractKeywords(sentence)
	if len(keywords) == 0 {
		return GeneratedQuestion{}, false
	}

	target := keywords[rnd.Intn(len(keywords))]
	seen := map[string]bool{target: true}
	options := []string{target}

	add := func(s string) {
		if len(options) < 4 && !seen[s] {
			seen[s] = true
			options = append(options, s)
		}
	}
	for _, k := range keywords {
		add(k)
	}
	// 干扰项不够时用变体补齐
	for _, v := range []string{reverse(target), strings.ToLower(target), strings.ToUpper(target), target + "s", "-" + target} {
		add(v)
	}
	rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	q := GeneratedQuestion{
		Prompt: strings.Replace(sentence, target, "____", 1),
		Type:   QuestionCloze,
	}
	for _, o := range options {
		q.Options = append(q.Options, GeneratedOption{Text: o, IsCorrect: o == target})
	}
	return q, true
}

// trueFalseQuestion 一半概率把句中关键词换成其他句子的关键词，使陈述为假
func trueFalseQuestion(sentence string, pool []string, rnd *rand.Rand) GeneratedQuestion {
	stmt := strings.TrimSpace(spacePattern.ReplaceAllString(sentence, " "))
	truth := true

	if rnd.Intn(2) == 0 {
		if keywords := ExtractKeywords(stmt); len(keywords) > 0 {
			target := keywords[rnd.Intn(len(keywords))]
			var swaps []string
			for _, k := range pool {
				if !strings.EqualFold(k, target) && !strings.Contains(stmt, k) {
					swaps = append(swaps, k)
				}
			}
			if len(swaps) > 0 {
				stmt = strings.Replace(stmt, target, swaps[rnd.Intn(len(swaps))], 1)
				truth = false
			}
		}
	}

	if r := []rune(stmt); len(r) > maxStatementLen {
		stmt = string(r[:maxStatementLen])
	}

	return GeneratedQuestion{
		Prompt: fmt.Sprintf("According to the document, it is correct that: %q", stmt),
		Type:   QuestionTrueFalse,
		Options: []GeneratedOption{
			{Text: LabelTrue, IsCorrect: truth},
			{Text: LabelFalse, IsCorrect: !truth},
		},
	}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
