package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `Docker packages applications into portable containers that share the host kernel. ` +
	`Images are built from a Dockerfile where every instruction produces a cacheable layer. ` +
	`Volumes persist container data beyond the lifetime of a single container instance. ` +
	`Short line. ` +
	`Networks let containers discover each other by service name inside the same compose project.`

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 10, 30, 15, 0, time.UTC)
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences(sampleText)
	require.Len(t, sentences, 4)
	assert.True(t, strings.HasPrefix(sentences[0], "Docker packages"))
	assert.True(t, strings.HasSuffix(sentences[3], "compose project."))
	for _, s := range sentences {
		assert.GreaterOrEqual(t, len([]rune(s)), minSentenceLen)
	}

	assert.Empty(t, SplitSentences("Too short. Also short!"))
	// 小数点不是断句位置
	assert.Len(t, SplitSentences("Version 1.25 of the runtime added support for cgroups v2 and many performance fixes"), 1)
}

func TestExtractKeywords(t *testing.T) {
	kw := ExtractKeywords("Containers share the host kernel with other processes from this machine")
	assert.Equal(t, []string{"Containers", "share", "host", "kernel", "processes", "machine"}, kw)

	long := ExtractKeywords("alpha bravo charlie delta echoes foxtrot golfer hotel india juliet")
	assert.Len(t, long, maxKeywords)

	assert.Empty(t, ExtractKeywords("a an to of"))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("hello", fixedClock())
	b := Fingerprint("hello", fixedClock().Add(20*time.Second))
	c := Fingerprint("hello", fixedClock().Add(2*time.Minute))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, ":")
	assert.Len(t, strings.Split(a, ":")[0], 32)
}

func TestLocalGenerator(t *testing.T) {
	g := &LocalGenerator{Now: fixedClock}

	quiz, err := g.Generate(context.Background(), sampleText, 6)
	require.NoError(t, err)
	assert.Equal(t, "local", quiz.Source)
	require.Len(t, quiz.Questions, 6)

	cloze, trueFalse := 0, 0
	for _, q := range quiz.Questions {
		correct := 0
		for _, o := range q.Options {
			if o.IsCorrect {
				correct++
			}
		}
		assert.Equal(t, 1, correct, q.Prompt)

		switch q.Type {
		case QuestionCloze:
			cloze++
			assert.Contains(t, q.Prompt, "____")
			assert.GreaterOrEqual(t, len(q.Options), 3)
			assert.LessOrEqual(t, len(q.Options), 4)
		case QuestionTrueFalse:
			trueFalse++
			require.Len(t, q.Options, 2)
			assert.Equal(t, LabelTrue, q.Options[0].Text)
			assert.Equal(t, LabelFalse, q.Options[1].Text)
		}
	}
	// 四个句子先出填空题，再补判断题
	assert.Equal(t, 4, cloze)
	assert.Equal(t, 2, trueFalse)

	again, err := g.Generate(context.Background(), sampleText, 6)
	require.NoError(t, err)
	assert.Equal(t, quiz, again)
}

func TestLocalGeneratorNoSentences(t *testing.T) {
	g := &LocalGenerator{Now: fixedClock}
	quiz, err := g.Generate(context.Background(), "tiny text", 5)
	require.NoError(t, err)
	assert.Empty(t, quiz.Questions)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
