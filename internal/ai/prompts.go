package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prajna-app/prajna-backend/internal/model"
)

// maxNoteChars caps how many bytes of a single topic note are placed in a generation prompt.
const maxNoteChars = 8000

// ShortAnswerPrompt builds the grading prompt for one short answer.
func ShortAnswerPrompt(in ShortAnswerInput) string {
	var b strings.Builder
	b.WriteString("You are an expert educational evaluator. Evaluate a student's short answer.\n\n")
	fmt.Fprintf(&b, "IDEAL ANSWER:\n%s\n\n", in.IdealAnswer)
	fmt.Fprintf(&b, "QUESTION: %s\n\n", in.Question)
	fmt.Fprintf(&b, "STUDENT'S ANSWER: %s\n\n", in.Answer)
	b.WriteString(`GUIDELINES:
1. Judge the answer against the question and the ideal answer.
2. Consider accuracy, completeness and relevance.
3. Score on a scale of 0-5:
   - 0: Completely incorrect or irrelevant
   - 1: Mostly incorrect with minimal relevant content
   - 2: Partially correct but missing key information
   - 3: Mostly correct with some minor inaccuracies
   - 4: Correct and comprehensive
   - 5: Excellent, demonstrating deep understanding
4. Give a concise explanation (2-3 sentences) of the score naming strengths and weaknesses.
`)
	return b.String()
}

// GenerationPrompt builds the prompt that asks the model for a full exam.
func GenerationPrompt(req GenerationRequest) string {
	var b strings.Builder
	b.WriteString("You are an experienced teacher writing an exam from a student's study notes.\n\n")
	fmt.Fprintf(&b, "Write exactly %d multiple choice questions, %d true/false statements and %d short answer questions.\n",
		req.MCQCount, req.TrueFalseCount, req.ShortAnswerCount)
	b.WriteString(`Rules:
- Multiple choice questions have four options and "answer" must be copied verbatim from "options".
- Every true/false statement has an explanation of why it is true or false.
- Every short answer question has a "modelAnswer" of one to three sentences.
- Questions must be answerable from the notes below.
- Give the exam a short descriptive title.
`)
	if info := strings.TrimSpace(req.AdditionalInfo); info != "" {
		fmt.Fprintf(&b, "\nAdditional instructions from the student:\n%s\n", info)
	}

	b.WriteString("\nNOTES:\n")
	if len(req.Topics) == 0 {
		b.WriteString("(no topic notes were selected; use the additional instructions)\n")
	}
	for _, t := range req.Topics {
		writeTopic(&b, t)
	}
	return b.String()
}

func writeTopic(b *strings.Builder, t model.Topic) {
	fmt.Fprintf(b, "\n## %s\n", t.Title)
	if t.AdditionalInfo != nil && *t.AdditionalInfo != "" {
		fmt.Fprintf(b, "%s\n", *t.AdditionalInfo)
	}
	if !t.HaveNote || len(t.Note) == 0 {
		return
	}
	b.WriteString(truncateNote(string(t.Note), maxNoteChars))
	b.WriteString("\n")
}

// truncateNote cuts note to at most limit bytes without splitting a rune.
func truncateNote(note string, limit int) string {
	if len(note) <= limit {
		return note
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(note[cut]) {
		cut--
	}
	return note[:cut]
}
