package ai

import (
	"fmt"
	"strings"
)

// BuildAnalysisPrompt assembles the analysis prompt: the study material,
// the ordered question list, and every student's answers, followed by the
// required output schema.
func BuildAnalysisPrompt(req AnalysisRequest) string {
	var b strings.Builder

	b.WriteString("Analyze the following test results and identify student misconceptions.\n\n")

	b.WriteString("## Study Material\n")
	fmt.Fprintf(&b, "Title: %s\n", req.MaterialTitle)
	content := req.MaterialContent
	if strings.TrimSpace(content) == "" {
		if strings.TrimSpace(req.MaterialDescription) != "" {
			content = req.MaterialDescription
		} else {
			content = "Content not extracted yet"
		}
	}
	fmt.Fprintf(&b, "Content: %s\n\n", content)

	b.WriteString("## Questions\n")
	for i, q := range req.Questions {
		fmt.Fprintf(&b, "Q%d (%s, %d points): %s\n", i+1, q.Type, q.Points, q.Text)
		if len(q.Options) > 0 {
			fmt.Fprintf(&b, "   Options: %s\n", strings.Join(q.Options, " | "))
		}
	}
	b.WriteString("\n## Student Answers\n")

	questionIndex := make(map[string]int, len(req.Questions))
	for i, q := range req.Questions {
		questionIndex[q.ID] = i + 1
	}

	for _, sub := range req.Submissions {
		fmt.Fprintf(&b, "Student: %s\n", sub.StudentName)
		if len(sub.Answers) == 0 {
			b.WriteString("   (no answers recorded)\n")
			continue
		}
		for _, ans := range sub.Answers {
			if n, ok := questionIndex[ans.QuestionID]; ok {
				fmt.Fprintf(&b, "   Q%d: %s\n", n, ans.Answer)
			} else {
				fmt.Fprintf(&b, "   [%s]: %s\n", ans.QuestionID, ans.Answer)
			}
		}
	}

	b.WriteString(`
## Output
Respond with a single JSON object, no markdown fences, in this exact shape:
{
  "misconceptions": [
    {
      "topic": "string",
      "description": "string",
      "affectedStudents": ["student name"],
      "severity": "low" | "medium" | "high",
      "examples": ["string"]
    }
  ],
  "contentGuidance": [
    {
      "section": "string",
      "currentContent": "string",
      "issues": ["string"],
      "specificImprovements": ["string"],
      "priority": "low" | "medium" | "high"
    }
  ],
  "overallInsights": ["string"]
}
`)

	return b.String()
}
