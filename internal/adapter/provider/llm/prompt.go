package llm

import (
	"strings"
)

const answerFormat = `Answer with JSON only, no prose around it:
{"possibleTriggers": ["food", ...], "explanation": "two or three sentences"}
Mention that this is not a medical diagnosis.`

func triggersPrompt(foods, symptoms []string) string {
	var b strings.Builder
	b.WriteString("You help a household find foods that may trigger allergic or intolerance symptoms.\n")
	b.WriteString("Foods eaten shortly before symptoms: ")
	b.WriteString(strings.Join(foods, ", "))
	b.WriteString("\nObserved symptoms: ")
	b.WriteString(strings.Join(symptoms, ", "))
	b.WriteString("\n\n")
	b.WriteString(answerFormat)
	return b.String()
}

func reviewPrompt(foodLog, symptomLog string) string {
	var b strings.Builder
	b.WriteString("You help a household find foods that may trigger allergic or intolerance symptoms.\n")
	b.WriteString("Review the following diary and name the foods most likely connected to the symptoms.\n\n")
	b.WriteString("Food log:\n")
	b.WriteString(foodLog)
	b.WriteString("\n\nSymptom log:\n")
	b.WriteString(symptomLog)
	b.WriteString("\n\n")
	b.WriteString(answerFormat)
	return b.String()
}
