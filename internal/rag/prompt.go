package rag

import (
	"strings"
)

// DefaultLanguage is the translation target used by the /tr-cn endpoints.
const DefaultLanguage = "Traditional Chinese"

const reportFormat = `Summary:
(2 short sentences describing overall diet vs recommended intake)

Key Health Concerns:
- Line 1
- Line 2

Dietary Issues Observed:
- Line 1
- Line 2

Caregiver Action Steps:
1. Step one
2. Step two
3. Step three`

// Template is an answer prompt with {question} and {context} placeholders.
type Template string

// CaregiverReport asks for the four-section caregiver report.
const CaregiverReport Template = `You are a clinical nutrition assistant writing guidance for non-medical caregivers.

TASK:
Review the patient information, recommended daily intake, and meals, then provide clear dietary guidance that compares actual intake patterns against recommended needs. Use the retrieved context below to support your reasoning.

CRITICAL OUTPUT RULES:
- Output PLAIN TEXT only
- Do NOT use JSON
- Do NOT use markdown
- Do NOT use bullet symbols other than the ones shown below
- Do NOT use code blocks or backticks
- Do NOT include medical disclaimers
- Do NOT include any introductory or closing remarks
- If it lacks exact values, give only safe, general suggestions.
- Do NOT make up numbers or conversions.

FORMAT RULES (MUST FOLLOW EXACTLY):

` + reportFormat + `

CONTENT LIMITS:
- Keep total length under 140 words
- Use simple, supportive language
- Focus on food choices, portion size, and balance
- Reference recommended intake only when helpful for guidance

Query:
{question}

Context:
{context}

FINAL CHECK:
Return ONLY the formatted text exactly as specified above. No extra text.
`

// MealAnalysis asks for a three-part analysis of a single meal against the
// patient's reference intakes. The duplex channel answers with it.
const MealAnalysis Template = `You are a professional clinical nutritionist specializing in elderly care in Taiwan.

Use the retrieved context below to support your reasoning.
- If context provides relevant data, use it directly.
- If it lacks exact values, give only safe, general suggestions.
- Do NOT make up numbers or conversions.
- Be concise, clear, and compassionate.
- Give the response in English.

Question:
{question}

Context:
{context}

Based on this meal intake and the calculated daily DRIs, please provide:
1. Analysis: summarize the nutritional content and adequacy.
2. Suggestions: what can be improved or balanced.
3. Recommendations: practical next steps for elderly dietary care.
`

// Render substitutes question and context into the template. Placeholders
// inside question or context are left as they are.
func (t Template) Render(question, context string) string {
	return strings.NewReplacer("{question}", question, "{context}", context).Replace(string(t))
}

// SummarizePrompt asks for a summary of at most 150 words in the report format.
func SummarizePrompt(text string) string {
	return "Please provide a comprehensive summary with 150 or less words: \n" + text +
		"\n\nBut keep the same format rules below\nFORMAT RULES (MUST FOLLOW EXACTLY)\n\n" + reportFormat + "\n"
}

// TranslatePrompt asks for text rendered in language.
func TranslatePrompt(text, language string) string {
	return "Please translate the following text into " + language + ": \n\n" + text
}

// SummarizeTranslatePrompt asks for the summary and its translation in one call.
func SummarizeTranslatePrompt(text, language string) string {
	return SummarizePrompt(text) +
		"\nThen translate the text into " + language + " and only reply with the translated text.\n"
}

// AssembleContext joins chunk texts with a blank line. No chunks yield "".
func AssembleContext(chunks []Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}
