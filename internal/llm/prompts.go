package llm

import (
	"fmt"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

const jsonOnly = "IMPORTANT: Return ONLY the JSON data without any introduction or explanation."

// task describes how one analysis kind is asked of the model.
type task struct {
	sampleChars int
	temperature float64
	maxTokens   int
	system      string
	prompt      func(book library.Book, sample string) string
}

var tasks = map[library.Kind]task{
	library.KindCharacters: {
		sampleChars: 15000,
		temperature: 0.1,
		maxTokens:   1500,
		system:      systemPrompt("literary analysis"),
		prompt:      charactersPrompt,
	},
	library.KindLanguage: {
		sampleChars: 5000,
		temperature: 0.1,
		maxTokens:   150,
		system:      systemPrompt("linguistic analysis"),
		prompt:      languagePrompt,
	},
	library.KindPlot: {
		sampleChars: 20000,
		temperature: 0.3,
		maxTokens:   1000,
		system:      systemPrompt("literary work summaries"),
		prompt:      plotPrompt,
	},
}

func systemPrompt(speciality string) string {
	return fmt.Sprintf("You are an assistant specialized in %s. Always respond with valid JSON only, no introductory text.", speciality)
}

func header(book library.Book) string {
	return fmt.Sprintf("Book: \"%s\" by %s\n\n", book.Title, book.Author)
}

func charactersPrompt(book library.Book, sample string) string {
	return header(book) + `Analyze the following text and identify the main characters of the book.
For each character, provide:
1. Character name
2. Brief description
3. Importance in the story (protagonist, main, secondary, etc.)

Identify between 3 and 7 characters depending on the complexity of the text.
Format the response in JSON with the structure:
{
    "characters": [
        {
            "name": "Character Name",
            "description": "Brief description",
            "importance": "protagonist|main|secondary"
        }
    ]
}

` + jsonOnly + "\n\nSample text:\n" + sample
}

func languagePrompt(_ library.Book, sample string) string {
	return `Analyze the following text and identify which language it is written in.
Provide the language name and the confidence level.
Format the response in JSON with the structure:
{
    "language": "Language name",
    "confidence": value_between_0_and_1
}

` + jsonOnly + "\n\nSample text:\n" + sample
}

func plotPrompt(book library.Book, sample string) string {
	return header(book) + `Read the following text and create a plot summary in up to 500 words.
Additionally, list 3 to 5 key events from the story.

Format the response in JSON with the structure:
{
    "summary": "Plot summary",
    "key_events": ["Event 1", "Event 2", "Event 3"]
}

` + jsonOnly + "\n\nSample text:\n" + sample
}

// sample returns the first n characters of s.
func sample(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
