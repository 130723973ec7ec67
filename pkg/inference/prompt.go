package inference

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// FallbackPhrase is what the model is told to say, in the target language,
// when it does not understand the question.
const FallbackPhrase = "I did not get what you speak, please try again"

const promptTemplate = `Kindly answer this question in %[1]s language.
Don't use any other language or characters from other languages.
Use some kind %[1]s words in the start and ending of your answer related to the question.
Keep your answer short.
You can also ask anything related to the topic in %[1]s.
If you don't know the answer or don't understand the question,
respond with '%[2]s' in %[1]s.
Question: %[3]s`

// PromptRequest is a transcript wrapped in the fixed instruction template.
type PromptRequest struct {
	Question string
	Language language.Tag
}

// String renders the prompt sent to the model.
func (p PromptRequest) String() string {
	return fmt.Sprintf(promptTemplate, LanguageName(p.Language), FallbackPhrase, p.Question)
}

// LanguageName returns the English name of tag's base language, e.g. "Urdu" for ur-PK.
func LanguageName(tag language.Tag) string {
	base, _ := tag.Base()
	if name := display.Languages(language.English).Name(language.Make(base.String())); name != "" {
		return name
	}
	return tag.String()
}
