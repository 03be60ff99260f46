package anki

const (
	ModelName    = "FlashSheet Basic"
	TemplateName = "Card 1"

	QuestionField = "Question"
	AnswerField   = "Answer"
	HashField     = "Hash"

	QuestionTemplate = `<div style="font-family: Arial; font-size: 20px; text-align: center;">{{Question}}</div>`
	AnswerTemplate   = `{{FrontSide}}<hr id="answer"><div style="font-family: Arial; font-size: 16px; text-align: left; display: inline-block;">{{Answer}}</div>`
	ModelCSS         = `.card { text-align: center; color: black; background-color: white; } img { max-width: 100%; height: auto; }`

	Tag = "flashsheet"
)

// Fields lists the note fields in order. Hash is never shown; it identifies
// a note for duplicate detection.
var Fields = []string{QuestionField, AnswerField, HashField}
