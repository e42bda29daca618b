package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for issue codes.
// data provides the values substituted into the message template (for
// example "value", "max" or "property").
type Translator interface {
	Message(code string, data map[string]string) string
}

// Message keys that are not issue codes on their own.
const (
	KeyOneOfCase = "oneof.case"
	KeyCyclicRef = "reference.cyclic"
)

var english = map[string]string{
	"schema.validation.max_length":                       "Value length '{length}' is greater than expected '{max}'",
	"schema.validation.min_length":                       "Value length '{length}' is less than expected '{min}'",
	"schema.validation.pattern":                          "Value '{value}' is not matching expected pattern '{pattern}'",
	"schema.validation.email_not_valid":                  "Value '{value}' is not a valid email",
	"schema.validation.date":                             "Value '{value}' does not in valid date format",
	"schema.validation.min_value":                        "Date '{value}' does not match minValue ({min}) constraint",
	"schema.validation.max_value":                        "Date '{value}' does not match maxValue ({max}) constraint",
	"schema.validation.enum":                             "Value '{value}' is not present in allowed options: '[{options}]'",
	"schema.validation.boolean":                          "Input value is not boolean: {value}",
	"schema.validation.readonly":                         "Value '{value}' failed const constraint ({const})",
	"schema.validation.required":                         "Required property '{property}' is missing",
	"schema.validation.dependency":                       "Property '{property}' shoud be set because it depends on '{dependency}' property",
	"schema.validation.container.not_passed":             "Given value does not passed {container} validation",
	"schema.validation.container.one_of.satisfy_multiple": "Given value satisfy multiple validation schemas",
	"schema.build.definition_does_not_exist":             "Definition {reference} does not exist",
	"then_condition_not_passed":                          "Input data does not match schema from 'then' condition",
	"not_array":                                          "Input value type '{type}' is not an array and can't be validated",
	KeyOneOfCase:                                         "{message} according to case {case} in OneOf validation",
	KeyCyclicRef:                                         "Reference {reference} exceeds the maximum resolution depth {depth}",
}

var japanese = map[string]string{
	"schema.validation.max_length":                       "値の長さ '{length}' が上限 '{max}' を超えています",
	"schema.validation.min_length":                       "値の長さ '{length}' が下限 '{min}' を下回っています",
	"schema.validation.pattern":                          "値 '{value}' がパターン '{pattern}' に一致しません",
	"schema.validation.email_not_valid":                  "値 '{value}' は有効なメールアドレスではありません",
	"schema.validation.date":                             "値 '{value}' は有効な日付形式ではありません",
	"schema.validation.min_value":                        "日付 '{value}' が minValue ({min}) の制約を満たしません",
	"schema.validation.max_value":                        "日付 '{value}' が maxValue ({max}) の制約を満たしません",
	"schema.validation.enum":                             "値 '{value}' は許可された選択肢 '[{options}]' に含まれていません",
	"schema.validation.boolean":                          "真偽値ではありません: {value}",
	"schema.validation.readonly":                         "値 '{value}' は固定値 ({const}) と一致しません",
	"schema.validation.required":                         "必須プロパティ '{property}' が不足しています",
	"schema.validation.dependency":                       "'{dependency}' に依存するためプロパティ '{property}' が必要です",
	"schema.validation.container.not_passed":             "{container} の検証を満たしていません",
	"schema.validation.container.one_of.satisfy_multiple": "複数のスキーマに一致しました",
	"schema.build.definition_does_not_exist":             "定義 {reference} が存在しません",
	"then_condition_not_passed":                          "'then' 条件のスキーマに一致しません",
	"not_array":                                          "入力値の型 '{type}' はオブジェクトではないため検証できません",
	KeyOneOfCase:                                         "{message} (OneOf のケース {case})",
	KeyCyclicRef:                                         "参照 {reference} が最大解決深度 {depth} を超えました",
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ dict map[string]string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tpl, ok := t.dict[code]
	if !ok {
		tpl, ok = english[code]
	}
	if !ok {
		return code
	}
	return Render(tpl, data)
}

// Render substitutes {key} placeholders in tpl with values from data.
// Unknown placeholders are left untouched.
func Render(tpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tpl, "{") {
		return tpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{dict: english}
)

// English returns the built-in English Translator.
func English() Translator { return dictTranslator{dict: english} }

// Japanese returns the built-in Japanese Translator.
func Japanese() Translator { return dictTranslator{dict: japanese} }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang == "ja" {
		SetTranslator(Japanese())
		return
	}
	SetTranslator(English())
}

// SetTranslator replaces the process-wide Translator. nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = English()
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// Current returns the process-wide Translator.
func Current() Translator {
	mu.RLock()
	defer mu.RUnlock()
	return currentTranslator
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return Current().Message(code, data) }
