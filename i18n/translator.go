package i18n

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "JSON として不正な値です"
		case "schema":
			return "スキーマ検証に失敗しました"
		case "special":
			return "追加検証に失敗しました"
		case "required":
			return "値が設定されていません"
		case "not_optional":
			return "必須プロパティに Absent は設定できません"
		case "rebind":
			return "プロパティ名は既に別名で確定しています"
		case "too_small":
			return "要素数が最小値です"
		case "too_big":
			return "要素数が最大値です"
		case "uniqueness":
			return "要素が重複しています"
		case "union_no_match":
			return "どの候補にも一致しません"
		case "union_ambiguous":
			return "複数の候補に一致しました"
		case "unknown_key":
			return "未知のプロパティです"
		case "duplicate_property":
			return "プロパティ名が重複しています"
		case "duplicate_key":
			return "キーが重複しています"
		case "bad_declaration":
			return "宣言が不正です"
		case "parse_error":
			return "解析エラー"
		case "io":
			return "入出力エラー"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "value is not raw JSON"
		case "schema":
			return "value failed schema validation"
		case "special":
			return "value failed special validation"
		case "required":
			return "no value set"
		case "not_optional":
			return "cannot set non-optional property as absent"
		case "rebind":
			return "property already bound to a different name"
		case "too_small":
			return "array already at minimum size"
		case "too_big":
			return "array already at maximum size"
		case "uniqueness":
			return "non-unique element"
		case "union_no_match":
			return "value matched no sub-property"
		case "union_ambiguous":
			return "value matched more than one sub-property"
		case "unknown_key":
			return "unknown property"
		case "duplicate_property":
			return "duplicate property name"
		case "duplicate_key":
			return "duplicate object key"
		case "bad_declaration":
			return "invalid declaration"
		case "parse_error":
			return "parse error"
		case "io":
			return "i/o error"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
