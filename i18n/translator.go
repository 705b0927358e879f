package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "key" or "align").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"format":             "invalid layout data",
		"metadata_placement": "keyboard metadata must be the first element",
		"rotation_placement": "rotation can only be specified on the first key in a row",
		"parse_error":        "parse error",
		"duplicate_key":      "duplicate key",
		"truncated":          "truncated",
		"unknown_field":      "unknown property",
		"dropped_legend":     "legend dropped by the alignment",
	},
	"ja": {
		"format":             "レイアウトデータが不正です",
		"metadata_placement": "キーボードのメタデータは先頭要素でなければなりません",
		"rotation_placement": "回転は行の最初のキーでのみ指定できます",
		"parse_error":        "解析エラー",
		"duplicate_key":      "キーが重複しています",
		"truncated":          "打ち切られました",
		"unknown_field":      "未知のプロパティです",
		"dropped_legend":     "配置フラグによりレジェンドが破棄されました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if k := data["key"]; k != "" {
		msg += ": " + k
	}
	return msg
}

// ForLanguage returns the built-in Translator for lang ("en"/"ja"). Other
// languages fall back to en.
func ForLanguage(lang string) Translator {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}
