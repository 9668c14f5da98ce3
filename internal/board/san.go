package board

import "strings"

func sanTokens(text string) []string {
	var tokens = strings.FieldsFunc(text, func(ch rune) bool {
		return ch == '.' || ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
	})
	var result []string
	for _, tk := range tokens {
		if tk == "1-0" || tk == "0-1" || tk == "1/2-1/2" || tk == "*" {
			break
		}
		tk = strings.TrimRight(tk, "?!")
		if tk == "" || isNumber(tk) || !canBeMove(tk) {
			continue
		}
		result = append(result, tk)
	}
	return result
}

func isNumber(s string) bool {
	return -1 == strings.IndexFunc(s, func(ch rune) bool {
		return ch < '0' || ch > '9'
	})
}

func canBeMove(s string) bool {
	return -1 == strings.IndexFunc(s, func(ch rune) bool {
		return !strings.ContainsRune("12345678abcdefghNBRQKOxnbrq=-+#", ch)
	})
}
