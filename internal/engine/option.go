package engine

import (
	"strconv"
	"strings"
)

type OptionType int

const (
	OptionCheck OptionType = iota
	OptionSpin
	OptionString
	OptionCombo
	OptionButton
)

func (t OptionType) String() string {
	switch t {
	case OptionCheck:
		return "check"
	case OptionSpin:
		return "spin"
	case OptionString:
		return "string"
	case OptionCombo:
		return "combo"
	case OptionButton:
		return "button"
	}
	return ""
}

// Option is one engine-reported protocol option.
type Option struct {
	Name    string
	Type    OptionType
	Default string
	Min     int
	Max     int
	Choices []string
}

var optionKeywords = map[string]bool{
	"name":    true,
	"type":    true,
	"default": true,
	"min":     true,
	"max":     true,
	"var":     true,
}

// ParseOptionLine parses a UCI "option ..." line with a keyword tokenizer:
// each of name/type/default/min/max/var starts a segment running to the
// next keyword. Option names containing keyword words lose to the grammar,
// as everywhere else.
func ParseOptionLine(line string) (Option, bool) {
	var fields = strings.Fields(line)
	if len(fields) == 0 || fields[0] != "option" {
		return Option{}, false
	}
	fields = fields[1:]

	type segment struct {
		keyword string
		value   string
	}
	var segments []segment
	for i := 0; i < len(fields); i++ {
		if !optionKeywords[fields[i]] {
			continue
		}
		var keyword = fields[i]
		var j = i + 1
		for j < len(fields) && !optionKeywords[fields[j]] {
			j++
		}
		segments = append(segments, segment{keyword, strings.Join(fields[i+1:j], " ")})
		i = j - 1
	}

	var option = Option{Min: 0, Max: 0}
	var typeSeen, nameSeen bool
	for _, seg := range segments {
		switch seg.keyword {
		case "name":
			option.Name = seg.value
			nameSeen = true
		case "type":
			typeSeen = true
			switch seg.value {
			case "check":
				option.Type = OptionCheck
			case "spin":
				option.Type = OptionSpin
			case "string":
				option.Type = OptionString
			case "combo":
				option.Type = OptionCombo
			case "button":
				option.Type = OptionButton
			default:
				return Option{}, false
			}
		case "default":
			option.Default = seg.value
		case "min":
			option.Min, _ = strconv.Atoi(seg.value)
		case "max":
			option.Max, _ = strconv.Atoi(seg.value)
		case "var":
			option.Choices = append(option.Choices, seg.value)
		}
	}
	if !nameSeen || !typeSeen || option.Name == "" {
		return Option{}, false
	}
	if option.Type == OptionString && option.Default == "<empty>" {
		option.Default = ""
	}
	if option.Type == OptionCombo && option.Default == "" && len(option.Choices) > 0 {
		option.Default = option.Choices[0]
	}
	return option, true
}
