package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "min" or "expected").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in English catalog. Each entry has a form used
// when its parameter is present and a plain fallback.
type dictTranslator struct{}

type entry struct {
	param string
	with  string
	plain string
}

var catalog = map[string]entry{
	"invalid_type":     {param: "expected", with: "expected {expected}", plain: "invalid type"},
	"required":         {plain: "required"},
	"too_short":        {param: "min", with: "must be at least {min} characters", plain: "too short"},
	"too_long":         {param: "max", with: "must be at most {max} characters", plain: "too long"},
	"too_small":        {param: "min", with: "must be at least {min}", plain: "too small"},
	"too_big":          {param: "max", with: "must be at most {max}", plain: "too big"},
	"pattern":          {param: "pattern", with: "must match {pattern}", plain: "invalid format"},
	"invalid_format":   {param: "format", with: "must be a valid {format}", plain: "invalid format"},
	"not_integer":      {plain: "must be an integer"},
	"parse_error":      {plain: "parse error"},
	"validator_failed": {plain: "validation could not run"},
}

func (dictTranslator) Message(code string, data map[string]string) string {
	e, ok := catalog[code]
	if !ok {
		return code
	}
	if e.param != "" {
		if v, ok := data[e.param]; ok {
			return strings.ReplaceAll(e.with, "{"+e.param+"}", v)
		}
	}
	return e.plain
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{}
)

// SetTranslator replaces the Translator implementation. nil restores the
// built-in catalog.
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
