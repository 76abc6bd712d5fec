// Package modules holds Processor implementations bundled with NLPipe
// itself, as opposed to ones registered by external tools.
package modules

import (
	"encoding/json"
	"strings"

	"github.com/nlpipe/nlpipe/registry"
)

// Upper is a trivial processor used for smoke-testing a deployment: it
// upper-cases the document verbatim. Modeled on the Python project's
// test_upper fixture module.
type Upper struct {
	registry.BaseProcessor
}

func (Upper) Name() string { return "test_upper" }

func (Upper) CheckStatus() error { return nil }

func (Upper) Process(doc []byte) ([]byte, error) {
	return []byte(strings.ToUpper(string(doc))), nil
}

func (Upper) Convert(id string, result []byte, format string) ([]byte, error) {
	if format != "json" {
		return registry.BaseProcessor{}.Convert(id, result, format)
	}
	return json.Marshal(struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Result string `json:"result"`
	}{ID: id, Status: "OK", Result: string(result)})
}
