package generation

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const questionSchemaName = "practice_question"

// questionSchema - форма ответа модели. Strict-режим OpenAI требует,
// чтобы все свойства были обязательными и без лишних полей.
var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question":       map[string]any{"type": "string", "minLength": 5},
		"answer":         map[string]any{"type": "string", "minLength": 1},
		"explanation":    map[string]any{"type": "string"},
		"hints":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 3},
		"solution_steps": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"question", "answer", "explanation", "hints", "solution_steps"},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// компилятору нужен разобранный JSON, а не map с типизированными срезами
		raw, err := json.Marshal(questionSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		url := "schema://" + questionSchemaName + ".json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

// validateResponse проверяет сырой JSON ответа модели по схеме вопроса
func validateResponse(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrInvalidResponse, err)
	}
	schema, err := compiled()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
