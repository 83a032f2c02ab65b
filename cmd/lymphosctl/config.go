package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	lymphapi "lymphos/pkg/lymphos"
)

func loadSessionRequestFromConfig(path string) (lymphapi.RunSessionRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lymphapi.RunSessionRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return lymphapi.RunSessionRequest{}, err
	}

	var req lymphapi.RunSessionRequest
	if v, ok := asString(raw["session_id"]); ok {
		req.SessionID = v
	}
	if v, ok := asString(raw["source"]); ok {
		req.Source = v
	}
	if v, ok := asIntSlice(raw["values"]); ok {
		req.Values = v
	}
	return req, nil
}

func loadOrDefaultSessionRequest(configPath string) (lymphapi.RunSessionRequest, error) {
	if configPath == "" {
		return lymphapi.RunSessionRequest{}, nil
	}
	req, err := loadSessionRequestFromConfig(configPath)
	if err != nil {
		return lymphapi.RunSessionRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func parseValues(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("antigen value must be an integer: %q", part)
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no antigen values given")
	}
	return values, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asIntSlice(v any) ([]int, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, int(f))
	}
	return out, true
}
