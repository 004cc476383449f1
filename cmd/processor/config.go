// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the processor's YAML-backed configuration. Every field has a
// usable default, so a missing config.yaml means "run with defaults".
type Config struct {
	OpenAI struct {
		Model             string `yaml:"model"`
		EmbeddingModel    string `yaml:"embedding_model"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"openai"`
	Weaviate struct {
		URL string `yaml:"url"`
	} `yaml:"weaviate"`
	Processing struct {
		MaxSegmentLength int `yaml:"max_segment_length"`
		MaxConcurrent    int `yaml:"max_concurrent"`
	} `yaml:"processing"`
}

func defaultConfig() Config {
	var c Config
	c.OpenAI.RequestsPerMinute = 50
	c.Processing.MaxSegmentLength = 2000
	c.Processing.MaxConcurrent = 5
	return c
}

// LoadConfig reads path when it exists and fills the gaps with defaults.
// Environment variables override the file: WEAVIATE_SERVICE_URL for the
// database, OPENAI_MODEL and OPENAI_EMBEDDING_MODEL for the models.
func LoadConfig(path string) (Config, error) {
	c := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("error parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return c, fmt.Errorf("error reading %s: %w", path, err)
	}

	if url := os.Getenv("WEAVIATE_SERVICE_URL"); url != "" {
		c.Weaviate.URL = url
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.OpenAI.Model = model
	}
	if model := os.Getenv("OPENAI_EMBEDDING_MODEL"); model != "" {
		c.OpenAI.EmbeddingModel = model
	}

	if c.Processing.MaxSegmentLength <= 0 {
		c.Processing.MaxSegmentLength = 2000
	}
	if c.Processing.MaxConcurrent <= 0 {
		c.Processing.MaxConcurrent = 5
	}
	if c.OpenAI.RequestsPerMinute <= 0 {
		c.OpenAI.RequestsPerMinute = 50
	}

	return c, nil
}
