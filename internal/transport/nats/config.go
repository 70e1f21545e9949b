// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nats

// Config holds the configuration for connecting to a NATS server and
// for the subject the egress receiver publishes flushed buckets to.
type Config struct {
	Address       string `json:"address"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"creds-file-path,omitempty"`
	// SubjectPrefix is prepended to the project key to form the subject a
	// project's flushed buckets are published on (default "metrics.").
	SubjectPrefix string `json:"subject-prefix,omitempty"`
}

// ConfigSchema is a JSON Schema fragment for Config. It matches the
// "nats" object of internal/config's embedded aggregator schema, which
// spells that object out itself and does not read this constant.
const ConfigSchema = `{
    "type": "object",
    "description": "Configuration for the NATS egress client.",
    "properties": {
        "address": {
            "description": "Address of the NATS server (e.g., 'nats://localhost:4222').",
            "type": "string"
        },
        "username": {
            "description": "Username for NATS authentication (optional).",
            "type": "string"
        },
        "password": {
            "description": "Password for NATS authentication (optional).",
            "type": "string"
        },
        "creds-file-path": {
            "description": "Path to NATS credentials file for authentication (optional).",
            "type": "string"
        },
        "subject-prefix": {
            "description": "Subject prefix flushed buckets are published under, per project (optional, default 'metrics.').",
            "type": "string"
        }
    },
    "required": ["address"]
}`

func (c *Config) subjectPrefix() string {
	if c.SubjectPrefix == "" {
		return "metrics."
	}
	return c.SubjectPrefix
}
