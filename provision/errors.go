/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package provision

import "fmt"

// Error codes reported by Service operations.
const (
	CodeMissingProjectName   = "missing_project_name"
	CodeMissingRepo          = "missing_repo"
	CodeMissingGitHubToken   = "missing_github_token"
	CodeRepoGenerationFailed = "repo_generation_failed"
	CodeRepoInfoFailed       = "repo_info_failed"
)

// ValidationError reports a required input that is missing or blank.
type ValidationError struct {
	ErrCode string
	Field   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s is required", e.ErrCode, e.Field)
}

// Code returns the machine-readable error code.
func (e *ValidationError) Code() string { return e.ErrCode }

// ConfigError reports a setting the service needs but was not given.
type ConfigError struct {
	ErrCode string
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s is not configured", e.ErrCode, e.Setting)
}

// Code returns the machine-readable error code.
func (e *ConfigError) Code() string { return e.ErrCode }

// OperationError wraps a failure of the remote work behind an operation.
type OperationError struct {
	ErrCode string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.ErrCode, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code.
func (e *OperationError) Code() string { return e.ErrCode }
