// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"errors"
	"fmt"
)

// 对话与检索流水线的哨兵错误
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnknownTool          = errors.New("unknown tool")
	ErrClassification       = errors.New("classification failed")
	ErrRetrievalUnavailable = errors.New("knowledge base unavailable")
	ErrRetrievalFailed      = errors.New("retrieval failed")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrEmbeddingFailed      = errors.New("embedding failed")
	ErrIndexingFailed       = errors.New("indexing failed")
	ErrChunkingConfig       = errors.New("invalid chunking configuration")
	ErrLoadingFailed        = errors.New("loading failed")
	ErrBackendUnavailable   = errors.New("tool backend unavailable")
)

// PipelineError 带阶段信息的错误
type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError 创建新的 Pipeline 错误
func NewPipelineError(stage string, message string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// IsPipelineError 检查是否为 Pipeline 错误
func IsPipelineError(err error) bool {
	var pipelineErr *PipelineError
	return errors.As(err, &pipelineErr)
}

// GetPipelineError 获取 Pipeline 错误
func GetPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// ValidationError 参数校验错误
type ValidationError struct {
	Field   string
	Message string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Unwrap 使 errors.Is(err, ErrInvalidInput) 成立
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError 创建新的验证错误
func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// GetValidationError 获取验证错误
func GetValidationError(err error) (*ValidationError, bool) {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr, true
	}
	return nil, false
}

// ToolExecutionError 工具调用失败：未知工具、参数缺失或后端错误。
// 在回合边界被捕获并替换为致歉消息。
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// NewToolExecutionError 创建工具调用错误
func NewToolExecutionError(tool string, err error) *ToolExecutionError {
	return &ToolExecutionError{Tool: tool, Err: err}
}

// IsToolExecutionError 检查是否为工具调用错误
func IsToolExecutionError(err error) bool {
	var toolErr *ToolExecutionError
	return errors.As(err, &toolErr)
}

// GetToolExecutionError 获取工具调用错误
func GetToolExecutionError(err error) (*ToolExecutionError, bool) {
	var toolErr *ToolExecutionError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// ClassificationParseError 模型输出中没有合法的工具调用 JSON
type ClassificationParseError struct {
	Reason string
	Raw    string
}

func (e *ClassificationParseError) Error() string {
	return fmt.Sprintf("classification: %s", e.Reason)
}

func (e *ClassificationParseError) Unwrap() error {
	return ErrClassification
}

// NewClassificationParseError 创建意图解析错误
func NewClassificationParseError(reason, raw string) *ClassificationParseError {
	return &ClassificationParseError{Reason: reason, Raw: raw}
}

// IsClassificationParseError 检查是否为意图解析错误
func IsClassificationParseError(err error) bool {
	var parseErr *ClassificationParseError
	return errors.As(err, &parseErr)
}

// ChunkingConfigurationError 切片参数非法（overlap >= size 等）
type ChunkingConfigurationError struct {
	Size    int
	Overlap int
}

func (e *ChunkingConfigurationError) Error() string {
	return fmt.Sprintf("chunking: overlap %d must be >= 0 and smaller than size %d", e.Overlap, e.Size)
}

func (e *ChunkingConfigurationError) Unwrap() error {
	return ErrChunkingConfig
}

// IsChunkingConfigurationError 检查是否为切片配置错误
func IsChunkingConfigurationError(err error) bool {
	var cfgErr *ChunkingConfigurationError
	return errors.As(err, &cfgErr)
}
