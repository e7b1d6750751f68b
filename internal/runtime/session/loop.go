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

package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"campus-assistant/pkg/log"
)

// DefaultSentinels 结束会话的输入
var DefaultSentinels = []string{"quit", "exit", "bye", "goodbye"}

// TurnHandler 处理一条用户输入
type TurnHandler interface {
	HandleTurn(ctx context.Context, message string) (string, error)
}

// TurnHandlerFunc 函数适配
type TurnHandlerFunc func(ctx context.Context, message string) (string, error)

// HandleTurn 实现 TurnHandler
func (f TurnHandlerFunc) HandleTurn(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// LoopOptions REPL 选项
type LoopOptions struct {
	Prompt    string
	Separator string
	Farewell  string
	Sentinels []string
	// MaxLineBytes 单行输入上限，超出的整行被丢弃；0 使用 DefaultMaxLineBytes
	MaxLineBytes int
	Logger       *log.Logger
}

// DefaultMaxLineBytes 默认单行上限
const DefaultMaxLineBytes = 1024 * 1024

// StopReason 循环结束原因
type StopReason string

const (
	StopSentinel  StopReason = "sentinel"
	StopEOF       StopReason = "eof"
	StopCancelled StopReason = "cancelled"
)

// IsSentinel 判断输入是否为结束指令（忽略大小写与首尾空白）
func IsSentinel(line string, sentinels []string) bool {
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels
	}
	line = strings.ToLower(strings.TrimSpace(line))
	for _, s := range sentinels {
		if line == s {
			return true
		}
	}
	return false
}

// RunLoop 逐行读取输入并交给 handler，单个回合失败不影响后续输入
func RunLoop(ctx context.Context, in io.Reader, out io.Writer, handler TurnHandler, opts LoopOptions) (StopReason, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go readLines(ctx, done, in, maxLine, lines, readErr)

	for {
		if opts.Prompt != "" {
			fmt.Fprint(out, opts.Prompt)
		}
		var line string
		select {
		case <-ctx.Done():
			return StopCancelled, nil
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return StopEOF, fmt.Errorf("read input: %w", err)
				default:
					return StopEOF, nil
				}
			}
			if l.oversize {
				logger.Warn("input line dropped", "limit_bytes", maxLine)
				fmt.Fprintf(out, "(input longer than %d bytes was ignored)\n", maxLine)
				continue
			}
			line = l.text
		}

		if IsSentinel(line, opts.Sentinels) {
			if opts.Farewell != "" {
				fmt.Fprintln(out, opts.Farewell)
			}
			return StopSentinel, nil
		}
		message := strings.TrimSpace(line)
		if message == "" {
			continue
		}

		reply, err := handler.HandleTurn(ctx, message)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return StopCancelled, nil
			}
			logger.Error("turn failed", "error", err)
			continue
		}
		fmt.Fprintln(out, reply)
		if opts.Separator != "" {
			fmt.Fprintln(out, opts.Separator)
		}
	}
}

// readLines 把输入逐行送入 lines，结束时关闭 lines。
// 阻塞中的读取无法打断，done 关闭后在下一次读取返回时退出。
func readLines(ctx context.Context, done <-chan struct{}, in io.Reader, maxLine int, lines chan<- inputLine, readErr chan<- error) {
	defer close(lines)
	br := bufio.NewReader(in)
	for {
		text, oversize, err := readLine(br, maxLine)
		if text != "" || oversize {
			select {
			case lines <- inputLine{text: text, oversize: oversize}:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr <- err
			}
			return
		}
	}
}

type inputLine struct {
	text     string
	oversize bool
}

// readLine 读取一行（去掉行尾换行）；超过 max 字节时丢弃整行并返回 oversize
func readLine(br *bufio.Reader, max int) (string, bool, error) {
	var buf []byte
	oversize := false
	for {
		frag, err := br.ReadSlice('\n')
		if !oversize && len(buf)+len(frag) > max+1 {
			oversize, buf = true, nil
		}
		if !oversize {
			buf = append(buf, frag...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if oversize {
			return "", true, err
		}
		return strings.TrimRight(string(buf), "\r\n"), false, err
	}
}
