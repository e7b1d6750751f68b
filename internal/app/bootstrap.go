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

package app

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"campus-assistant/pkg/config"
	"campus-assistant/pkg/errors"
	"campus-assistant/pkg/log"
	"campus-assistant/pkg/metrics"
	"campus-assistant/pkg/secrets"
	"campus-assistant/pkg/tracing"
)

// Bootstrap 三个程序共用的初始化：日志、密钥、监控，以及按需装配的各组件
type Bootstrap struct {
	Config  *config.Config
	Logger  *log.Logger
	Secrets secrets.Store

	closers []func() error
}

// NewBootstrap 根据配置创建 Bootstrap
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.ErrInvalidArg, "bootstrap requires a config")
	}
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	return newBootstrap(cfg, logger)
}

// NewBootstrapWithLogger 使用外部 Logger，测试中常用
func NewBootstrapWithLogger(cfg *config.Config, logger *log.Logger) (*Bootstrap, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.ErrInvalidArg, "bootstrap requires a config")
	}
	if logger == nil {
		logger = log.Nop()
	}
	return newBootstrap(cfg, logger)
}

func newBootstrap(cfg *config.Config, logger *log.Logger) (*Bootstrap, error) {
	store, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Vault: secrets.VaultConfig{
			Address:    cfg.Secrets.Vault.Address,
			Token:      cfg.Secrets.Vault.Token,
			PathPrefix: cfg.Secrets.Vault.PathPrefix,
		},
	})
	if err != nil {
		_ = logger.Close()
		return nil, errors.Wrap(err, "init secret store")
	}
	b := &Bootstrap{Config: cfg, Logger: logger, Secrets: store}
	b.onClose(logger.Close)
	return b, nil
}

func (b *Bootstrap) onClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

// Close 逆序释放所有资源
func (b *Bootstrap) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return stderrors.Join(errs...)
}

// resolveSecret 解析 secret:<key> 形式的配置值
func (b *Bootstrap) resolveSecret(ctx context.Context, field, value string) (string, error) {
	v, err := secrets.Resolve(ctx, b.Secrets, value)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", field)
	}
	return v, nil
}

// StartMonitoring 按配置启动 Prometheus 端点与 OpenTelemetry tracer
func (b *Bootstrap) StartMonitoring() error {
	mon := b.Config.Monitoring
	if mon.Tracing.Enable {
		tp, err := tracing.InitTracer(tracing.OTelConfig{
			ServiceName:    mon.Tracing.ServiceName,
			ExportEndpoint: mon.Tracing.ExportEndpoint,
			Insecure:       mon.Tracing.Insecure,
		})
		if err != nil {
			return errors.Wrap(err, "init tracer")
		}
		b.onClose(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return tp.Shutdown(ctx)
		})
	}
	if mon.Prometheus.Enable {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{
			Addr:              ":" + strconv.Itoa(mon.Prometheus.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				b.Logger.Error("metrics server stopped", "error", err)
			}
		}()
		b.Logger.Info("metrics server listening", "addr", srv.Addr)
		b.onClose(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		})
	}
	return nil
}
